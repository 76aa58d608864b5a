package interaction

import (
	"github.com/zeusync/vrkit/internal/core/scene"
	"github.com/zeusync/vrkit/internal/core/spatial"
	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

// Interactable is anything a hand can hover or hold. Identity is the scene
// node: two values with the same node are the same object. A *scene.Node is
// itself an Interactable.
type Interactable interface {
	Node() *scene.Node
}

// Overlapper answers sphere overlap queries against the interactables in the
// world. spatial.Grid[Interactable] is the usual implementation.
type Overlapper interface {
	OverlapSphere(center physics.Vec3, radius float64, mask spatial.LayerMask) []Interactable
}

var _ Overlapper = (*spatial.Grid[Interactable])(nil)

// Notifications an interactable may opt into. The hand checks for each one
// and calls it directly; objects implement only what they need.
type (
	HoverBeginner interface {
		OnHandHoverBegin(h *Hand)
	}
	HoverEnder interface {
		OnHandHoverEnd(h *Hand)
	}
	// HoverUpdater is called once per frame while the object is hovered.
	HoverUpdater interface {
		HandHoverUpdate(h *Hand)
	}
	AttachedHandler interface {
		OnAttachedToHand(h *Hand)
	}
	DetachedHandler interface {
		OnDetachedFromHand(h *Hand)
	}
	// AttachedUpdater is called once per frame while the object is the
	// hand's current attached object.
	AttachedUpdater interface {
		HandAttachedUpdate(h *Hand)
	}
	FocusAcquirer interface {
		OnHandFocusAcquired(h *Hand)
	}
	FocusLoser interface {
		OnHandFocusLost(h *Hand)
	}
	// ParentHoverBeginner is implemented by held objects that want to know
	// what the holding hand starts hovering.
	ParentHoverBeginner interface {
		OnParentHandHoverBegin(i Interactable)
	}
	ParentHoverEnder interface {
		OnParentHandHoverEnd(i Interactable)
	}
)

// nodeOf returns the live node of i, or nil for nil and destroyed objects.
func nodeOf(i Interactable) *scene.Node {
	if i == nil {
		return nil
	}
	if n := i.Node(); n.Valid() {
		return n
	}
	return nil
}

func valid(i Interactable) bool { return nodeOf(i) != nil }

// same compares by node identity. Destroyed objects compare equal to nil.
func same(a, b Interactable) bool { return nodeOf(a) == nodeOf(b) }

func nameOf(i Interactable) string {
	if n := nodeOf(i); n != nil {
		return n.Name()
	}
	return ""
}
