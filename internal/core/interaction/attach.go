package interaction

import (
	"slices"

	"github.com/zeusync/vrkit/internal/core/events/bus"
	"github.com/zeusync/vrkit/internal/core/observability/log"
	"github.com/zeusync/vrkit/internal/core/scene"
)

// Attach pushes obj on top of the stack and reparents it under the
// attachment point. An object already held by this hand or the other hand is
// detached first, so re-attaching moves it to the top.
func (h *Hand) Attach(obj Interactable, opts AttachOptions) {
	if !valid(obj) {
		return
	}
	h.prune()

	h.Detach(obj)
	if h.other != nil {
		h.other.Detach(obj)
	}

	// The top loses focus exactly once, before any detach of the others.
	if cur := h.Current(); cur != nil {
		if f, ok := cur.(FocusLoser); ok {
			f.OnHandFocusLost(h)
		}
		h.emit(bus.KindFocusLost, cur)
	}

	if opts.DetachOthers {
		for len(h.attached) > 0 {
			h.Detach(h.attached[0].Object)
			h.prune()
		}
	}

	node := obj.Node()
	h.attached = append(h.attached, AttachedObject{Object: obj, OriginalParent: node.Parent()})

	node.SetParent(h.attachmentNode(opts.AttachmentPoint))
	if opts.Snap {
		node.ResetLocal()
	}

	if a, ok := obj.(AttachedHandler); ok {
		a.OnAttachedToHand(h)
	}
	h.emit(bus.KindAttach, obj)
	h.logger.Debug("attached", log.String("object", node.Name()), log.Int("stack", len(h.attached)))

	h.UpdateHovering()
}

// Detach removes obj from the stack and restores its original parent, or the
// top level if that parent is gone. When the top of the stack changes the new
// top acquires focus. Objects not on the stack are ignored.
func (h *Hand) Detach(obj Interactable) {
	if obj == nil {
		return
	}
	target := obj.Node()
	if target == nil {
		return
	}
	h.prune()

	idx := h.indexOf(target)
	if idx < 0 {
		return
	}
	prevTop := h.Current()
	entry := h.attached[idx]

	parent := entry.OriginalParent
	if !parent.Valid() {
		parent = nil
	}
	if target.Valid() {
		target.SetParent(parent)
	}

	if d, ok := entry.Object.(DetachedHandler); ok {
		d.OnDetachedFromHand(h)
	}
	// callbacks may have changed the stack
	if idx = h.indexOf(target); idx >= 0 {
		h.attached = slices.Delete(h.attached, idx, idx+1)
	}
	h.emit(bus.KindDetach, entry.Object)
	h.logger.Debug("detached", log.String("object", target.Name()), log.Int("stack", len(h.attached)))

	if newTop := h.Current(); newTop != nil && !same(newTop, prevTop) {
		if f, ok := newTop.(FocusAcquirer); ok {
			f.OnHandFocusAcquired(h)
		}
		h.emit(bus.KindFocusAcquired, newTop)
	}
}

// Current is the top of the stack after dropping destroyed objects, or nil.
func (h *Hand) Current() Interactable {
	h.prune()
	if len(h.attached) == 0 {
		return nil
	}
	return h.attached[len(h.attached)-1].Object
}

// AttachedObjects returns the stack bottom to top.
func (h *Hand) AttachedObjects() []AttachedObject {
	h.prune()
	return slices.Clone(h.attached)
}

// IsAttached reports whether obj is on this hand's stack.
func (h *Hand) IsAttached(obj Interactable) bool {
	n := nodeOf(obj)
	return n != nil && h.indexOf(n) >= 0
}

func (h *Hand) indexOf(n *scene.Node) int {
	return slices.IndexFunc(h.attached, func(a AttachedObject) bool {
		return a.Object != nil && a.Object.Node() == n
	})
}

func (h *Hand) prune() {
	h.attached = slices.DeleteFunc(h.attached, func(a AttachedObject) bool {
		return !valid(a.Object)
	})
}

func (h *Hand) attachedSnapshot() []AttachedObject {
	return slices.Clone(h.attached)
}

func (h *Hand) attachmentNode(name string) *scene.Node {
	if p, ok := h.attachPoints[name]; ok && p.Valid() {
		return p
	}
	return h.node
}
