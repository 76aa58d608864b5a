package interaction

import (
	"math"

	"github.com/zeusync/vrkit/internal/core/events/bus"
	"github.com/zeusync/vrkit/internal/core/observability/log"
	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

// Hovering is the hovered interactable, or nil.
func (h *Hand) Hovering() Interactable {
	if !valid(h.hovering) {
		return nil
	}
	return h.hovering
}

// HoverLocked reports whether hover resolution is suspended.
func (h *Hand) HoverLocked() bool { return h.hoverLocked }

// UpdateHovering picks the closest overlapping interactable that is neither
// attached to this hand nor hovered by the other hand. It does nothing while
// hover locked.
func (h *Hand) UpdateHovering() {
	if h.hoverLocked || !h.node.Valid() {
		return
	}

	origin := h.node.Position()
	center := origin
	if h.hoverPoint.Valid() {
		center = h.hoverPoint.Position()
	}

	var (
		closest     Interactable
		closestDist = math.MaxFloat64
	)
	for _, candidate := range h.overlap.OverlapSphere(center, h.cfg.HoverRadius, h.cfg.HoverMask) {
		if !valid(candidate) {
			continue
		}
		if h.IsAttached(candidate) {
			continue
		}
		if h.other != nil && same(h.other.Hovering(), candidate) {
			continue
		}
		// first found wins ties
		if d := physics.Distance(candidate.Node().Position(), origin); d < closestDist {
			closestDist = d
			closest = candidate
		}
	}

	h.setHovering(closest)
}

// HoverLock pins the hovered interactable to i, which may be nil, until a
// matching HoverUnlock.
func (h *Hand) HoverLock(i Interactable) {
	h.hoverLocked = true
	h.setHovering(i)
	h.emit(bus.KindHoverLock, i)
}

// HoverUnlock releases the lock if i is the hovered interactable. Any other
// value leaves the lock in place.
func (h *Hand) HoverUnlock(i Interactable) {
	if !same(h.hovering, i) {
		return
	}
	h.hoverLocked = false
	h.emit(bus.KindHoverUnlock, i)
}

// setHovering switches the hovered interactable, ending the old hover before
// beginning the new one. Held objects hear about both.
func (h *Hand) setHovering(next Interactable) {
	if same(h.hovering, next) {
		return
	}
	prev := h.hovering

	if valid(prev) {
		if e, ok := prev.(HoverEnder); ok {
			e.OnHandHoverEnd(h)
		}
		for _, a := range h.attachedSnapshot() {
			if e, ok := a.Object.(ParentHoverEnder); ok {
				e.OnParentHandHoverEnd(prev)
			}
		}
		h.emit(bus.KindHoverEnd, prev)
	}

	h.hovering = next
	if !valid(next) {
		h.hovering = nil
		h.logger.Debug("hover cleared", log.String("previous", nameOf(prev)))
		return
	}

	if b, ok := next.(HoverBeginner); ok {
		b.OnHandHoverBegin(h)
	}
	for _, a := range h.attachedSnapshot() {
		if b, ok := a.Object.(ParentHoverBeginner); ok {
			b.OnParentHandHoverBegin(next)
		}
	}
	h.emit(bus.KindHoverBegin, next)
	h.logger.Debug("hover changed", log.String("previous", nameOf(prev)), log.String("hovering", nameOf(next)))
}
