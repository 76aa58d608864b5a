package widgets

import (
	"github.com/zeusync/vrkit/internal/core/input"
	"github.com/zeusync/vrkit/internal/core/interaction"
	"github.com/zeusync/vrkit/internal/core/scene"
)

// ButtonEvents turns controller edges seen while hovered into callbacks. Nil
// callbacks are skipped.
type ButtonEvents struct {
	node *scene.Node

	OnTriggerDown     func()
	OnTriggerUp       func()
	OnGripDown        func()
	OnGripUp          func()
	OnTouchpadDown    func()
	OnTouchpadUp      func()
	OnTouchpadTouch   func()
	OnTouchpadRelease func()
}

func NewButtonEvents(node *scene.Node) *ButtonEvents { return &ButtonEvents{node: node} }

func (e *ButtonEvents) Node() *scene.Node { return e.node }

func (e *ButtonEvents) HandHoverUpdate(h *interaction.Hand) {
	c := h.Controller()
	if c == nil {
		return
	}
	fire(c.GetPressDown(input.Trigger), e.OnTriggerDown)
	fire(c.GetPressUp(input.Trigger), e.OnTriggerUp)
	fire(c.GetPressDown(input.Grip), e.OnGripDown)
	fire(c.GetPressUp(input.Grip), e.OnGripUp)
	fire(c.GetPressDown(input.Touchpad), e.OnTouchpadDown)
	fire(c.GetPressUp(input.Touchpad), e.OnTouchpadUp)
	fire(c.GetTouchDown(input.Touchpad), e.OnTouchpadTouch)
	fire(c.GetTouchUp(input.Touchpad), e.OnTouchpadRelease)
}

// HoverEvents forwards hover begin and end.
type HoverEvents struct {
	node *scene.Node

	OnHoverBegin func()
	OnHoverEnd   func()
}

func NewHoverEvents(node *scene.Node) *HoverEvents { return &HoverEvents{node: node} }

func (e *HoverEvents) Node() *scene.Node { return e.node }

func (e *HoverEvents) OnHandHoverBegin(*interaction.Hand) { fire(true, e.OnHoverBegin) }

func (e *HoverEvents) OnHandHoverEnd(*interaction.Hand) { fire(true, e.OnHoverEnd) }

func fire(cond bool, fn func()) {
	if cond && fn != nil {
		fn()
	}
}
