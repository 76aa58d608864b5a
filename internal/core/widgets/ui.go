package widgets

import (
	"github.com/zeusync/vrkit/internal/core/events/bus"
	"github.com/zeusync/vrkit/internal/core/interaction"
	"github.com/zeusync/vrkit/internal/core/observability/log"
	"github.com/zeusync/vrkit/internal/core/scene"
)

// UIModule routes hand hovers and presses on GUI elements to a pointer-style
// event sink. A submit is held until the next Process.
type UIModule struct {
	OnPointerEnter func(el *GUIElement)
	OnPointerExit  func(el *GUIElement)

	Bus    bus.EventBus
	Logger log.Log

	pending *GUIElement
}

func (m *UIModule) HoverBegin(el *GUIElement) {
	if m.OnPointerEnter != nil {
		m.OnPointerEnter(el)
	}
}

func (m *UIModule) HoverEnd(el *GUIElement) {
	if m.OnPointerExit != nil {
		m.OnPointerExit(el)
	}
}

// Submit queues el; a later submit in the same frame replaces it.
func (m *UIModule) Submit(el *GUIElement) { m.pending = el }

// Process delivers the queued submit, if any. Call once per frame.
func (m *UIModule) Process() {
	el := m.pending
	if el == nil {
		return
	}
	m.pending = nil
	if el.OnSubmit != nil {
		el.OnSubmit()
	}
	if m.Bus != nil {
		if err := m.Bus.Publish(bus.NewEvent(bus.KindSubmit, "", el.node.Name(), 0)); err != nil {
			log.OrNop(m.Logger).Warn("submit event handler failed", log.String("element", el.node.Name()), log.Error(err))
		}
	}
}

var (
	_ interaction.HoverBeginner = (*GUIElement)(nil)
	_ interaction.HoverEnder    = (*GUIElement)(nil)
	_ interaction.HoverUpdater  = (*GUIElement)(nil)
)

// GUIElement makes a UI control hoverable and pressable by hands.
type GUIElement struct {
	node   *scene.Node
	module *UIModule

	OnSubmit func()
}

func NewGUIElement(node *scene.Node, module *UIModule) *GUIElement {
	return &GUIElement{node: node, module: module}
}

func (e *GUIElement) Node() *scene.Node { return e.node }

func (e *GUIElement) OnHandHoverBegin(*interaction.Hand) { e.module.HoverBegin(e) }

func (e *GUIElement) OnHandHoverEnd(*interaction.Hand) { e.module.HoverEnd(e) }

func (e *GUIElement) HandHoverUpdate(h *interaction.Hand) {
	if h.StandardButtonDown() {
		e.module.Submit(e)
	}
}
