package widgets

import (
	"github.com/zeusync/vrkit/internal/core/input"
	"github.com/zeusync/vrkit/internal/core/interaction"
	"github.com/zeusync/vrkit/internal/core/scene"
	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

const labelIdle = "No Hand Hovering"

// ToggleGrab picks itself up on a standard button or grip press and puts
// itself back where it was on the next press. Label mirrors what a caption
// next to the object would read.
type ToggleGrab struct {
	node  *scene.Node
	saved physics.Pose
	label string
}

func NewToggleGrab(node *scene.Node) *ToggleGrab {
	return &ToggleGrab{node: node, label: labelIdle}
}

func (g *ToggleGrab) Node() *scene.Node { return g.node }

func (g *ToggleGrab) Label() string { return g.label }

func (g *ToggleGrab) OnHandHoverBegin(h *interaction.Hand) { g.label = "Hovering hand: " + h.Name() }

func (g *ToggleGrab) OnHandHoverEnd(*interaction.Hand) { g.label = labelIdle }

func (g *ToggleGrab) OnAttachedToHand(h *interaction.Hand) { g.label = "Attached to hand: " + h.Name() }

func (g *ToggleGrab) OnDetachedFromHand(h *interaction.Hand) {
	g.label = "Detached from hand: " + h.Name()
}

func (g *ToggleGrab) HandHoverUpdate(h *interaction.Hand) {
	grip := h.Controller() != nil && h.Controller().GetPressDown(input.Grip)
	if !h.StandardButtonDown() && !grip {
		return
	}

	if cur := h.Current(); cur == nil || cur.Node() != g.node {
		g.saved = g.node.Pose()
		// keep receiving hover updates and stop the hand hovering others
		h.HoverLock(g)
		h.Attach(g, interaction.AttachOptions{DetachOthers: true})
		return
	}

	h.Detach(g)
	h.HoverUnlock(g)
	g.node.SetPose(g.saved)
}
