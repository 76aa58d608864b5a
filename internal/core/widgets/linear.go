package widgets

import (
	"github.com/zeusync/vrkit/internal/core/interaction"
	"github.com/zeusync/vrkit/internal/core/scene"
	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

// LinearMapping is a scalar in [0, 1] shared between a driver and the things
// it drives.
type LinearMapping struct {
	Value float64
}

var (
	_ interaction.HoverUpdater = (*LinearDrive)(nil)
	_ interaction.Interactable = (*LinearDrive)(nil)
)

// LinearDrive maps the hand position onto the segment from Start to End while
// the standard button is held, hover locking itself for the drag.
type LinearDrive struct {
	node  *scene.Node
	start *scene.Node
	end   *scene.Node

	Mapping *LinearMapping
	// Reposition moves the node along the segment with the value.
	Reposition bool
}

// NewLinearDrive creates a drive for node. A nil mapping gets a fresh one.
func NewLinearDrive(node, start, end *scene.Node, mapping *LinearMapping) *LinearDrive {
	if mapping == nil {
		mapping = &LinearMapping{}
	}
	return &LinearDrive{node: node, start: start, end: end, Mapping: mapping, Reposition: true}
}

func (d *LinearDrive) Node() *scene.Node { return d.node }

// Start initialises the mapping from the node's own position.
func (d *LinearDrive) Start() {
	if d.Reposition {
		d.update(d.node.Position())
	}
}

func (d *LinearDrive) HandHoverUpdate(h *interaction.Hand) {
	if h.Current() != nil {
		return
	}
	if h.StandardButtonDown() {
		h.HoverLock(d)
	}
	if h.StandardButtonUp() {
		h.HoverUnlock(d)
	}
	if h.StandardButtonHeld() {
		d.update(h.Position())
	}
}

func (d *LinearDrive) update(p physics.Vec3) {
	from, to := d.start.Position(), d.end.Position()
	segment := to.Sub(from)
	length := segment.Len()
	if length == 0 {
		return
	}
	pull := physics.Clamp01(p.Sub(from).Dot(segment.Mul(1/length)) / length)
	d.Mapping.Value = pull
	if d.Reposition {
		d.node.SetPosition(physics.Lerp(from, to, pull))
	}
}

// LinearDisplacement offsets a node's local position by Value × Displacement
// from where it started.
type LinearDisplacement struct {
	node         *scene.Node
	initial      physics.Vec3
	Displacement physics.Vec3
	Mapping      *LinearMapping
}

func NewLinearDisplacement(node *scene.Node, displacement physics.Vec3, mapping *LinearMapping) *LinearDisplacement {
	return &LinearDisplacement{
		node:         node,
		initial:      node.LocalPosition(),
		Displacement: displacement,
		Mapping:      mapping,
	}
}

// Update runs once per frame.
func (d *LinearDisplacement) Update() {
	if d.Mapping == nil || !d.node.Valid() {
		return
	}
	d.node.SetLocalPosition(d.initial.Add(d.Displacement.Mul(d.Mapping.Value)))
}
