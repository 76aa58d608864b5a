package widgets

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/vrkit/internal/core/scene"
	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

// modelTilt turns a controller-aligned model upright.
var modelTilt = mgl64.QuatRotate(mgl64.DegToRad(90), physics.Right)

// Follower snaps a node onto a tracked pose every frame, tilted so a model
// lying along the controller stands up.
type Follower struct {
	node   *scene.Node
	target physics.PoseSource
}

func NewFollower(node *scene.Node, target physics.PoseSource) *Follower {
	return &Follower{node: node, target: target}
}

// Update runs once per frame. With no target the node stays put.
func (f *Follower) Update() {
	if f.target == nil || !f.node.Valid() {
		return
	}
	p := f.target.Pose()
	f.node.SetPose(physics.Pose{Position: p.Position, Rotation: p.Rotation.Mul(modelTilt)})
}
