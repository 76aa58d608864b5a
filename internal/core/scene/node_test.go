package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

func TestSetParentKeepsWorldPose(t *testing.T) {
	hand := NewNode("hand")
	hand.SetPosition(physics.Vec3{1, 1, 0})
	hand.SetRotation(mgl64.QuatRotate(math.Pi/2, physics.Up))

	ball := NewNode("ball")
	ball.SetPosition(physics.Vec3{2, 1, 0})

	ball.SetParent(hand)
	require.Same(t, hand, ball.Parent())
	assert.True(t, ball.Position().ApproxEqualThreshold(physics.Vec3{2, 1, 0}, 1e-9), "world %v", ball.Position())

	hand.SetPosition(physics.Vec3{1, 2, 0})
	assert.True(t, ball.Position().ApproxEqualThreshold(physics.Vec3{2, 2, 0}, 1e-9), "follows parent: %v", ball.Position())

	ball.SetParent(nil)
	assert.Nil(t, ball.Parent())
	assert.Empty(t, hand.Children())
	assert.True(t, ball.Position().ApproxEqualThreshold(physics.Vec3{2, 2, 0}, 1e-9))
}

func TestResetLocalSnapsToParent(t *testing.T) {
	hand := NewNode("hand")
	hand.SetPosition(physics.Vec3{0, 1, 0})
	ball := NewNode("ball")
	ball.SetPosition(physics.Vec3{5, 5, 5})
	ball.SetParent(hand)

	ball.ResetLocal()
	assert.True(t, ball.Position().ApproxEqualThreshold(hand.Position(), 1e-9))
	assert.Equal(t, mgl64.QuatIdent(), ball.LocalRotation())
}

func TestFind(t *testing.T) {
	hand := NewNode("hand")
	grip := NewChild(hand, "grip", physics.Vec3{0, 0, 0.1})
	tip := NewChild(grip, "tip", physics.Vec3{0, 0, 0.05})

	assert.Same(t, grip, hand.Find("grip"))
	assert.Same(t, tip, hand.Find("grip/tip"))
	assert.Nil(t, hand.Find("palm"))
	assert.Nil(t, hand.Find(""))
}

func TestDestroyInvalidatesSubtree(t *testing.T) {
	root := NewNode("root")
	child := NewChild(root, "child", physics.Zero)
	leaf := NewChild(child, "leaf", physics.Zero)

	child.Destroy()
	assert.False(t, child.Valid())
	assert.False(t, leaf.Valid())
	assert.True(t, root.Valid())
	assert.Empty(t, root.Children())

	var missing *Node
	assert.False(t, missing.Valid())
}

func TestActiveInHierarchy(t *testing.T) {
	rig := NewNode("rig")
	hand := NewChild(rig, "hand", physics.Zero)
	assert.True(t, hand.ActiveInHierarchy())

	rig.SetActive(false)
	assert.True(t, hand.ActiveSelf())
	assert.False(t, hand.ActiveInHierarchy())
}

func TestSetParentRejectsCycles(t *testing.T) {
	a := NewNode("a")
	b := NewChild(a, "b", physics.Zero)
	a.SetParent(b)
	assert.Nil(t, a.Parent())
	assert.Same(t, a, b.Parent())
}
