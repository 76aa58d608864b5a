package scene

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

var _ physics.PoseSource = (*Node)(nil)

// Node is a transform in a parent/child hierarchy. Poses are rigid; there is
// no scale. A nil *Node parent means the node sits at the top level.
type Node struct {
	id       uuid.UUID
	name     string
	parent   *Node
	children []*Node

	localPosition physics.Vec3
	localRotation physics.Quat

	active    bool
	destroyed bool
}

// NewNode creates an active top-level node at the origin.
func NewNode(name string) *Node {
	return &Node{
		id:            uuid.New(),
		name:          name,
		localRotation: mgl64.QuatIdent(),
		active:        true,
	}
}

// NewChild creates a node under parent at the given local position.
func NewChild(parent *Node, name string, local physics.Vec3) *Node {
	n := NewNode(name)
	n.localPosition = local
	n.attach(parent)
	return n
}

func (n *Node) ID() uuid.UUID { return n.id }

func (n *Node) Name() string { return n.name }

// Node returns n, so a bare node can be handed to anything that holds
// objects by their node.
func (n *Node) Node() *Node { return n }

func (n *Node) String() string { return n.name }

func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Valid reports whether n is non-nil and has not been destroyed.
func (n *Node) Valid() bool {
	return n != nil && !n.destroyed
}

// Destroy detaches n from its parent and marks it and its subtree invalid.
func (n *Node) Destroy() {
	if !n.Valid() {
		return
	}
	n.detach()
	n.markDestroyed()
}

func (n *Node) markDestroyed() {
	n.destroyed = true
	for _, c := range n.children {
		c.markDestroyed()
	}
}

func (n *Node) SetActive(active bool) { n.active = active }

func (n *Node) ActiveSelf() bool { return n.active }

// ActiveInHierarchy is true when n and all its ancestors are active.
func (n *Node) ActiveInHierarchy() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if !cur.active || cur.destroyed {
			return false
		}
	}
	return true
}

// SetParent reparents n keeping its world pose. A nil parent moves n to the
// top level. Reparenting under a descendant of n is ignored.
func (n *Node) SetParent(parent *Node) {
	if parent == n.parent {
		return
	}
	if parent != nil && parent.isDescendantOf(n) {
		return
	}
	world := n.Pose()
	n.detach()
	n.attach(parent)
	n.SetPose(world)
}

func (n *Node) isDescendantOf(ancestor *Node) bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

func (n *Node) attach(parent *Node) {
	n.parent = parent
	if parent != nil {
		parent.children = append(parent.children, n)
	}
}

func (n *Node) detach() {
	if n.parent == nil {
		return
	}
	siblings := n.parent.children
	for i, c := range siblings {
		if c == n {
			n.parent.children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// Find resolves a slash-separated path of child names below n.
func (n *Node) Find(path string) *Node {
	if path == "" {
		return nil
	}
	cur := n
	for _, part := range strings.Split(path, "/") {
		var next *Node
		for _, c := range cur.children {
			if c.name == part && !c.destroyed {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

func (n *Node) LocalPosition() physics.Vec3 { return n.localPosition }

func (n *Node) LocalRotation() physics.Quat { return n.localRotation }

func (n *Node) SetLocalPosition(p physics.Vec3) { n.localPosition = p }

func (n *Node) SetLocalRotation(q physics.Quat) { n.localRotation = q.Normalize() }

// ResetLocal snaps n onto its parent: zero offset, identity rotation.
func (n *Node) ResetLocal() {
	n.localPosition = physics.Zero
	n.localRotation = mgl64.QuatIdent()
}

func (n *Node) LocalPose() physics.Pose {
	return physics.Pose{Position: n.localPosition, Rotation: n.localRotation}
}

// Pose is the world pose.
func (n *Node) Pose() physics.Pose {
	local := n.LocalPose()
	if n.parent == nil {
		return local
	}
	return n.parent.Pose().Mul(local)
}

// SetPose sets the world pose.
func (n *Node) SetPose(world physics.Pose) {
	if n.parent == nil {
		n.localPosition = world.Position
		n.localRotation = world.Rotation.Normalize()
		return
	}
	local := n.parent.Pose().Inverse().Mul(world)
	n.localPosition = local.Position
	n.localRotation = local.Rotation
}

func (n *Node) Position() physics.Vec3 { return n.Pose().Position }

func (n *Node) Rotation() physics.Quat { return n.Pose().Rotation }

func (n *Node) SetPosition(p physics.Vec3) {
	world := n.Pose()
	world.Position = p
	n.SetPose(world)
}

func (n *Node) SetRotation(q physics.Quat) {
	world := n.Pose()
	world.Rotation = q
	n.SetPose(world)
}

// Forward is the node's +Z axis in world space.
func (n *Node) Forward() physics.Vec3 { return n.Rotation().Rotate(physics.Forward) }

// Up is the node's +Y axis in world space.
func (n *Node) Up() physics.Vec3 { return n.Rotation().Rotate(physics.Up) }

// TransformDirection rotates a local direction into world space.
func (n *Node) TransformDirection(v physics.Vec3) physics.Vec3 {
	return n.Rotation().Rotate(v)
}
