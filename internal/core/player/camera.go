package player

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/vrkit/internal/core/input"
	"github.com/zeusync/vrkit/internal/core/interaction"
	"github.com/zeusync/vrkit/internal/core/scene"
	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

const (
	DefaultCameraSpeed      = 4.0
	DefaultCameraShiftSpeed = 16.0
	DefaultFieldOfView      = 60.0 // degrees, vertical

	rotationEasing = 10.0
)

var _ interaction.Camera = (*FallbackCamera)(nil)

// FallbackCamera is the desktop fly camera. Screen coordinates start at the
// bottom left.
type FallbackCamera struct {
	node     *scene.Node
	keyboard *input.Keyboard
	pointer  *input.Pointer

	ScreenWidth  float64
	ScreenHeight float64
	Speed        float64
	ShiftSpeed   float64
	FieldOfView  float64

	dragging     bool
	dragX, dragY float64
	startPitch   float64 // degrees
	startYaw     float64
	pitch, yaw   float64
}

// NewFallbackCamera takes its starting pitch and yaw from node; roll is
// dropped.
func NewFallbackCamera(node *scene.Node, keyboard *input.Keyboard, pointer *input.Pointer, width, height float64) *FallbackCamera {
	f := node.LocalRotation().Rotate(physics.Forward)
	return &FallbackCamera{
		pitch:        -mgl64.RadToDeg(math.Asin(mgl64.Clamp(f[1], -1, 1))),
		yaw:          mgl64.RadToDeg(math.Atan2(f[0], f[2])),
		node:         node,
		keyboard:     keyboard,
		pointer:      pointer,
		ScreenWidth:  width,
		ScreenHeight: height,
		Speed:        DefaultCameraSpeed,
		ShiftSpeed:   DefaultCameraShiftSpeed,
		FieldOfView:  DefaultFieldOfView,
	}
}

func (c *FallbackCamera) Node() *scene.Node { return c.node }

func (c *FallbackCamera) Forward() physics.Vec3 { return c.node.Forward() }

// ScreenPointToRay casts from the camera through a pixel.
func (c *FallbackCamera) ScreenPointToRay(x, y float64) physics.Ray {
	pose := c.node.Pose()
	if c.ScreenWidth <= 0 || c.ScreenHeight <= 0 {
		return physics.Ray{Origin: pose.Position, Direction: c.Forward()}
	}
	half := math.Tan(mgl64.DegToRad(c.FieldOfView) / 2)
	aspect := c.ScreenWidth / c.ScreenHeight
	local := physics.Vec3{
		(2*x/c.ScreenWidth - 1) * half * aspect,
		(2*y/c.ScreenHeight - 1) * half,
		1,
	}
	return physics.Ray{Origin: pose.Position, Direction: pose.TransformDirection(local.Normalize())}
}

// Update moves and turns the camera for a frame of dt real seconds.
func (c *FallbackCamera) Update(dt float64) {
	c.translate(dt)
	c.rotate(dt)
}

func (c *FallbackCamera) translate(dt float64) {
	k := c.keyboard
	if k == nil {
		return
	}
	var delta physics.Vec3
	if k.Held(input.KeyW, input.KeyUp) {
		delta[2]++
	}
	if k.Held(input.KeyS, input.KeyDown) {
		delta[2]--
	}
	if k.Held(input.KeyD, input.KeyRight) {
		delta[0]++
	}
	if k.Held(input.KeyA, input.KeyLeft) {
		delta[0]--
	}
	if k.Held(input.KeyE) {
		delta[1]++
	}
	if k.Held(input.KeyQ) {
		delta[1]--
	}
	if delta == physics.Zero {
		return
	}

	speed := c.Speed
	if k.Held(input.KeyLeftShift, input.KeyRightShift) {
		speed = c.ShiftSpeed
	}
	step := c.node.TransformDirection(delta.Mul(speed * dt))
	c.node.SetPosition(c.node.Position().Add(step))
}

func (c *FallbackCamera) rotate(dt float64) {
	if c.pointer == nil || c.ScreenWidth <= 0 || c.ScreenHeight <= 0 {
		return
	}
	x, y := c.pointer.Position()
	alt := c.keyboard != nil && c.keyboard.Held(input.KeyLeftAlt)
	right := c.pointer.Button(input.MouseRight)
	left := c.pointer.Button(input.MouseLeft)

	switch {
	case right.Down() || (alt && left.Down()):
		c.dragging = true
		c.dragX, c.dragY = x, y
		c.startPitch, c.startYaw = c.pitch, c.yaw
	case !right.Held() && !(alt && left.Held()):
		c.dragging = false
	}

	if c.dragging {
		c.pitch = c.startPitch - (y-c.dragY)*360/c.ScreenHeight
		c.yaw = c.startYaw + (x-c.dragX)*360/c.ScreenWidth
	}

	target := mgl64.QuatRotate(mgl64.DegToRad(c.yaw), physics.Up).
		Mul(mgl64.QuatRotate(mgl64.DegToRad(c.pitch), physics.Right))
	last := c.node.LocalRotation()
	c.node.SetLocalRotation(mgl64.QuatNlerp(last, target, physics.Clamp01(dt*rotationEasing)))
}
