package widgets

import (
	"github.com/zeusync/vrkit/internal/core/interaction"
	"github.com/zeusync/vrkit/internal/core/scene"
	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

// Estimator is the motion estimator a throwable samples while held.
type Estimator interface {
	Begin()
	Finish()
	Velocity() physics.Vec3
	AngularVelocity() physics.Vec3
}

var (
	_ interaction.HoverBeginner   = (*Throwable)(nil)
	_ interaction.HoverUpdater    = (*Throwable)(nil)
	_ interaction.AttachedHandler = (*Throwable)(nil)
	_ interaction.DetachedHandler = (*Throwable)(nil)
	_ interaction.AttachedUpdater = (*Throwable)(nil)
)

// Throwable is picked up with the standard button and released with the
// estimated velocity when the button goes up. Holding the button while it
// flies into the hand catches it.
type Throwable struct {
	node      *scene.Node
	body      *physics.Rigidbody
	estimator Estimator

	Attach interaction.AttachOptions
	// CatchSpeed is the minimum speed at which a held button catches.
	CatchSpeed float64

	attached bool
}

// NewThrowable creates a throwable that attaches without snapping or
// detaching others.
func NewThrowable(node *scene.Node, body *physics.Rigidbody, estimator Estimator) *Throwable {
	return &Throwable{node: node, body: body, estimator: estimator}
}

func (t *Throwable) Node() *scene.Node { return t.node }

func (t *Throwable) Body() *physics.Rigidbody { return t.body }

// Attached reports whether a hand holds the throwable.
func (t *Throwable) Attached() bool { return t.attached }

func (t *Throwable) OnHandHoverBegin(h *interaction.Hand) {
	if t.attached || !h.StandardButtonHeld() {
		return
	}
	if t.body.Speed() >= t.CatchSpeed {
		h.Attach(t, t.Attach)
	}
}

func (t *Throwable) HandHoverUpdate(h *interaction.Hand) {
	if h.StandardButtonDown() {
		h.Attach(t, t.Attach)
	}
}

func (t *Throwable) OnAttachedToHand(h *interaction.Hand) {
	t.attached = true
	h.HoverLock(nil)
	t.body.Kinematic = true
	t.body.Interpolate = false
	t.estimator.Begin()
}

// OnDetachedFromHand hands the estimate to the rigidbody. The estimate is
// read exactly once, here.
func (t *Throwable) OnDetachedFromHand(h *interaction.Hand) {
	t.attached = false
	h.HoverUnlock(nil)
	t.body.Kinematic = false
	t.body.Interpolate = true
	t.estimator.Finish()
	t.body.Velocity = t.estimator.Velocity()
	t.body.AngularVelocity = t.estimator.AngularVelocity()
}

func (t *Throwable) HandAttachedUpdate(h *interaction.Hand) {
	if h.StandardButtonUp() {
		h.Detach(t)
	}
}
