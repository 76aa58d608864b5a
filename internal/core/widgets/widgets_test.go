package widgets

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/vrkit/internal/core/events/bus"
	"github.com/zeusync/vrkit/internal/core/input"
	"github.com/zeusync/vrkit/internal/core/interaction"
	"github.com/zeusync/vrkit/internal/core/scene"
	"github.com/zeusync/vrkit/internal/core/spatial"
	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

type rig struct {
	grid *spatial.Grid[interaction.Interactable]
	hand *interaction.Hand
	ctrl *input.Controller
	st   input.State
}

func newRig(t *testing.T, opts ...interaction.Option) *rig {
	t.Helper()
	r := &rig{grid: spatial.NewGrid[interaction.Interactable](0), ctrl: input.NewController(1, nil)}
	node := scene.NewNode("right")
	h, err := interaction.NewHand(node, r.grid, interaction.DefaultConfig(),
		append([]interaction.Option{interaction.WithController(r.ctrl)}, opts...)...)
	require.NoError(t, err)
	r.hand = h
	r.st.Connected = true
	return r
}

func (r *rig) add(i interaction.Interactable) {
	r.grid.Insert(i, i.Node(), 0.05, spatial.AllLayers)
}

// frame applies one frame of trigger state and runs the hand.
func (r *rig) frame(trigger bool) {
	r.st.Touch[input.Trigger] = trigger
	r.ctrl.Update(r.st)
	r.grid.Rebuild()
	r.hand.UpdateHovering()
	r.hand.Update()
}

func (r *rig) moveTo(p physics.Vec3) { r.hand.Node().SetPosition(p) }

type fakeEstimator struct {
	began, finished int
	v, w            physics.Vec3
}

func (e *fakeEstimator) Begin()                        { e.began++ }
func (e *fakeEstimator) Finish()                       { e.finished++ }
func (e *fakeEstimator) Velocity() physics.Vec3        { return e.v }
func (e *fakeEstimator) AngularVelocity() physics.Vec3 { return e.w }

func TestLinearDriveScenario(t *testing.T) {
	r := newRig(t)
	start := scene.NewNode("start")
	end := scene.NewNode("end")
	end.SetPosition(physics.Vec3{1, 0, 0})
	knob := scene.NewNode("knob")
	d := NewLinearDrive(knob, start, end, nil)
	d.Start()
	r.add(d)
	assert.Zero(t, d.Mapping.Value)

	r.frame(true)
	require.True(t, r.hand.HoverLocked())

	r.moveTo(physics.Vec3{0.25, 0.3, 0})
	r.frame(true)
	assert.InDelta(t, 0.25, d.Mapping.Value, 1e-9)
	if diff := cmp.Diff(physics.Vec3{0.25, 0, 0}, knob.Position(), approx); diff != "" {
		t.Fatalf("knob position (-want +got):\n%s", diff)
	}

	r.moveTo(physics.Vec3{2, 0, 0})
	r.frame(true)
	assert.InDelta(t, 1.0, d.Mapping.Value, 1e-9, "clamped")

	r.frame(false)
	assert.False(t, r.hand.HoverLocked())
}

func TestLinearDriveIgnoredWhileHolding(t *testing.T) {
	r := newRig(t)
	end := scene.NewNode("end")
	end.SetPosition(physics.Vec3{1, 0, 0})
	d := NewLinearDrive(scene.NewNode("knob"), scene.NewNode("start"), end, nil)
	r.add(d)
	r.hand.Attach(scene.NewNode("held"), interaction.AttachOptions{})

	r.frame(true)
	assert.False(t, r.hand.HoverLocked())
}

func TestLinearDisplacement(t *testing.T) {
	m := &LinearMapping{Value: 0.5}
	n := scene.NewNode("door")
	n.SetLocalPosition(physics.Vec3{1, 0, 0})
	d := NewLinearDisplacement(n, physics.Vec3{0, 2, 0}, m)
	d.Update()
	assert.Equal(t, physics.Vec3{1, 1, 0}, n.LocalPosition())
	m.Value = 0
	d.Update()
	assert.Equal(t, physics.Vec3{1, 0, 0}, n.LocalPosition())
}

func TestHapticRackTeeth(t *testing.T) {
	m := &LinearMapping{}
	rack := NewHapticRack(scene.NewNode("rack"), m, rand.New(rand.NewPCG(1, 2)))
	for _, tc := range []struct {
		value float64
		tooth int
	}{
		{0, 0}, // -0.5 rounds to even
		{0.5 / 128, 0},
		{1.5 / 128, 1},
		{0.5, 64},
		{1, 128},
	} {
		m.Value = tc.value
		assert.Equal(t, tc.tooth, rack.Tooth(), "value %v", tc.value)
	}
}

func TestHapticRackPulsesOnToothChange(t *testing.T) {
	b := bus.New()
	var pulses []bus.Event
	_, err := b.Subscribe(bus.KindPulse, func(ev bus.Event) error {
		pulses = append(pulses, ev)
		return nil
	})
	require.NoError(t, err)

	r := newRig(t)
	m := &LinearMapping{}
	rack := NewHapticRack(scene.NewNode("rack"), m, rand.New(rand.NewPCG(3, 4)))
	rack.Bus = b
	r.add(rack)

	r.frame(true)
	require.Same(t, rack, r.hand.Hovering())

	rack.Update()
	assert.Equal(t, 1, rack.Pulses(), "first update leaves the -1 tooth")
	rack.Update()
	assert.Equal(t, 1, rack.Pulses(), "same tooth")

	m.Value = 0.5
	rack.Update()
	assert.Equal(t, 2, rack.Pulses())
	assert.Equal(t, 2, r.ctrl.Pulses())
	us := int(r.ctrl.LastPulse())
	assert.GreaterOrEqual(t, us, DefaultMinPulseMicro)
	assert.LessOrEqual(t, us, DefaultMaxPulseMicro)
	require.Len(t, pulses, 2)
	assert.Equal(t, 64, pulses[1].Data["tooth"])

	// released button: tooth still advances, no pulse
	r.frame(false)
	m.Value = 0.75
	rack.Update()
	assert.Equal(t, 2, rack.Pulses())
}

func TestHapticRackWithoutHand(t *testing.T) {
	m := &LinearMapping{Value: 0.3}
	rack := NewHapticRack(scene.NewNode("rack"), m, nil)
	rack.Update()
	assert.Zero(t, rack.Pulses())
}

func TestThrowableGrabAndThrow(t *testing.T) {
	r := newRig(t)
	ball := scene.NewNode("ball")
	body := &physics.Rigidbody{Interpolate: true}
	est := &fakeEstimator{v: physics.Vec3{1, 0, 0}, w: physics.Vec3{0, 2, 0}}
	th := NewThrowable(ball, body, est)
	r.add(th)

	r.frame(true)
	require.True(t, th.Attached())
	assert.Same(t, th, r.hand.Current())
	assert.True(t, r.hand.HoverLocked())
	assert.Nil(t, r.hand.Hovering())
	assert.True(t, body.Kinematic)
	assert.False(t, body.Interpolate)
	assert.Equal(t, 1, est.began)

	r.frame(true)
	assert.True(t, th.Attached(), "held while the button stays down")

	r.frame(false)
	assert.False(t, th.Attached())
	assert.Nil(t, r.hand.Current())
	assert.False(t, r.hand.HoverLocked())
	assert.False(t, body.Kinematic)
	assert.True(t, body.Interpolate)
	assert.Equal(t, 1, est.finished)
	assert.Equal(t, physics.Vec3{1, 0, 0}, body.Velocity)
	assert.Equal(t, physics.Vec3{0, 2, 0}, body.AngularVelocity)
}

func TestThrowableCatch(t *testing.T) {
	r := newRig(t)
	r.frame(true) // button already held, nothing in reach

	ball := scene.NewNode("ball")
	ball.SetPosition(physics.Vec3{3, 0, 0})
	body := &physics.Rigidbody{Velocity: physics.Vec3{-5, 0, 0}}
	th := NewThrowable(ball, body, &fakeEstimator{})
	th.CatchSpeed = 2
	r.add(th)

	r.frame(true)
	require.False(t, th.Attached())

	ball.SetPosition(physics.Zero)
	r.frame(true)
	assert.True(t, th.Attached(), "flying ball caught with the button held")
}

func TestThrowableTooSlowToCatch(t *testing.T) {
	r := newRig(t)
	r.frame(true)

	body := &physics.Rigidbody{Velocity: physics.Vec3{0.5, 0, 0}}
	th := NewThrowable(scene.NewNode("ball"), body, &fakeEstimator{})
	th.CatchSpeed = 2
	r.add(th)

	r.frame(true)
	assert.False(t, th.Attached())
	assert.Same(t, th, r.hand.Hovering())
}

func TestItemSpawnerOncePerHover(t *testing.T) {
	r := newRig(t)
	made := 0
	far := physics.Vec3{10, 0, 0}
	sp := NewItemSpawner(scene.NewNode("spawner"), func() interaction.Interactable {
		made++
		n := scene.NewNode("item")
		n.SetPosition(far)
		return n
	}, nil)
	r.add(sp)

	r.frame(false)
	assert.Equal(t, 1, sp.Spawned())
	require.NotNil(t, r.hand.Current())
	assert.Equal(t, "item", r.hand.Current().Node().Name())
	assert.Equal(t, physics.Zero, r.hand.Current().Node().LocalPosition(), "snapped")

	r.frame(false)
	assert.Equal(t, 1, sp.Spawned(), "still hovering")

	r.moveTo(far.Mul(3))
	r.frame(false)
	r.moveTo(physics.Zero)
	r.frame(false)
	assert.Equal(t, 2, sp.Spawned(), "hover ended and began again")
	assert.Equal(t, 2, made)
	assert.Len(t, r.hand.AttachedObjects(), 2, "does not detach others")
}

func TestItemSpawnerRequiresTrigger(t *testing.T) {
	b := bus.New()
	var spawns []bus.Event
	_, err := b.Subscribe(bus.KindSpawn, func(ev bus.Event) error {
		spawns = append(spawns, ev)
		return nil
	})
	require.NoError(t, err)

	r := newRig(t)
	sp := NewItemSpawner(scene.NewNode("spawner"), func() interaction.Interactable {
		n := scene.NewNode("item")
		n.SetPosition(physics.Vec3{10, 0, 0})
		return n
	}, nil)
	sp.RequireTriggerPress = true
	sp.Bus = b
	r.add(sp)

	r.frame(false)
	assert.Zero(t, sp.Spawned())
	r.frame(true)
	assert.Equal(t, 1, sp.Spawned())
	require.Len(t, spawns, 1)
	assert.Equal(t, "item", spawns[0].Object)
	assert.Equal(t, "right", spawns[0].Hand)
}

func TestButtonEvents(t *testing.T) {
	r := newRig(t)
	ev := NewButtonEvents(scene.NewNode("panel"))
	var got []string
	rec := func(s string) func() { return func() { got = append(got, s) } }
	ev.OnTriggerDown = rec("triggerDown")
	ev.OnTriggerUp = rec("triggerUp")
	ev.OnGripDown = rec("gripDown")
	ev.OnTouchpadTouch = rec("padTouch")
	ev.OnTouchpadRelease = rec("padRelease")
	r.add(ev)

	r.st.Press[input.Trigger] = true
	r.st.Press[input.Grip] = true
	r.st.Touch[input.Touchpad] = true
	r.frame(false)
	r.st.Press[input.Trigger] = false
	r.st.Touch[input.Touchpad] = false
	r.frame(false)

	assert.Equal(t, []string{"triggerDown", "gripDown", "padTouch", "triggerUp", "padRelease"}, got)
}

func TestButtonEventsWithoutController(t *testing.T) {
	grid := spatial.NewGrid[interaction.Interactable](0)
	h, err := interaction.NewHand(scene.NewNode("h"), grid, interaction.DefaultConfig())
	require.NoError(t, err)
	ev := NewButtonEvents(scene.NewNode("panel"))
	ev.OnTriggerDown = func() { t.Fatal("no controller") }
	grid.Insert(ev, ev.Node(), 0.05, spatial.AllLayers)
	h.UpdateHovering()
	h.Update()
}

func TestHoverEvents(t *testing.T) {
	r := newRig(t)
	ev := NewHoverEvents(scene.NewNode("sign"))
	begins, ends := 0, 0
	ev.OnHoverBegin = func() { begins++ }
	ev.OnHoverEnd = func() { ends++ }
	r.add(ev)

	r.frame(false)
	r.moveTo(physics.Vec3{5, 0, 0})
	r.frame(false)
	assert.Equal(t, 1, begins)
	assert.Equal(t, 1, ends)
}

func TestToggleGrab(t *testing.T) {
	r := newRig(t)
	n := scene.NewNode("cube")
	n.SetRotation(mgl64.QuatRotate(0.3, physics.Up))
	g := NewToggleGrab(n)
	r.add(g)
	home := n.Pose()
	assert.Equal(t, labelIdle, g.Label())

	r.frame(false)
	assert.Equal(t, "Hovering hand: right", g.Label())

	r.frame(true)
	require.Same(t, g, r.hand.Current())
	assert.True(t, r.hand.HoverLocked())
	assert.Same(t, g, r.hand.Hovering())
	assert.Equal(t, "Attached to hand: right", g.Label())

	r.moveTo(physics.Vec3{0, 1, 0})
	r.frame(false)
	r.frame(true)
	assert.Nil(t, r.hand.Current())
	assert.False(t, r.hand.HoverLocked())
	assert.Equal(t, "Detached from hand: right", g.Label())
	if diff := cmp.Diff(home.Position, n.Position(), approx); diff != "" {
		t.Fatalf("restored position (-want +got):\n%s", diff)
	}
}

func TestToggleGrabWithGrip(t *testing.T) {
	r := newRig(t)
	g := NewToggleGrab(scene.NewNode("cube"))
	r.add(g)
	r.st.Press[input.Grip] = true
	r.frame(false)
	assert.Same(t, g, r.hand.Current())
}

func TestFollower(t *testing.T) {
	target := scene.NewNode("controller")
	target.SetPosition(physics.Vec3{1, 2, 3})
	n := scene.NewNode("model")
	f := NewFollower(n, target)
	f.Update()

	assert.Equal(t, physics.Vec3{1, 2, 3}, n.Position())
	if diff := cmp.Diff(physics.Vec3{0, -1, 0}, n.Forward(), approx); diff != "" {
		t.Fatalf("forward tilts down (-want +got):\n%s", diff)
	}

	NewFollower(n, nil).Update()
	assert.Equal(t, physics.Vec3{1, 2, 3}, n.Position())
}

func TestGUIElementSubmit(t *testing.T) {
	b := bus.New()
	var submits []bus.Event
	_, err := b.Subscribe(bus.KindSubmit, func(ev bus.Event) error {
		submits = append(submits, ev)
		return nil
	})
	require.NoError(t, err)

	r := newRig(t)
	var log []string
	mod := &UIModule{
		OnPointerEnter: func(el *GUIElement) { log = append(log, "enter:"+el.Node().Name()) },
		OnPointerExit:  func(el *GUIElement) { log = append(log, "exit:"+el.Node().Name()) },
		Bus:            b,
	}
	el := NewGUIElement(scene.NewNode("button"), mod)
	clicks := 0
	el.OnSubmit = func() { clicks++ }
	r.add(el)

	r.frame(false)
	mod.Process()
	assert.Zero(t, clicks)

	r.frame(true)
	mod.Process()
	mod.Process()
	assert.Equal(t, 1, clicks, "submit delivered once")
	require.Len(t, submits, 1)
	assert.Equal(t, "button", submits[0].Object)

	r.moveTo(physics.Vec3{5, 0, 0})
	r.frame(false)
	assert.Equal(t, []string{"enter:button", "exit:button"}, log)
}
