package server

import (
	"fmt"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/vrkit/internal/config"
	"github.com/zeusync/vrkit/internal/core/events/bus"
	"github.com/zeusync/vrkit/internal/core/input"
	"github.com/zeusync/vrkit/internal/core/interaction"
	"github.com/zeusync/vrkit/internal/core/loop"
	"github.com/zeusync/vrkit/internal/core/motion"
	"github.com/zeusync/vrkit/internal/core/observability/log"
	"github.com/zeusync/vrkit/internal/core/player"
	"github.com/zeusync/vrkit/internal/core/scene"
	"github.com/zeusync/vrkit/internal/core/spatial"
	"github.com/zeusync/vrkit/internal/core/systems/physics"
	"github.com/zeusync/vrkit/internal/core/widgets"
)

const (
	ballRadius   = 0.04
	knobRadius   = 0.03
	itemRadius   = 0.03
	buttonRadius = 0.05
	gravity      = -9.81
)

// Layers the world registers colliders on.
var (
	layerProps = spatial.Layer(0)
	layerUI    = spatial.Layer(5)
)

// slider is one object carrying a drive and a haptic rack, so both hear
// the hand that hovers it.
type slider struct {
	*widgets.LinearDrive
	rack *widgets.HapticRack
}

func (s slider) OnHandHoverBegin(h *interaction.Hand) { s.rack.OnHandHoverBegin(h) }

func (s slider) OnHandHoverEnd(h *interaction.Hand) { s.rack.OnHandHoverEnd(h) }

type world struct {
	root   *scene.Node
	grid   *spatial.Grid[interaction.Interactable]
	player *player.Player

	left, right         *interaction.Hand
	leftCtrl, rightCtrl *input.Controller
	model               *widgets.Follower

	ballNode  *scene.Node
	ballBody  *physics.Rigidbody
	ball      *widgets.Throwable
	estimator *motion.Estimator

	mapping *widgets.LinearMapping
	slider  slider
	door    *widgets.LinearDisplacement
	spawner *widgets.ItemSpawner

	ui   *widgets.UIModule
	menu *widgets.GUIElement
}

func buildWorld(cfg config.Config, sched *loop.Scheduler, events bus.EventBus, logger log.Log) (*world, error) {
	w := &world{
		root: scene.NewNode("world"),
		grid: spatial.NewGrid[interaction.Interactable](0),
	}

	origin := scene.NewChild(w.root, "origin", physics.Zero)
	rig := scene.NewChild(origin, "vr", physics.Zero)
	hmd := scene.NewChild(rig, "hmd", physics.Vec3{0, 1.6, 0})
	listener := scene.NewChild(w.root, "listener", physics.Zero)

	handCfg := interaction.DefaultConfig()
	handCfg.HoverRadius = cfg.Hand.HoverRadius
	handCfg.HoverInterval = cfg.Hand.HoverInterval
	handCfg.HoverPoint = cfg.Hand.HoverPoint
	handCfg.AttachmentPoints = cfg.Hand.AttachmentPoints

	w.leftCtrl = input.NewController(1, nil)
	w.rightCtrl = input.NewController(2, nil)
	var err error
	if w.left, err = newHand(rig, "left", w.grid, handCfg, w.leftCtrl, hmd, events, sched, logger); err != nil {
		return nil, err
	}
	if w.right, err = newHand(rig, "right", w.grid, handCfg, w.rightCtrl, hmd, events, sched, logger); err != nil {
		return nil, err
	}
	interaction.Pair(w.left, w.right)

	w.player, err = player.New(player.Rig{
		Origin:        origin,
		HMDs:          []*scene.Node{hmd},
		Hands:         []*interaction.Hand{w.left, w.right},
		VR:            rig,
		AudioListener: listener,
	}, logger)
	if err != nil {
		return nil, err
	}
	w.player.ActivateRig(true)
	w.model = widgets.NewFollower(scene.NewChild(w.root, "right_model", physics.Zero), w.rightCtrl)

	// ball
	w.ballNode = scene.NewChild(w.root, "ball", ballStart)
	// resting on its stand until thrown
	w.ballBody = &physics.Rigidbody{Kinematic: true, Interpolate: true}
	w.estimator, err = motion.New(w.ballNode, sched, cfg.Motion.LinearSamples, cfg.Motion.AngularSamples, logger)
	if err != nil {
		return nil, fmt.Errorf("server: ball estimator: %w", err)
	}
	w.ball = widgets.NewThrowable(w.ballNode, w.ballBody, w.estimator)
	w.ball.CatchSpeed = 2
	w.grid.Insert(w.ball, w.ballNode, ballRadius, layerProps)

	// slider with a door it opens
	w.mapping = &widgets.LinearMapping{}
	start := scene.NewChild(w.root, "slider_start", sliderStart)
	end := scene.NewChild(w.root, "slider_end", sliderEnd)
	knob := scene.NewChild(w.root, "slider", sliderStart)
	rack := widgets.NewHapticRack(knob, w.mapping, rand.New(rand.NewPCG(cfg.Simulation.Seed, cfg.Simulation.Seed^0x9e3779b97f4a7c15)))
	rack.Bus = events
	rack.Logger = logger
	w.slider = slider{LinearDrive: widgets.NewLinearDrive(knob, start, end, w.mapping), rack: rack}
	w.slider.Start()
	w.grid.Insert(w.slider, knob, knobRadius, layerProps)
	w.door = widgets.NewLinearDisplacement(scene.NewChild(w.root, "door", physics.Vec3{-1, 0, 1}), physics.Vec3{0, 2, 0}, w.mapping)

	// spawner
	spawned := 0
	w.spawner = widgets.NewItemSpawner(scene.NewChild(w.root, "spawner", spawnerAt), func() interaction.Interactable {
		spawned++
		item := scene.NewChild(w.root, fmt.Sprintf("item-%d", spawned), spawnerAt)
		w.grid.Insert(item, item, itemRadius, layerProps)
		return item
	}, logger)
	w.spawner.Bus = events
	w.grid.Insert(w.spawner, w.spawner.Node(), itemRadius, layerProps)

	// menu
	w.ui = &widgets.UIModule{Bus: events, Logger: logger}
	w.menu = widgets.NewGUIElement(scene.NewChild(w.root, "menu", menuAt), w.ui)
	w.grid.Insert(w.menu, w.menu.Node(), buttonRadius, layerUI)

	return w, nil
}

func newHand(
	rig *scene.Node,
	name string,
	grid *spatial.Grid[interaction.Interactable],
	cfg interaction.Config,
	ctrl *input.Controller,
	hmd *scene.Node,
	events bus.EventBus,
	sched *loop.Scheduler,
	logger log.Log,
) (*interaction.Hand, error) {
	node := scene.NewChild(rig, name, physics.Zero)
	if cfg.HoverPoint != "" {
		scene.NewChild(node, cfg.HoverPoint, physics.Zero)
	}
	for _, p := range cfg.AttachmentPoints {
		scene.NewChild(node, p, physics.Zero)
	}
	h, err := interaction.NewHand(node, grid, cfg,
		interaction.WithController(ctrl),
		interaction.WithHMD(hmd),
		interaction.WithBus(events),
		interaction.WithClock(sched),
		interaction.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	return h, nil
}

// drive applies a scripted controller state and moves the hand onto it.
func drive(h *interaction.Hand, ctrl *input.Controller, tr Track, t float64) {
	pos, trigger := tr.Sample(t)
	var st input.State
	st.Connected = true
	st.Pose = physics.Pose{Position: pos, Rotation: mgl64.QuatIdent()}
	st.Touch[input.Trigger] = trigger
	st.Press[input.Trigger] = trigger
	ctrl.Update(st)
	h.Node().SetPose(ctrl.Pose())
}

// integrateBall moves a free ball under gravity and rests it on the floor.
func (w *world) integrateBall(dt float64) {
	b := w.ballBody
	if b.Kinematic || w.ballNode.Parent() != w.root {
		return
	}
	p := w.ballNode.Position()
	if p[1] <= ballRadius && b.Velocity[1] <= 0 {
		b.Velocity = physics.Zero
		b.AngularVelocity = physics.Zero
		return
	}
	b.Velocity[1] += gravity * dt
	p = p.Add(b.Velocity.Mul(dt))
	if p[1] < ballRadius {
		p[1] = ballRadius
	}
	w.ballNode.SetPosition(p)
}
