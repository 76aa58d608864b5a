// Package server runs a scripted hand interaction session against the core
// and reports what happened.
package server

import (
	"context"
	"fmt"
	"maps"
	"sync/atomic"
	"time"

	"github.com/zeusync/vrkit/internal/config"
	"github.com/zeusync/vrkit/internal/core/events/bus"
	"github.com/zeusync/vrkit/internal/core/interaction"
	"github.com/zeusync/vrkit/internal/core/loop"
	"github.com/zeusync/vrkit/internal/core/observability/log"
	"github.com/zeusync/vrkit/internal/core/system"
	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

// StatusPublisher receives hand snapshots, typically the websocket feed.
type StatusPublisher interface {
	Publish(hands []interaction.HandStatus) error
}

// Report summarises a finished session.
type Report struct {
	Frames        uint64                   `json:"frames"`
	Ticks         uint64                   `json:"ticks"`
	SimulatedTime float64                  `json:"simulated_time"`
	Release       physics.Vec3             `json:"release_velocity"`
	BallPosition  physics.Vec3             `json:"ball_position"`
	SliderValue   float64                  `json:"slider_value"`
	HapticPulses  int                      `json:"haptic_pulses"`
	Spawned       int                      `json:"spawned"`
	Submits       int                      `json:"submits"`
	Events        map[bus.Kind]int         `json:"events"`
	Hands         []interaction.HandStatus `json:"hands"`
	Systems       []string                 `json:"systems"`
}

// Server owns one simulated session. It is driven from the goroutine that
// calls Run; only snapshots leave that goroutine.
type Server struct {
	cfg       config.Config
	logger    log.Log
	sched     *loop.Scheduler
	systems   *system.Manager
	bus       bus.EventBus
	world     *world
	script    Script
	publisher StatusPublisher

	events  map[bus.Kind]int
	release physics.Vec3
	submits int

	running  atomic.Bool
	finished atomic.Bool
}

// Option customises a Server.
type Option func(*Server)

// WithScript replaces the default session.
func WithScript(s Script) Option {
	return func(srv *Server) { srv.script = s }
}

// WithPublisher streams hand status at the hover interval. A nil publisher
// is ignored.
func WithPublisher(p StatusPublisher) Option {
	return func(srv *Server) { srv.publisher = p }
}

// New builds the scene, hands and widgets for cfg.
func New(cfg config.Config, logger log.Log, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	logger = log.OrNop(logger)

	sched, err := loop.New(cfg.Simulation.FixedDelta, logger)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger.Named("server"),
		sched:   sched,
		systems: system.NewManager(logger),
		bus:     bus.New(),
		script:  DefaultScript(),
		events:  make(map[bus.Kind]int),
	}
	if path := cfg.Simulation.Script; path != "" {
		if s.script, err = LoadScript(path); err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
	}
	for _, opt := range opts {
		opt(s)
	}

	if err = s.script.Validate(); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	if s.world, err = buildWorld(cfg, sched, s.bus, logger); err != nil {
		return nil, err
	}
	s.world.menu.OnSubmit = func() { s.submits++ }

	if _, err = s.bus.SubscribeAll(s.onEvent); err != nil {
		return nil, fmt.Errorf("server: subscribe: %w", err)
	}
	if err = s.schedule(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) onEvent(ev bus.Event) error {
	s.events[ev.Kind]++
	if ev.Kind == bus.KindDetach && ev.Object == s.world.ballNode.Name() {
		s.release = s.world.ballBody.Velocity
	}
	s.logger.Debug("interaction event",
		log.String("kind", string(ev.Kind)),
		log.String("hand", ev.Hand),
		log.String("object", ev.Object),
		log.Uint64("frame", ev.Frame),
	)
	return nil
}

func (s *Server) schedule() error {
	w := s.world
	w.left.Enable(s.sched)
	w.right.Enable(s.sched)
	s.sched.ScheduleFixed(w.integrateBall)

	systems := []struct {
		phase  system.Phase
		name   string
		update func()
	}{
		{system.PhaseInput, "hand.left", w.left.Update},
		{system.PhaseInput, "hand.right", w.right.Update},
		{system.PhaseUpdate, "controller_model", w.model.Update},
		{system.PhaseUpdate, "slider_haptics", w.slider.rack.Update},
		{system.PhaseLate, "door", w.door.Update},
		{system.PhaseLate, "ui", w.ui.Process},
	}
	for _, sys := range systems {
		update := sys.update
		if err := s.systems.Register(sys.phase, system.Func(sys.name, func(float64) { update() })); err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}
	s.sched.OnFrame(s.systems.Update)

	if s.publisher != nil {
		s.sched.InvokeRepeating(s.publishStatus, 0, s.cfg.Hand.HoverInterval)
	}
	return nil
}

func (s *Server) publishStatus() {
	if err := s.publisher.Publish(s.Status()); err != nil {
		s.logger.Warn("status publish failed", log.Error(err))
	}
}

// Status snapshots both hands.
func (s *Server) Status() []interaction.HandStatus {
	return []interaction.HandStatus{s.world.left.Status(), s.world.right.Status()}
}

// Run plays the configured number of frames. With realtime pacing each
// frame waits for the wall clock. Cancelling ctx stops the session and
// returns the report so far with the context error. A server runs once.
func (s *Server) Run(ctx context.Context) (Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Report{}, fmt.Errorf("server: %w", ErrAlreadyRunning)
	}
	defer s.running.Store(false)
	if !s.finished.CompareAndSwap(false, true) {
		return Report{}, fmt.Errorf("server: %w", ErrFinished)
	}

	frames := s.cfg.Simulation.Frames
	dt := s.cfg.Simulation.FrameDelta
	s.logger.Info("session started", log.Int("frames", frames), log.Float64("frame_delta", dt))

	var tick <-chan time.Time
	if s.cfg.Simulation.Realtime {
		t := time.NewTicker(time.Duration(dt * float64(time.Second)))
		defer t.Stop()
		tick = t.C
	}

	for i := 0; i < frames; i++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return s.report(), ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return s.report(), err
		}
		s.Frame(dt)
	}

	r := s.report()
	s.logger.Info("session finished",
		log.Uint64("frames", r.Frames),
		log.Float64("slider", r.SliderValue),
		log.Vec3("release_velocity", r.Release),
		log.Int("pulses", r.HapticPulses),
	)
	return r, nil
}

// Frame advances the session by one frame of dt seconds.
func (s *Server) Frame(dt float64) {
	w := s.world
	t := s.sched.Now()
	drive(w.left, w.leftCtrl, s.script.Left, t)
	drive(w.right, w.rightCtrl, s.script.Right, t)
	w.grid.Rebuild()
	s.sched.Step(dt)
}

func (s *Server) report() Report {
	w := s.world
	return Report{
		Frames:        s.sched.Frames(),
		Ticks:         s.sched.Ticks(),
		SimulatedTime: s.sched.Now(),
		Release:       s.release,
		BallPosition:  w.ballNode.Position(),
		SliderValue:   w.mapping.Value,
		HapticPulses:  w.slider.rack.Pulses(),
		Spawned:       w.spawner.Spawned(),
		Submits:       s.submits,
		Events:        maps.Clone(s.events),
		Hands:         s.Status(),
		Systems:       s.systems.ExecutionOrder(),
	}
}
