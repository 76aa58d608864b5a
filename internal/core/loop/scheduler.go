package loop

import (
	"errors"
	"fmt"
	"math"

	"github.com/zeusync/vrkit/internal/core/observability/log"
)

// ErrInvalidFixedDelta is returned when the fixed step is not a positive
// finite number of seconds.
var ErrInvalidFixedDelta = errors.New("fixed delta must be positive")

// maxTicksPerStep bounds catch-up work after a long frame.
const maxTicksPerStep = 8

// TaskKind says which step drives a task.
type TaskKind uint8

const (
	KindFixed TaskKind = iota
	KindFrame
	KindRepeating
)

func (k TaskKind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindFrame:
		return "frame"
	case KindRepeating:
		return "repeating"
	default:
		return "unknown"
	}
}

// Handle identifies a scheduled task. Cancel is immediate and idempotent.
type Handle struct {
	kind      TaskKind
	cancelled bool

	fixed func(dt float64)
	frame func(dt float64)
	fn    func()

	next     float64
	interval float64
}

// Cancel stops the task. A task cancelled from inside another task of the
// same step does not run for the rest of that step.
func (h *Handle) Cancel() {
	if h != nil {
		h.cancelled = true
	}
}

// Active reports whether the task is still scheduled.
func (h *Handle) Active() bool {
	return h != nil && !h.cancelled
}

func (h *Handle) Kind() TaskKind { return h.kind }

// Scheduler is a single-threaded cooperative game loop. Each Step advances
// game time by a variable frame delta and runs, in order: due fixed ticks,
// due repeating invocations, then frame callbacks. Tasks run to completion;
// nothing here is safe for concurrent use.
type Scheduler struct {
	fixedDelta  float64
	accumulator float64
	now         float64

	fixed     []*Handle
	repeating []*Handle
	frame     []*Handle

	frames uint64
	ticks  uint64

	logger log.Log
}

// New creates a scheduler with the given fixed step in seconds.
func New(fixedDelta float64, logger log.Log) (*Scheduler, error) {
	if fixedDelta <= 0 || math.IsNaN(fixedDelta) || math.IsInf(fixedDelta, 0) {
		return nil, fmt.Errorf("loop: %w: %v", ErrInvalidFixedDelta, fixedDelta)
	}
	return &Scheduler{
		fixedDelta: fixedDelta,
		logger:     log.OrNop(logger).Named("loop"),
	}, nil
}

func (s *Scheduler) FixedDelta() float64 { return s.fixedDelta }

// Now is the elapsed game time in seconds.
func (s *Scheduler) Now() float64 { return s.now }

func (s *Scheduler) Frames() uint64 { return s.frames }

// Ticks is the number of fixed ticks run so far.
func (s *Scheduler) Ticks() uint64 { return s.ticks }

// ScheduleFixed runs fn once per fixed tick, starting with the next tick.
func (s *Scheduler) ScheduleFixed(fn func(dt float64)) *Handle {
	h := &Handle{kind: KindFixed, fixed: fn}
	s.fixed = append(s.fixed, h)
	return h
}

// OnFrame runs fn once per Step with the frame delta.
func (s *Scheduler) OnFrame(fn func(dt float64)) *Handle {
	h := &Handle{kind: KindFrame, frame: fn}
	s.frame = append(s.frame, h)
	return h
}

// InvokeRepeating runs fn first after delay seconds, then every interval
// seconds of game time. Several invocations may fall into one long step.
func (s *Scheduler) InvokeRepeating(fn func(), delay, interval float64) *Handle {
	if interval <= 0 {
		interval = s.fixedDelta
	}
	h := &Handle{kind: KindRepeating, fn: fn, next: s.now + math.Max(delay, 0), interval: interval}
	s.repeating = append(s.repeating, h)
	return h
}

// Step advances the loop by dt seconds of frame time.
func (s *Scheduler) Step(dt float64) {
	if dt < 0 || math.IsNaN(dt) {
		dt = 0
	}
	s.frames++
	s.accumulator += dt

	ticks := 0
	for s.accumulator >= s.fixedDelta {
		if ticks == maxTicksPerStep {
			s.logger.Warn("dropping fixed ticks after long frame",
				log.Float64("frame_delta", dt), log.Float64("backlog", s.accumulator))
			s.accumulator = 0
			break
		}
		s.accumulator -= s.fixedDelta
		s.tick()
		ticks++
	}

	s.now += dt
	s.runRepeating()

	for _, h := range snapshot(s.frame) {
		if h.Active() {
			h.frame(dt)
		}
	}
	s.frame = compact(s.frame)
}

// Tick runs exactly one fixed tick without touching frame time. Hosts that
// own their own fixed-rate clock drive the scheduler through Tick.
func (s *Scheduler) Tick() {
	s.tick()
}

func (s *Scheduler) tick() {
	s.ticks++
	for _, h := range snapshot(s.fixed) {
		if h.Active() {
			h.fixed(s.fixedDelta)
		}
	}
	s.fixed = compact(s.fixed)
}

func (s *Scheduler) runRepeating() {
	for _, h := range snapshot(s.repeating) {
		for h.Active() && h.next <= s.now {
			h.next += h.interval
			h.fn()
		}
	}
	s.repeating = compact(s.repeating)
}

// Pending counts live tasks of a kind.
func (s *Scheduler) Pending(kind TaskKind) int {
	var list []*Handle
	switch kind {
	case KindFixed:
		list = s.fixed
	case KindFrame:
		list = s.frame
	case KindRepeating:
		list = s.repeating
	}
	n := 0
	for _, h := range list {
		if h.Active() {
			n++
		}
	}
	return n
}

func snapshot(in []*Handle) []*Handle {
	out := make([]*Handle, len(in))
	copy(out, in)
	return out
}

func compact(in []*Handle) []*Handle {
	out := in[:0]
	for _, h := range in {
		if h.Active() {
			out = append(out, h)
		}
	}
	clear(in[len(out):])
	return out
}
