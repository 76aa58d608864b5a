package motion

import (
	"errors"
	"fmt"

	"github.com/zeusync/vrkit/internal/core/loop"
	"github.com/zeusync/vrkit/internal/core/observability/log"
	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

const (
	DefaultLinearSamples  = 5
	DefaultAngularSamples = 11

	// RecommendedFixedDelta is the largest fixed step that still gives usable
	// release velocities for hand-held objects.
	RecommendedFixedDelta = 0.012
)

var (
	ErrInvalidCapacity = errors.New("sample capacity must be positive")
	ErrNilSource       = errors.New("pose source is nil")
	ErrNilScheduler    = errors.New("fixed scheduler is nil")
)

// FixedScheduler runs callbacks once per fixed simulation tick.
type FixedScheduler interface {
	ScheduleFixed(fn func(dt float64)) *loop.Handle
	FixedDelta() float64
}

var _ FixedScheduler = (*loop.Scheduler)(nil)

// Estimator samples a pose source every fixed tick while active and keeps the
// most recent linear and angular velocity samples in two ring buffers.
type Estimator struct {
	source physics.PoseSource
	sched  FixedScheduler
	logger log.Log

	linear  []physics.Vec3
	angular []physics.Vec3

	sampleCount int
	previous    physics.Pose
	task        *loop.Handle
}

// New creates an idle estimator. Capacities are the number of trailing
// samples averaged for velocity and angular velocity respectively.
func New(source physics.PoseSource, sched FixedScheduler, linearCap, angularCap int, logger log.Log) (*Estimator, error) {
	if linearCap <= 0 || angularCap <= 0 {
		return nil, fmt.Errorf("motion: %w: linear=%d angular=%d", ErrInvalidCapacity, linearCap, angularCap)
	}
	if source == nil {
		return nil, fmt.Errorf("motion: %w", ErrNilSource)
	}
	if sched == nil {
		return nil, fmt.Errorf("motion: %w", ErrNilScheduler)
	}

	e := &Estimator{
		source:  source,
		sched:   sched,
		logger:  log.OrNop(logger).Named("motion"),
		linear:  make([]physics.Vec3, linearCap),
		angular: make([]physics.Vec3, angularCap),
	}
	if dt := sched.FixedDelta(); dt > RecommendedFixedDelta {
		e.logger.Warn("fixed delta exceeds recommendation for VR physics interactions",
			log.Float64("fixed_delta", dt), log.Float64("recommended", RecommendedFixedDelta))
	}
	return e, nil
}

// Begin starts a new sampling run, finishing any run in progress. The first
// sample is written on the next fixed tick.
func (e *Estimator) Begin() {
	e.Finish()

	e.sampleCount = 0
	e.previous = e.source.Pose()
	e.task = e.sched.ScheduleFixed(e.sample)
}

// Finish stops sampling. Buffers keep their contents for later reads.
// Finish is a no-op while idle.
func (e *Estimator) Finish() {
	if e.task == nil {
		return
	}
	e.task.Cancel()
	e.task = nil
}

// Sampling reports whether a sampling run is active.
func (e *Estimator) Sampling() bool { return e.task.Active() }

// SampleCount is the number of samples written in the current or last run.
func (e *Estimator) SampleCount() int { return e.sampleCount }

func (e *Estimator) sample(dt float64) {
	cur := e.source.Pose()

	v := e.sampleCount % len(e.linear)
	w := e.sampleCount % len(e.angular)

	e.linear[v] = cur.Position.Sub(e.previous.Position).Mul(1 / dt)

	delta := cur.Rotation.Mul(e.previous.Rotation.Inverse())
	angle, axis := physics.ToAngleAxis(delta)
	e.angular[w] = axis.Mul(angle / dt)

	e.sampleCount++
	e.previous = cur
}

// Velocity is the mean of the valid linear samples, or zero before the
// first sample.
func (e *Estimator) Velocity() physics.Vec3 {
	return mean(e.linear, e.sampleCount)
}

// AngularVelocity is the mean of the valid angular samples in radians per
// second, or zero before the first sample.
func (e *Estimator) AngularVelocity() physics.Vec3 {
	return mean(e.angular, e.sampleCount)
}

// Acceleration sums consecutive linear sample differences across the valid
// window and scales the sum by one fixed tick. The result is not divided by
// the window size.
func (e *Estimator) Acceleration() physics.Vec3 {
	dt := e.sched.FixedDelta()
	if dt <= 0 {
		return physics.Zero
	}

	n := len(e.linear)
	var sum physics.Vec3
	for i := 2 + e.sampleCount - n; i < e.sampleCount; i++ {
		if i < 2 {
			continue
		}
		v1 := e.linear[(i-2)%n]
		v2 := e.linear[(i-1)%n]
		sum = sum.Add(v2.Sub(v1))
	}
	return sum.Mul(1 / dt)
}

func mean(samples []physics.Vec3, count int) physics.Vec3 {
	n := min(count, len(samples))
	if n == 0 {
		return physics.Zero
	}
	var sum physics.Vec3
	for _, s := range samples[:n] {
		sum = sum.Add(s)
	}
	return sum.Mul(1 / float64(n))
}
