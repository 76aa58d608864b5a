package interaction

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/zeusync/vrkit/internal/core/events/bus"
	"github.com/zeusync/vrkit/internal/core/input"
	"github.com/zeusync/vrkit/internal/core/loop"
	"github.com/zeusync/vrkit/internal/core/observability/log"
	"github.com/zeusync/vrkit/internal/core/scene"
	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

var (
	ErrInvalidNode = errors.New("hand node is nil or destroyed")
	ErrNoOverlap   = errors.New("overlap query is nil")
)

// handSeq orders hand creation; the later hand of a pair takes the second
// half of the hover interval.
var handSeq atomic.Uint64

// Repeater runs a callback on a fixed game-time period.
type Repeater interface {
	InvokeRepeating(fn func(), delay, interval float64) *loop.Handle
}

// FrameCounter stamps published events.
type FrameCounter interface {
	Frames() uint64
}

var (
	_ Repeater     = (*loop.Scheduler)(nil)
	_ FrameCounter = (*loop.Scheduler)(nil)
)

// AttachedObject is one entry of a hand's attachment stack.
type AttachedObject struct {
	Object         Interactable
	OriginalParent *scene.Node
}

// Hand hovers one interactable at a time and holds a stack of attached
// objects, the top of which is the current object. Two hands may be paired;
// an object is never on both stacks and both hands never hover the same
// interactable.
//
// Hand is driven from the single game loop thread and is not safe for
// concurrent use.
type Hand struct {
	seq  uint64
	cfg  Config
	node *scene.Node

	hoverPoint   *scene.Node
	attachPoints map[string]*scene.Node
	overlap      Overlapper
	other        *Hand

	hoverLocked bool
	hovering    Interactable
	attached    []AttachedObject

	controller *input.Controller
	hmd        physics.PoseSource
	fallback   *fallback

	bus    bus.EventBus
	clock  FrameCounter
	logger log.Log

	hoverTask *loop.Handle
}

// Option configures a Hand.
type Option func(*Hand)

// WithController links a tracked controller.
func WithController(c *input.Controller) Option {
	return func(h *Hand) { h.controller = c }
}

// WithHMD sets the head pose used to guess left from right.
func WithHMD(hmd physics.PoseSource) Option {
	return func(h *Hand) { h.hmd = hmd }
}

// WithBus publishes every notification on b as well.
func WithBus(b bus.EventBus) Option {
	return func(h *Hand) { h.bus = b }
}

// WithClock stamps published events with the frame count of c.
func WithClock(c FrameCounter) Option {
	return func(h *Hand) { h.clock = c }
}

func WithLogger(l log.Log) Option {
	return func(h *Hand) { h.logger = l }
}

// NewHand creates a hand following node. Hover and attachment points named in
// cfg are resolved now; missing ones fall back to node.
func NewHand(node *scene.Node, overlap Overlapper, cfg Config, opts ...Option) (*Hand, error) {
	if !node.Valid() {
		return nil, fmt.Errorf("interaction: %w", ErrInvalidNode)
	}
	if overlap == nil {
		return nil, fmt.Errorf("interaction: %w", ErrNoOverlap)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("interaction: hand %s: %w", node.Name(), err)
	}

	h := &Hand{
		seq:          handSeq.Add(1),
		cfg:          cfg,
		node:         node,
		hoverPoint:   node,
		attachPoints: make(map[string]*scene.Node, len(cfg.AttachmentPoints)),
		overlap:      overlap,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = log.OrNop(h.logger).Named("hand").With(log.String("hand", node.Name()))

	if cfg.HoverPoint != "" {
		if p := node.Find(cfg.HoverPoint); p != nil {
			h.hoverPoint = p
		} else {
			h.logger.Warn("hover point not found, using hand node", log.String("point", cfg.HoverPoint))
		}
	}
	for _, name := range cfg.AttachmentPoints {
		p := node.Find(name)
		if p == nil {
			h.logger.Warn("attachment point not found, using hand node", log.String("point", name))
			continue
		}
		h.attachPoints[name] = p
	}
	return h, nil
}

// Pair links two hands as each other's other hand. Nil unpairs a.
func Pair(a, b *Hand) {
	if a == nil {
		return
	}
	unlink(a)
	unlink(b)
	a.other = b
	if b != nil {
		b.other = a
	}
}

func unlink(h *Hand) {
	if h == nil || h.other == nil {
		return
	}
	if h.other.other == h {
		h.other.other = nil
	}
	h.other = nil
}

func (h *Hand) Name() string { return h.node.Name() }

func (h *Hand) String() string { return h.node.Name() }

// Node is the hand's own transform.
func (h *Hand) Node() *scene.Node { return h.node }

// Position is the world position of the hand node.
func (h *Hand) Position() physics.Vec3 { return h.node.Position() }

// HoverPoint is the node the hover sphere is centred on.
func (h *Hand) HoverPoint() *scene.Node { return h.hoverPoint }

func (h *Hand) OtherHand() *Hand { return h.other }

func (h *Hand) Controller() *input.Controller { return h.controller }

// SetController links a controller after construction, as hosts do once a
// device shows up.
func (h *Hand) SetController(c *input.Controller) { h.controller = c }

func (h *Hand) Config() Config { return h.cfg }

// Enable starts periodic hover resolution on r. When the paired hand was
// created first this hand starts half an interval later, so the two never
// resolve in the same step.
func (h *Hand) Enable(r Repeater) {
	h.Disable()
	delay := 0.0
	if h.other != nil && h.other.seq < h.seq {
		delay = 0.5 * h.cfg.HoverInterval
	}
	h.hoverTask = r.InvokeRepeating(h.UpdateHovering, delay, h.cfg.HoverInterval)
	h.logger.Debug("hover resolution enabled",
		log.Float64("delay", delay), log.Float64("interval", h.cfg.HoverInterval))
}

// Disable stops periodic hover resolution. Safe to call repeatedly.
func (h *Hand) Disable() {
	h.hoverTask.Cancel()
	h.hoverTask = nil
}

// Enabled reports whether hover resolution is scheduled.
func (h *Hand) Enabled() bool { return h.hoverTask.Active() }

// Update delivers the per-frame notifications: fallback positioning first,
// then the hover update to the hovered interactable, then the attached
// update to the current object.
func (h *Hand) Update() {
	if h.fallback != nil {
		h.UpdateFallback()
	}

	if hv := h.Hovering(); hv != nil {
		if u, ok := hv.(HoverUpdater); ok {
			u.HandHoverUpdate(h)
		}
	}

	if cur := h.Current(); cur != nil {
		if u, ok := cur.(AttachedUpdater); ok {
			u.HandAttachedUpdate(h)
		}
	}
}

// GuessHandType returns the starting type when it is left or right.
// Otherwise, with both hands linked to controllers and an HMD known, the hand
// further to the HMD's left is the left hand.
func (h *Hand) GuessHandType() HandType {
	if h.cfg.StartingType == HandLeft || h.cfg.StartingType == HandRight {
		return h.cfg.StartingType
	}
	if h.controller == nil || h.other == nil || h.other.controller == nil || h.hmd == nil {
		return h.cfg.StartingType
	}

	inv := h.hmd.Pose().Inverse()
	mine := physics.Left.Dot(inv.TransformPoint(h.controller.Pose().Position))
	theirs := physics.Left.Dot(inv.TransformPoint(h.other.controller.Pose().Position))
	if mine > theirs {
		return HandLeft
	}
	return HandRight
}

// StandardButtonDown reports a press of the standard interaction button this
// frame: the trigger touch on a controller, the left mouse button in
// fallback mode.
func (h *Hand) StandardButtonDown() bool {
	switch {
	case h.fallback != nil:
		return h.fallback.pointer.Button(input.MouseLeft).Down()
	case h.controller != nil:
		return h.controller.GetTouchDown(input.Trigger)
	default:
		return false
	}
}

// StandardButtonUp reports a release of the standard interaction button.
func (h *Hand) StandardButtonUp() bool {
	switch {
	case h.fallback != nil:
		return h.fallback.pointer.Button(input.MouseLeft).Up()
	case h.controller != nil:
		return h.controller.GetTouchUp(input.Trigger)
	default:
		return false
	}
}

// StandardButtonHeld reports whether the standard interaction button is down.
func (h *Hand) StandardButtonHeld() bool {
	switch {
	case h.fallback != nil:
		return h.fallback.pointer.Button(input.MouseLeft).Held()
	case h.controller != nil:
		return h.controller.GetTouch(input.Trigger)
	default:
		return false
	}
}

func (h *Hand) emit(kind bus.Kind, obj Interactable) {
	if h.bus == nil {
		return
	}
	var frame uint64
	if h.clock != nil {
		frame = h.clock.Frames()
	}
	if err := h.bus.Publish(bus.NewEvent(kind, h.Name(), nameOf(obj), frame)); err != nil {
		h.logger.Warn("event handler failed", log.String("kind", string(kind)), log.Error(err))
	}
}
