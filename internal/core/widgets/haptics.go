package widgets

import (
	"math"
	"math/rand/v2"

	"github.com/zeusync/vrkit/internal/core/events/bus"
	"github.com/zeusync/vrkit/internal/core/interaction"
	"github.com/zeusync/vrkit/internal/core/observability/log"
	"github.com/zeusync/vrkit/internal/core/scene"
)

const (
	DefaultTeeth         = 128
	DefaultMinPulseMicro = 500
	DefaultMaxPulseMicro = 900
)

var (
	_ interaction.HoverBeginner = (*HapticRack)(nil)
	_ interaction.HoverEnder    = (*HapticRack)(nil)
)

// HapticRack pulses the hovering hand's controller each time the mapping
// crosses into a new tooth, as long as the hand holds the standard button.
type HapticRack struct {
	node    *scene.Node
	Mapping *LinearMapping

	Teeth    int
	MinPulse int // microseconds
	MaxPulse int
	OnPulse  func()

	Bus    bus.EventBus
	Logger log.Log

	hand      *interaction.Hand
	prevTooth int
	rng       *rand.Rand
	pulses    int
}

// NewHapticRack creates a rack with the default tooth count and pulse range.
// rng may be nil.
func NewHapticRack(node *scene.Node, mapping *LinearMapping, rng *rand.Rand) *HapticRack {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &HapticRack{
		node:      node,
		Mapping:   mapping,
		Teeth:     DefaultTeeth,
		MinPulse:  DefaultMinPulseMicro,
		MaxPulse:  DefaultMaxPulseMicro,
		prevTooth: -1,
		rng:       rng,
	}
}

func (r *HapticRack) Node() *scene.Node { return r.node }

func (r *HapticRack) OnHandHoverBegin(h *interaction.Hand) { r.hand = h }

func (r *HapticRack) OnHandHoverEnd(*interaction.Hand) { r.hand = nil }

// Pulses is how many pulses the rack has sent.
func (r *HapticRack) Pulses() int { return r.pulses }

// Tooth is the tooth index for the current mapping value.
func (r *HapticRack) Tooth() int {
	return int(math.RoundToEven(r.Mapping.Value*float64(r.Teeth) - 0.5))
}

// Update runs once per frame.
func (r *HapticRack) Update() {
	if r.Mapping == nil {
		return
	}
	if tooth := r.Tooth(); tooth != r.prevTooth {
		r.pulse()
		r.prevTooth = tooth
	}
}

func (r *HapticRack) pulse() {
	h := r.hand
	if h == nil || h.Controller() == nil || !h.StandardButtonHeld() {
		return
	}
	lo, hi := r.MinPulse, max(r.MaxPulse, r.MinPulse)
	duration := lo + r.rng.IntN(hi-lo+1)
	h.Controller().TriggerHapticPulse(uint16(min(duration, math.MaxUint16)))
	r.pulses++

	if r.OnPulse != nil {
		r.OnPulse()
	}
	if r.Bus != nil {
		ev := bus.NewEvent(bus.KindPulse, h.Name(), r.node.Name(), 0)
		ev.Data = map[string]any{"microseconds": duration, "tooth": r.Tooth()}
		if err := r.Bus.Publish(ev); err != nil {
			log.OrNop(r.Logger).Warn("pulse event handler failed", log.String("rack", r.node.Name()), log.Error(err))
		}
	}
}
