package interaction

import (
	"errors"
	"fmt"
	"math"

	"github.com/zeusync/vrkit/internal/core/spatial"
)

// HandType is which physical hand a Hand represents.
type HandType uint8

const (
	HandLeft HandType = iota
	HandRight
	HandAny
)

func (t HandType) String() string {
	switch t {
	case HandLeft:
		return "left"
	case HandRight:
		return "right"
	default:
		return "any"
	}
}

// ParseHandType accepts "left", "right" and "any".
func ParseHandType(s string) (HandType, error) {
	switch s {
	case "left":
		return HandLeft, nil
	case "right":
		return HandRight, nil
	case "any", "":
		return HandAny, nil
	default:
		return HandAny, fmt.Errorf("interaction: unknown hand type %q", s)
	}
}

// Config holds per-hand settings.
type Config struct {
	StartingType HandType

	// HoverPoint names the child node the hover sphere is centred on. Empty
	// uses the hand node.
	HoverPoint    string
	HoverRadius   float64
	HoverMask     spatial.LayerMask
	HoverInterval float64 // seconds between hover resolutions

	// AttachmentPoints are child paths resolved once at construction.
	AttachmentPoints []string
}

func DefaultConfig() Config {
	return Config{
		StartingType:  HandAny,
		HoverRadius:   0.05,
		HoverMask:     spatial.AllLayers,
		HoverInterval: 0.1,
	}
}

func (c Config) Validate() error {
	var errs []error
	if !(c.HoverRadius > 0) || math.IsInf(c.HoverRadius, 0) {
		errs = append(errs, fmt.Errorf("hover radius must be positive, got %v", c.HoverRadius))
	}
	if !(c.HoverInterval > 0) || math.IsInf(c.HoverInterval, 0) {
		errs = append(errs, fmt.Errorf("hover interval must be positive, got %v", c.HoverInterval))
	}
	if c.StartingType > HandAny {
		errs = append(errs, fmt.Errorf("unknown starting hand type %d", c.StartingType))
	}
	return errors.Join(errs...)
}

// AttachOptions controls Attach.
type AttachOptions struct {
	// Snap resets the object's local pose to identity under the attachment
	// point.
	Snap bool
	// AttachmentPoint names one of the configured attachment points. Unknown
	// or empty names use the hand node.
	AttachmentPoint string
	// DetachOthers empties the stack before pushing.
	DetachOthers bool
}

// DefaultAttachOptions snaps and detaches others.
func DefaultAttachOptions() AttachOptions {
	return AttachOptions{Snap: true, DetachOthers: true}
}
