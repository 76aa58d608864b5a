package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

var ErrUnorderedTrack = errors.New("keyframes out of order")

// Keyframe places a controller at Time. Trigger holds until the next
// keyframe; positions are interpolated between keyframes.
type Keyframe struct {
	Time     float64      `json:"time" yaml:"time"`
	Position physics.Vec3 `json:"position" yaml:"position"`
	Trigger  bool         `json:"trigger,omitempty" yaml:"trigger,omitempty"`
}

// Track is a keyframed controller path ordered by time.
type Track []Keyframe

// Sample returns the controller position and trigger state at t.
func (tr Track) Sample(t float64) (physics.Vec3, bool) {
	if len(tr) == 0 {
		return physics.Zero, false
	}
	i, _ := slices.BinarySearchFunc(tr, t, func(k Keyframe, t float64) int {
		switch {
		case k.Time < t:
			return -1
		case k.Time > t:
			return 1
		default:
			return 0
		}
	})
	// i is the first keyframe at or after t
	if i < len(tr) && tr[i].Time == t {
		return tr[i].Position, tr[i].Trigger
	}
	if i == 0 {
		return tr[0].Position, false
	}
	if i == len(tr) {
		last := tr[len(tr)-1]
		return last.Position, last.Trigger
	}
	a, b := tr[i-1], tr[i]
	f := (t - a.Time) / (b.Time - a.Time)
	return physics.Lerp(a.Position, b.Position, f), a.Trigger
}

// End is the time of the last keyframe.
func (tr Track) End() float64 {
	if len(tr) == 0 {
		return 0
	}
	return tr[len(tr)-1].Time
}

// Script is the scripted session for both controllers.
type Script struct {
	Left  Track `json:"left" yaml:"left"`
	Right Track `json:"right" yaml:"right"`
}

// Validate checks both tracks are ordered by time.
func (s Script) Validate() error {
	for _, t := range []struct {
		name  string
		track Track
	}{{"left", s.Left}, {"right", s.Right}} {
		name, tr := t.name, t.track
		for i := 1; i < len(tr); i++ {
			if tr[i].Time < tr[i-1].Time {
				return fmt.Errorf("script: %s keyframe %d at %v: %w", name, i, tr[i].Time, ErrUnorderedTrack)
			}
		}
	}
	return nil
}

// LoadScriptYAML decodes a script from YAML.
func LoadScriptYAML(r io.Reader) (Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Script{}, fmt.Errorf("script: decode yaml: %w", err)
	}
	return s, s.Validate()
}

// LoadScriptJSON decodes a script from JSON.
func LoadScriptJSON(r io.Reader) (Script, error) {
	var s Script
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Script{}, fmt.Errorf("script: decode json: %w", err)
	}
	return s, s.Validate()
}

// LoadScript reads a script file, choosing the decoder by extension.
func LoadScript(path string) (Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return Script{}, fmt.Errorf("script: %w", err)
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadScriptJSON(f)
	}
	return LoadScriptYAML(f)
}

// Scene layout shared by the default script and the world.
var (
	ballStart   = physics.Vec3{0.3, 1, 0.4}
	sliderStart = physics.Vec3{-0.4, 1, 0.3}
	sliderEnd   = physics.Vec3{-0.1, 1, 0.3}
	spawnerAt   = physics.Vec3{0, 1.2, 0.6}
	menuAt      = physics.Vec3{0.6, 1.2, 0.6}
)

// DefaultScript: the left hand drags the slider end to end then takes an
// item from the spawner; the right hand picks up the ball, throws it
// forward and up, then presses the menu button.
func DefaultScript() Script {
	return Script{
		Left: Track{
			{Time: 0, Position: physics.Vec3{-0.4, 1, 0.1}},
			{Time: 0.5, Position: sliderStart},
			{Time: 0.7, Position: sliderStart, Trigger: true},
			{Time: 1.7, Position: sliderEnd, Trigger: true},
			{Time: 1.8, Position: sliderEnd},
			{Time: 2.6, Position: spawnerAt},
			{Time: 3.0, Position: spawnerAt},
		},
		Right: Track{
			{Time: 0, Position: physics.Vec3{0.3, 1, 0.1}},
			{Time: 1.0, Position: ballStart},
			{Time: 1.2, Position: ballStart, Trigger: true},
			// 0.5 s at (0, 1, 2) m/s
			{Time: 1.7, Position: physics.Vec3{0.3, 1.5, 1.4}},
			{Time: 2.0, Position: physics.Vec3{0.3, 1.2, 1.0}},
			{Time: 2.5, Position: menuAt},
			{Time: 2.7, Position: menuAt, Trigger: true},
			{Time: 2.8, Position: menuAt},
			{Time: 3.2, Position: physics.Vec3{0.3, 1, 0.1}},
		},
	}
}
