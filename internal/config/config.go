// Package config loads the simulator configuration: defaults, then an
// optional YAML file, then VRKIT_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/vrkit/internal/core/motion"
	"github.com/zeusync/vrkit/internal/core/observability/log"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "VRKIT_"

type Config struct {
	Simulation Simulation `yaml:"simulation" envPrefix:"SIM_"`
	Motion     Motion     `yaml:"motion" envPrefix:"MOTION_"`
	Hand       Hand       `yaml:"hand" envPrefix:"HAND_"`
	Feed       Feed       `yaml:"feed" envPrefix:"FEED_"`
	Log        Log        `yaml:"log" envPrefix:"LOG_"`
}

// Simulation drives the scripted session.
type Simulation struct {
	// FixedDelta is the physics tick in seconds.
	FixedDelta float64 `yaml:"fixed_delta" env:"FIXED_DELTA"`
	// FrameDelta is the render frame time in seconds.
	FrameDelta float64 `yaml:"frame_delta" env:"FRAME_DELTA"`
	Frames     int     `yaml:"frames" env:"FRAMES"`
	// Realtime paces frames against the wall clock instead of running flat out.
	Realtime bool   `yaml:"realtime" env:"REALTIME"`
	Seed     uint64 `yaml:"seed" env:"SEED"`
	// Script is a YAML or JSON keyframe file replacing the built-in session.
	Script string `yaml:"script" env:"SCRIPT"`
}

type Motion struct {
	LinearSamples  int `yaml:"linear_samples" env:"LINEAR_SAMPLES"`
	AngularSamples int `yaml:"angular_samples" env:"ANGULAR_SAMPLES"`
}

type Hand struct {
	HoverRadius      float64  `yaml:"hover_radius" env:"HOVER_RADIUS"`
	HoverInterval    float64  `yaml:"hover_interval" env:"HOVER_INTERVAL"`
	HoverPoint       string   `yaml:"hover_point" env:"HOVER_POINT"`
	AttachmentPoints []string `yaml:"attachment_points" env:"ATTACHMENT_POINTS" envSeparator:","`
}

// Feed is the websocket debug feed.
type Feed struct {
	Enabled      bool          `yaml:"enabled" env:"ENABLED"`
	Addr         string        `yaml:"addr" env:"ADDR"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
}

type Log struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// Default returns a configuration that runs a ten second session at 90 fps.
func Default() Config {
	return Config{
		Simulation: Simulation{
			FixedDelta: 0.01,
			FrameDelta: 1.0 / 90,
			Frames:     900,
			Seed:       1,
		},
		Motion: Motion{
			LinearSamples:  motion.DefaultLinearSamples,
			AngularSamples: motion.DefaultAngularSamples,
		},
		Hand: Hand{
			HoverRadius:      0.05,
			HoverInterval:    0.1,
			HoverPoint:       "hover",
			AttachmentPoints: []string{"grip"},
		},
		Feed: Feed{
			Addr:         ":8089",
			WriteTimeout: 2 * time.Second,
		},
		Log: Log{Level: "info"},
	}
}

// LoadYAML decodes YAML from r over the defaults.
func LoadYAML(r io.Reader) (Config, error) {
	cfg := Default()
	if err := decodeYAML(r, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

// Load applies defaults, then the YAML file at path when path is not empty,
// then environment overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		defer f.Close()
		if err = decodeYAML(f, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from VRKIT_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	s := c.Simulation
	check(s.FixedDelta > 0, "simulation.fixed_delta must be positive, got %v", s.FixedDelta)
	check(s.FrameDelta > 0, "simulation.frame_delta must be positive, got %v", s.FrameDelta)
	check(s.Frames >= 0, "simulation.frames must not be negative, got %d", s.Frames)

	check(c.Motion.LinearSamples > 0, "motion.linear_samples must be positive, got %d", c.Motion.LinearSamples)
	check(c.Motion.AngularSamples > 0, "motion.angular_samples must be positive, got %d", c.Motion.AngularSamples)

	check(c.Hand.HoverRadius > 0, "hand.hover_radius must be positive, got %v", c.Hand.HoverRadius)
	check(c.Hand.HoverInterval > 0, "hand.hover_interval must be positive, got %v", c.Hand.HoverInterval)

	if c.Feed.Enabled {
		check(c.Feed.Addr != "", "feed.addr is required when the feed is enabled")
		check(c.Feed.WriteTimeout > 0, "feed.write_timeout must be positive, got %v", c.Feed.WriteTimeout)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// LogLevel is the parsed log level; Validate has already rejected bad ones.
func (c Config) LogLevel() log.Level {
	l, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.LevelInfo
	}
	return l
}
