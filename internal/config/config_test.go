package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/vrkit/internal/core/observability/log"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5, cfg.Motion.LinearSamples)
	assert.Equal(t, 11, cfg.Motion.AngularSamples)
	assert.Equal(t, log.LevelInfo, cfg.LogLevel())
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	cfg, err := LoadYAML(strings.NewReader(`
simulation:
  frames: 120
motion:
  linear_samples: 7
hand:
  attachment_points: [palm, grip]
feed:
  enabled: true
  write_timeout: 500ms
log:
  level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Simulation.Frames)
	assert.Equal(t, 0.01, cfg.Simulation.FixedDelta, "untouched fields keep defaults")
	assert.Equal(t, 7, cfg.Motion.LinearSamples)
	assert.Equal(t, []string{"palm", "grip"}, cfg.Hand.AttachmentPoints)
	assert.True(t, cfg.Feed.Enabled)
	assert.Equal(t, 500*time.Millisecond, cfg.Feed.WriteTimeout)
	assert.Equal(t, log.LevelDebug, cfg.LogLevel())
}

func TestLoadYAMLEmpty(t *testing.T) {
	cfg, err := LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLRejectsUnknownFields(t *testing.T) {
	_, err := LoadYAML(strings.NewReader("simulation:\n  framez: 3\n"))
	assert.Error(t, err)
}

func TestLoadAppliesEnvLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vrkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  frames: 10\nhand:\n  hover_radius: 0.2\n"), 0o600))

	t.Setenv("VRKIT_SIM_FRAMES", "42")
	t.Setenv("VRKIT_HAND_ATTACHMENT_POINTS", "a,b")
	t.Setenv("VRKIT_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Simulation.Frames)
	assert.Equal(t, 0.2, cfg.Hand.HoverRadius)
	assert.Equal(t, []string{"a", "b"}, cfg.Hand.AttachmentPoints)
	assert.Equal(t, log.LevelWarn, cfg.LogLevel())
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Simulation, cfg.Simulation)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("VRKIT_SIM_FRAMES", "many")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidateReportsEveryField(t *testing.T) {
	cfg := Default()
	cfg.Motion.LinearSamples = 0
	cfg.Motion.AngularSamples = -1
	cfg.Simulation.FixedDelta = 0
	cfg.Log.Level = "loud"
	cfg.Feed = Feed{Enabled: true}

	err := cfg.Validate()
	require.Error(t, err)
	for _, field := range []string{
		"motion.linear_samples",
		"motion.angular_samples",
		"simulation.fixed_delta",
		"log.level",
		"feed.addr",
		"feed.write_timeout",
	} {
		assert.Contains(t, err.Error(), field)
	}
}
