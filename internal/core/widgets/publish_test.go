package widgets

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/vrkit/internal/core/events/bus"
	"github.com/zeusync/vrkit/internal/core/observability/log"
	"github.com/zeusync/vrkit/internal/core/scene"
)

var errHandler = errors.New("handler failed")

func failingBus(t *testing.T, kind bus.Kind) bus.EventBus {
	t.Helper()
	b := bus.New()
	_, err := b.Subscribe(kind, func(bus.Event) error { return errHandler })
	require.NoError(t, err)
	return b
}

func TestHapticRackLogsPublishFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	r := newRig(t)
	m := &LinearMapping{}
	rack := NewHapticRack(scene.NewNode("rack"), m, rand.New(rand.NewPCG(5, 6)))
	rack.Bus = failingBus(t, bus.KindPulse)
	rack.Logger = log.NewFromZap(zap.New(core), log.LevelDebug)
	r.add(rack)

	r.frame(true)
	rack.Update()
	assert.Equal(t, 1, rack.Pulses(), "pulse still counted")

	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warns, 1)
	assert.Equal(t, "pulse event handler failed", warns[0].Message)
	assert.Equal(t, "rack", warns[0].ContextMap()["rack"])
}

func TestHapticRackPublishFailureWithoutLogger(t *testing.T) {
	r := newRig(t)
	rack := NewHapticRack(scene.NewNode("rack"), &LinearMapping{}, nil)
	rack.Bus = failingBus(t, bus.KindPulse)
	r.add(rack)

	r.frame(true)
	assert.NotPanics(t, rack.Update)
	assert.Equal(t, 1, rack.Pulses())
}

func TestUIModuleLogsPublishFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	r := newRig(t)
	mod := &UIModule{
		Bus:    failingBus(t, bus.KindSubmit),
		Logger: log.NewFromZap(zap.New(core), log.LevelDebug),
	}
	el := NewGUIElement(scene.NewNode("button"), mod)
	clicks := 0
	el.OnSubmit = func() { clicks++ }
	r.add(el)

	r.frame(true)
	mod.Process()
	assert.Equal(t, 1, clicks)

	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warns, 1)
	assert.Equal(t, "submit event handler failed", warns[0].Message)
	assert.Equal(t, "button", warns[0].ContextMap()["element"])
}
