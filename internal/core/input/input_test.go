package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestButtonEdges(t *testing.T) {
	var b Button
	steps := []struct {
		held, down, up bool
	}{
		{false, false, false},
		{true, true, false},
		{true, false, false},
		{false, false, true},
		{false, false, false},
	}
	for i, s := range steps {
		b.Set(s.held)
		assert.Equal(t, s.held, b.Held(), "frame %d held", i)
		assert.Equal(t, s.down, b.Down(), "frame %d down", i)
		assert.Equal(t, s.up, b.Up(), "frame %d up", i)
	}
}

type recordingSink struct {
	device int
	us     []uint16
}

func (r *recordingSink) Pulse(device int, us uint16) {
	r.device = device
	r.us = append(r.us, us)
}

func TestControllerChannelsAreIndependent(t *testing.T) {
	c := NewController(3, nil)

	var st State
	st.Connected = true
	st.Touch[Trigger] = true
	c.Update(st)
	assert.True(t, c.Connected())
	assert.True(t, c.GetTouchDown(Trigger))
	assert.False(t, c.GetPressDown(Trigger))

	st.Press[Trigger] = true
	c.Update(st)
	assert.False(t, c.GetTouchDown(Trigger))
	assert.True(t, c.GetTouch(Trigger))
	assert.True(t, c.GetPressDown(Trigger))

	c.Update(State{})
	assert.True(t, c.GetPressUp(Trigger))
	assert.True(t, c.GetTouchUp(Trigger))
	assert.False(t, c.GetPress(buttonCount))
	assert.Equal(t, "grip", Grip.String())
}

func TestControllerHaptics(t *testing.T) {
	sink := &recordingSink{}
	c := NewController(2, sink)
	c.TriggerHapticPulse(700)
	c.TriggerHapticPulse(500)
	assert.Equal(t, 2, c.Pulses())
	assert.Equal(t, uint16(500), c.LastPulse())
	assert.Equal(t, 2, sink.device)
	assert.Equal(t, []uint16{700, 500}, sink.us)

	NewController(0, nil).TriggerHapticPulse(1)
}

func TestPointerAndKeyboard(t *testing.T) {
	p := NewPointer()
	var st PointerState
	st.X, st.Y = 10, 20
	st.Buttons[MouseRight] = true
	p.Update(st)
	x, y := p.Position()
	assert.Equal(t, 10.0, x)
	assert.Equal(t, 20.0, y)
	assert.True(t, p.Button(MouseRight).Down())
	assert.False(t, p.Button(MouseLeft).Held())
	assert.False(t, p.Button(7).Held())

	k := NewKeyboard()
	k.Update(KeyW, KeyLeftShift)
	assert.True(t, k.Held(KeyUp, KeyW))
	assert.False(t, k.Held(KeyS))
	k.Update()
	assert.False(t, k.Held(KeyW))
}
