package input

import (
	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

// ButtonID names a controller button.
type ButtonID uint8

const (
	Trigger ButtonID = iota
	Grip
	Touchpad
	ApplicationMenu

	buttonCount
)

func (id ButtonID) String() string {
	switch id {
	case Trigger:
		return "trigger"
	case Grip:
		return "grip"
	case Touchpad:
		return "touchpad"
	case ApplicationMenu:
		return "menu"
	default:
		return "unknown"
	}
}

// State is one frame of controller data as sampled by the host.
type State struct {
	Connected bool
	Pose      physics.Pose
	Press     [buttonCount]bool
	Touch     [buttonCount]bool
}

// HapticSink receives pulses from a controller, typically the device driver.
type HapticSink interface {
	Pulse(device int, microseconds uint16)
}

// Controller is a tracked hand controller. Every button has a press channel
// and a touch channel; the standard interaction button of a hand is the
// trigger touch channel.
type Controller struct {
	index     int
	connected bool
	pose      physics.Pose
	press     [buttonCount]Button
	touch     [buttonCount]Button

	haptics HapticSink
	pulses  int
	lastUS  uint16
}

// NewController creates a controller for a device index. haptics may be nil.
func NewController(index int, haptics HapticSink) *Controller {
	return &Controller{index: index, pose: physics.IdentityPose(), haptics: haptics}
}

func (c *Controller) Index() int { return c.index }

func (c *Controller) Connected() bool { return c.connected }

// Pose is the device pose from the last Update.
func (c *Controller) Pose() physics.Pose { return c.pose }

// Update records a frame of state. Call it once per frame before any hand
// reads buttons.
func (c *Controller) Update(st State) {
	c.connected = st.Connected
	c.pose = st.Pose
	for i := range c.press {
		c.press[i].Set(st.Press[i])
		c.touch[i].Set(st.Touch[i])
	}
}

func (c *Controller) GetPress(id ButtonID) bool     { return c.button(c.press[:], id).Held() }
func (c *Controller) GetPressDown(id ButtonID) bool { return c.button(c.press[:], id).Down() }
func (c *Controller) GetPressUp(id ButtonID) bool   { return c.button(c.press[:], id).Up() }
func (c *Controller) GetTouch(id ButtonID) bool     { return c.button(c.touch[:], id).Held() }
func (c *Controller) GetTouchDown(id ButtonID) bool { return c.button(c.touch[:], id).Down() }
func (c *Controller) GetTouchUp(id ButtonID) bool   { return c.button(c.touch[:], id).Up() }

func (c *Controller) button(channel []Button, id ButtonID) Button {
	if id >= buttonCount {
		return Button{}
	}
	return channel[id]
}

// TriggerHapticPulse requests a pulse of the given length in microseconds.
func (c *Controller) TriggerHapticPulse(microseconds uint16) {
	c.pulses++
	c.lastUS = microseconds
	if c.haptics != nil {
		c.haptics.Pulse(c.index, microseconds)
	}
}

// Pulses is the number of haptic pulses requested so far.
func (c *Controller) Pulses() int { return c.pulses }

// LastPulse is the duration of the most recent pulse.
func (c *Controller) LastPulse() uint16 { return c.lastUS }
