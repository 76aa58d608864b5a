package input

// Mouse buttons.
const (
	MouseLeft = iota
	MouseRight
	MouseMiddle

	mouseButtonCount
)

// PointerState is one frame of mouse data. Position is in screen pixels.
type PointerState struct {
	X, Y    float64
	Buttons [mouseButtonCount]bool
}

// Pointer is the desktop mouse used by fallback hands and the fallback
// camera.
type Pointer struct {
	x, y    float64
	buttons [mouseButtonCount]Button
}

func NewPointer() *Pointer { return &Pointer{} }

func (p *Pointer) Update(st PointerState) {
	p.x, p.y = st.X, st.Y
	for i := range p.buttons {
		p.buttons[i].Set(st.Buttons[i])
	}
}

// Position returns the pointer position in screen pixels.
func (p *Pointer) Position() (x, y float64) { return p.x, p.y }

func (p *Pointer) Button(i int) Button {
	if i < 0 || i >= mouseButtonCount {
		return Button{}
	}
	return p.buttons[i]
}

// Key names a keyboard key.
type Key string

const (
	KeyW          Key = "w"
	KeyA          Key = "a"
	KeyS          Key = "s"
	KeyD          Key = "d"
	KeyE          Key = "e"
	KeyQ          Key = "q"
	KeyUp         Key = "up"
	KeyDown       Key = "down"
	KeyLeft       Key = "left"
	KeyRight      Key = "right"
	KeyLeftShift  Key = "lshift"
	KeyRightShift Key = "rshift"
	KeyLeftAlt    Key = "lalt"
)

// Keyboard holds the set of keys down this frame.
type Keyboard struct {
	held map[Key]struct{}
}

func NewKeyboard() *Keyboard { return &Keyboard{held: make(map[Key]struct{})} }

// Update replaces the held set.
func (k *Keyboard) Update(held ...Key) {
	clear(k.held)
	for _, key := range held {
		k.held[key] = struct{}{}
	}
}

// Held reports whether any of keys is down.
func (k *Keyboard) Held(keys ...Key) bool {
	for _, key := range keys {
		if _, ok := k.held[key]; ok {
			return true
		}
	}
	return false
}
