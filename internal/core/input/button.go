package input

// Button tracks one digital channel across frames. Set is called exactly once
// per frame with the sampled state; the edge flags describe that frame only.
type Button struct {
	held     bool
	pressed  bool
	released bool
}

// Set records this frame's state and derives the edges.
func (b *Button) Set(held bool) {
	b.pressed = held && !b.held
	b.released = !held && b.held
	b.held = held
}

// Held reports whether the button is down this frame.
func (b Button) Held() bool { return b.held }

// Down reports a press edge this frame.
func (b Button) Down() bool { return b.pressed }

// Up reports a release edge this frame.
func (b Button) Up() bool { return b.released }
