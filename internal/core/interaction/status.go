package interaction

// HandStatus is a point-in-time view of one hand for debugging displays.
type HandStatus struct {
	Hand          string `json:"hand"`
	Type          string `json:"type"`
	Hovering      string `json:"hovering,omitempty"`
	HoverLocked   bool   `json:"hover_locked"`
	Attached      string `json:"attached,omitempty"`
	TotalAttached int    `json:"total_attached"`
}

// Status snapshots the hand.
func (h *Hand) Status() HandStatus {
	return HandStatus{
		Hand:          h.Name(),
		Type:          h.GuessHandType().String(),
		Hovering:      nameOf(h.Hovering()),
		HoverLocked:   h.hoverLocked,
		Attached:      nameOf(h.Current()),
		TotalAttached: len(h.attached),
	}
}
