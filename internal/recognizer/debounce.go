package recognizer

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is used when no window is configured. Anything
// between one and one and a half seconds works well for doorway cameras.
const DefaultDebounceWindow = 1200 * time.Millisecond

// Debouncer suppresses repeated announcements of the same person. A new
// event passes unless it carries the same label as the most recently
// admitted one and arrives inside the window. Different labels always
// pass, so two people alternating in front of the camera are both heard.
type Debouncer struct {
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	lastLabel string
	lastAt    time.Time
}

func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{
		window: window,
		now:    time.Now,
	}
}

// Admit reports whether an event for label should be forwarded. Admitted
// events become the new suppression reference point; suppressed ones do
// not extend the window.
func (d *Debouncer) Admit(label string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if label == d.lastLabel && !d.lastAt.IsZero() && now.Sub(d.lastAt) < d.window {
		return false
	}

	d.lastLabel = label
	d.lastAt = now
	return true
}
