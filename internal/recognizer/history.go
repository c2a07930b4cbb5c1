package recognizer

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit caps the identification history.
const DefaultHistoryLimit = 200

// Entry is one admitted identification event.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	PersonName string    `json:"personName"`
	Confidence int       `json:"confidence"`
	IsUnknown  bool      `json:"isUnknown"`
}

// History keeps the most recent admitted events, newest first. Once the
// cap is reached the oldest entry falls off.
type History struct {
	limit int

	mu      sync.RWMutex
	entries []Entry
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Record appends an event for the given match and returns the stored entry.
func (h *History) Record(name string, confidence int, identified bool) Entry {
	e := Entry{
		ID:         uuid.New().String(),
		Timestamp:  time.Now(),
		PersonName: name,
		Confidence: confidence,
		IsUnknown:  !identified,
	}
	h.Add(e)
	return e
}

// Add inserts an entry at the front, evicting the oldest beyond the cap.
func (h *History) Add(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append([]Entry{e}, h.entries...)
	if len(h.entries) > h.limit {
		h.entries = h.entries[:h.limit]
	}
}

// Entries returns a copy of the history, newest first.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
