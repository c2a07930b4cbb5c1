package monitor

import (
	"sync"

	"github.com/pvolek/facegate/internal/recognizer"
)

// listenerBuffer sizes each subscriber channel. A subscriber that falls
// this far behind starts losing events rather than stalling the loop.
const listenerBuffer = 16

// Broadcaster fans admitted events out to stream subscribers. Publishing
// never blocks: a full subscriber channel is skipped.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners []chan recognizer.Entry
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers a new listener channel.
func (b *Broadcaster) Subscribe() chan recognizer.Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan recognizer.Entry, listenerBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// Unsubscribe removes and closes a listener channel. Unknown channels
// are ignored.
func (b *Broadcaster) Unsubscribe(ch chan recognizer.Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// Publish sends the entry to every listener that has room for it.
func (b *Broadcaster) Publish(e recognizer.Entry) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, listener := range b.listeners {
		select {
		case listener <- e:
		default:
			// Listener buffer full, skip.
		}
	}
}

// Listeners returns the current subscriber count.
func (b *Broadcaster) Listeners() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
