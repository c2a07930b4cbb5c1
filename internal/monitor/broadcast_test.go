package monitor

import (
	"testing"

	"github.com/pvolek/facegate/internal/recognizer"
)

func TestBroadcaster_FanOut(t *testing.T) {
	b := NewBroadcaster()
	first := b.Subscribe()
	second := b.Subscribe()

	if b.Listeners() != 2 {
		t.Fatalf("expected 2 listeners, got %d", b.Listeners())
	}

	b.Publish(recognizer.Entry{PersonName: "Ada"})

	for i, ch := range []chan recognizer.Entry{first, second} {
		select {
		case e := <-ch:
			if e.PersonName != "Ada" {
				t.Errorf("listener %d: unexpected entry %+v", i, e)
			}
		default:
			t.Errorf("listener %d: no entry delivered", i)
		}
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	b.Unsubscribe(ch)

	if _, open := <-ch; open {
		t.Error("expected channel closed after unsubscribe")
	}
	if b.Listeners() != 0 {
		t.Errorf("expected 0 listeners, got %d", b.Listeners())
	}

	// Unsubscribing an unknown channel must be harmless.
	b.Unsubscribe(make(chan recognizer.Entry))
}

func TestBroadcaster_SlowListenerDoesNotBlock(t *testing.T) {
	b := NewBroadcaster()
	slow := b.Subscribe()

	// Overfill the buffer; Publish must keep returning.
	for i := 0; i < listenerBuffer+5; i++ {
		b.Publish(recognizer.Entry{PersonName: "Ada"})
	}

	if len(slow) != listenerBuffer {
		t.Errorf("expected a full buffer of %d, got %d", listenerBuffer, len(slow))
	}
}
