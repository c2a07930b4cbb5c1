package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pvolek/facegate/internal/monitor"
	"github.com/pvolek/facegate/internal/recognizer"
)

// sseKeepalive paces comment lines that keep idle streams open through
// proxies between camera sightings.
const sseKeepalive = 30 * time.Second

// EventsHandler serves the identification event log and its live stream.
type EventsHandler struct {
	history *recognizer.History
	events  *monitor.Broadcaster
}

func NewEventsHandler(history *recognizer.History, events *monitor.Broadcaster) *EventsHandler {
	return &EventsHandler{
		history: history,
		events:  events,
	}
}

// List returns recent identification events, newest first.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.history.Entries()

	if limit, _ := strconv.Atoi(r.URL.Query().Get("limit")); limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"events": entries,
		"count":  len(entries),
	})
}

// Stream pushes identification events over SSE as they are admitted.
// The connection opens with a "connected" event and closes when the
// client goes away.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ch := h.events.Subscribe()
	defer h.events.Unsubscribe(ch)

	sendSSEEvent(w, flusher, "connected", map[string]int{"recentEvents": h.history.Len()})

	keepalive := time.NewTicker(sseKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case entry, open := <-ch:
			if !open {
				return
			}
			sendSSEEvent(w, flusher, "identification", entry)
		case <-keepalive.C:
			_, _ = io.WriteString(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
