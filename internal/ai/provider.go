// Package ai generates natural language digests of identification
// events using hosted LLM backends.
package ai

import (
	"context"
	"errors"
	"time"
)

// ErrNoEvents is returned when a digest is requested for an empty event list.
var ErrNoEvents = errors.New("no events to summarize")

// Event is a single identification passed to the summarizer.
type Event struct {
	Timestamp  time.Time
	PersonName string
	Confidence int
	IsUnknown  bool
}

// Digest is the structured summary the model returns.
type Digest struct {
	Summary    string   `json:"summary"`
	People     []string `json:"people"`
	Highlights []string `json:"highlights"`
}

// Provider defines the interface for AI digest backends.
type Provider interface {
	Name() string
	SummarizeEvents(ctx context.Context, events []Event) (*Digest, error)

	// Usage tracking.
	GetUsage() *Usage
	ResetUsage()
}

// Usage tracks token usage across requests.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
