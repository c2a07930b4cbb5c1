package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pvolek/facegate/internal/recognizer"
)

// DefaultInterval paces the frame loop when no interval is configured.
const DefaultInterval = 500 * time.Millisecond

// cycleTimeout bounds one detached cycle, including a cold model
// acquisition on the first frame.
const cycleTimeout = 2 * time.Minute

// Stats are cumulative frame counters for the monitor loop.
type Stats struct {
	Frames    int64     `json:"frames"`    // cycles that completed
	Dropped   int64     `json:"dropped"`   // ticks skipped while a cycle was in flight
	Failed    int64     `json:"failed"`    // cycles that errored
	Faces     int64     `json:"faces"`     // faces seen across completed cycles
	LastFrame time.Time `json:"lastFrame"` // completion time of the latest cycle
}

// Options tune a Monitor. The zero value is usable: defaults kick in for
// every field.
type Options struct {
	Interval time.Duration // tick period, DefaultInterval when zero
	Debounce *recognizer.Debouncer
	History  *recognizer.History
	Events   *Broadcaster
}

// Monitor repeatedly grabs frames from a source and feeds them through
// the pipeline. At most one cycle runs at a time: the semaphore guard is
// tried, never awaited, so a slow cycle sheds frames instead of building
// a queue.
type Monitor struct {
	pipeline *Pipeline
	source   FrameSource
	interval time.Duration
	debounce *recognizer.Debouncer
	history  *recognizer.History
	events   *Broadcaster
	guard    *semaphore.Weighted

	mu    sync.Mutex
	stats Stats
}

func New(pipeline *Pipeline, source FrameSource, opts Options) *Monitor {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	debounce := opts.Debounce
	if debounce == nil {
		debounce = recognizer.NewDebouncer(0)
	}
	history := opts.History
	if history == nil {
		history = recognizer.NewHistory(0)
	}
	events := opts.Events
	if events == nil {
		events = NewBroadcaster()
	}

	return &Monitor{
		pipeline: pipeline,
		source:   source,
		interval: interval,
		debounce: debounce,
		history:  history,
		events:   events,
		guard:    semaphore.NewWeighted(1),
	}
}

// Run ticks until ctx is canceled. Cancellation stops issuing ticks; an
// in-flight cycle finishes on its own detached context and its result is
// discarded. Always returns nil so an errgroup treats shutdown as clean.
func (m *Monitor) Run(ctx context.Context) error {
	slog.Info("monitor: started", "source", m.source.Describe(), "interval", m.interval)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("monitor: stopped")
			return nil
		case <-ticker.C:
			if !m.guard.TryAcquire(1) {
				m.mu.Lock()
				m.stats.Dropped++
				m.mu.Unlock()
				continue
			}
			go func() {
				defer m.guard.Release(1)
				m.cycle(ctx)
			}()
		}
	}
}

// cycle runs one grab-and-classify pass. It deliberately does not run
// on the loop's context: a cycle caught mid-flight by shutdown completes
// and only its publication is skipped.
func (m *Monitor) cycle(stop context.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	frame, err := m.source.Grab(ctx)
	if err != nil {
		slog.Warn("monitor: frame grab failed", "error", err)
		m.mu.Lock()
		m.stats.Failed++
		m.mu.Unlock()
		return
	}

	detections, err := m.pipeline.Analyze(ctx, frame)
	if err != nil {
		slog.Warn("monitor: frame analysis failed", "error", err)
		m.mu.Lock()
		m.stats.Failed++
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	m.stats.Frames++
	m.stats.Faces += int64(len(detections))
	m.stats.LastFrame = time.Now()
	m.mu.Unlock()

	if stop.Err() != nil {
		return
	}
	m.publish(detections)
}

// publish forwards debounce-admitted detections to the history and the
// stream listeners.
func (m *Monitor) publish(detections []recognizer.Detection) {
	for _, det := range detections {
		if !m.debounce.Admit(det.Name) {
			continue
		}
		entry := m.history.Record(det.Name, det.Confidence, det.Identified)
		m.events.Publish(entry)
		slog.Info("monitor: person seen", "name", det.Name, "confidence", det.Confidence)
	}
}

// Stats returns a copy of the frame counters.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
