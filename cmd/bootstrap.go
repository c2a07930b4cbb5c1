package cmd

import (
	"context"
	"fmt"

	"github.com/pvolek/facegate/internal/config"
	"github.com/pvolek/facegate/internal/gallery"
	"github.com/pvolek/facegate/internal/gallery/postgres"
	"github.com/pvolek/facegate/internal/loader"
	"github.com/pvolek/facegate/internal/monitor"
	"github.com/pvolek/facegate/internal/recognizer"
	"github.com/pvolek/facegate/internal/vision"
)

// app bundles the wiring shared by every command: configuration, the
// descriptor store, gallery persistence and the recognition pipeline.
type app struct {
	cfg      *config.Config
	store    *recognizer.Store
	matcher  *recognizer.Matcher
	registry *gallery.Registry
	suggest  *gallery.SuggestIndex
	engine   *vision.RemoteEngine
	loader   *loader.Loader
	pipeline *monitor.Pipeline
	history  *recognizer.History
	debounce *recognizer.Debouncer
	events   *monitor.Broadcaster

	pool *postgres.Pool // nil when the JSON gallery is used
}

// newApp loads configuration, restores the gallery and wires the
// recognition pipeline. Face models are not loaded yet; the first
// caller that needs them triggers acquisition.
func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()

	store := recognizer.NewStore()

	var storage gallery.Store
	var pool *postgres.Pool
	if cfg.Database.URL != "" {
		fmt.Println("Connecting to PostgreSQL gallery...")
		p, err := postgres.Initialize(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		pool = p
		storage = postgres.NewPersonStore(p)
	} else {
		fmt.Printf("Using JSON gallery at %s\n", cfg.Gallery.Path)
		storage = gallery.NewFileStore(cfg.Gallery.Path)
	}

	registry := gallery.NewRegistry(store, storage)
	if err := registry.Restore(ctx); err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, fmt.Errorf("failed to restore gallery: %w", err)
	}
	fmt.Printf("Gallery loaded: %d people, %d face samples\n", store.Count(), store.TotalDescriptors())

	suggest := gallery.NewSuggestIndex()
	suggest.Sync(store)

	engine := vision.NewRemoteEngine()
	ld := loader.New(engine, loader.Options{
		Sources:  cfg.Vision.Sources,
		Timeout:  cfg.Vision.SourceTimeout,
		Critical: cfg.Models.Tiers.Critical,
		Optional: cfg.Models.Tiers.Optional,
	})
	matcher := recognizer.NewMatcher(store)

	return &app{
		cfg:      cfg,
		store:    store,
		matcher:  matcher,
		registry: registry,
		suggest:  suggest,
		engine:   engine,
		loader:   ld,
		pipeline: monitor.NewPipeline(engine, ld, matcher, cfg.Matcher.Threshold, cfg.Vision.MaxImageSize),
		history:  recognizer.NewHistory(recognizer.DefaultHistoryLimit),
		debounce: recognizer.NewDebouncer(cfg.Matcher.DebounceWindow),
		events:   monitor.NewBroadcaster(),
		pool:     pool,
	}, nil
}

// Close releases resources held by the app.
func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// newMonitor builds the camera watcher around the app's shared
// debouncer, history and event broadcaster.
func (a *app) newMonitor() (*monitor.Monitor, error) {
	source, err := monitor.NewSource(a.cfg.Camera.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera source: %w", err)
	}
	return monitor.New(a.pipeline, source, monitor.Options{
		Interval: a.cfg.Camera.FrameInterval,
		Debounce: a.debounce,
		History:  a.history,
		Events:   a.events,
	}), nil
}
