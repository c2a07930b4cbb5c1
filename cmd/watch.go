package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the camera stream and print identifications",
	Long: `Watch the configured camera stream and print every identification
to the terminal as it happens. Repeated sightings of the same person
inside the debounce window are suppressed.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("camera", "", "Camera snapshot URL or frame directory (overrides FACEGATE_CAMERA_URL)")
	watchCmd.Flags().Int("interval-ms", 0, "Frame interval in milliseconds (overrides FACEGATE_FRAME_INTERVAL_MS)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if camera := mustGetString(cmd, "camera"); camera != "" {
		app.cfg.Camera.URL = camera
	}
	if interval := mustGetInt(cmd, "interval-ms"); interval > 0 {
		app.cfg.Camera.FrameInterval = time.Duration(interval) * time.Millisecond
	}
	if app.cfg.Camera.URL == "" {
		return errors.New("no camera configured: set FACEGATE_CAMERA_URL or pass --camera")
	}

	mon, err := app.newMonitor()
	if err != nil {
		return err
	}

	// Handle Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nStopping...")
		cancel()
	}()

	fmt.Printf("Loading face models from %d source(s)...\n", len(app.cfg.Vision.Sources))
	if err := app.pipeline.WarmUp(ctx); err != nil {
		return fmt.Errorf("failed to load face models: %w", err)
	}
	fmt.Printf("Models ready (source: %s)\n", app.loader.ActiveSource())

	events := app.events.Subscribe()
	defer app.events.Unsubscribe(events)

	go func() {
		for e := range events {
			name := e.PersonName
			if e.IsUnknown {
				name = "unknown person"
			}
			fmt.Printf("%s  %s (%d%%)\n", e.Timestamp.Format("15:04:05"), name, e.Confidence)
		}
	}()

	fmt.Printf("Watching %s every %s\n", app.cfg.Camera.URL, app.cfg.Camera.FrameInterval)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	if err := mon.Run(ctx); err != nil {
		return fmt.Errorf("camera watcher failed: %w", err)
	}

	stats := mon.Stats()
	fmt.Printf("\nFrames analyzed: %d\n", stats.Frames)
	fmt.Printf("Frames dropped:  %d\n", stats.Dropped)
	fmt.Printf("Frames failed:   %d\n", stats.Failed)
	fmt.Printf("Faces seen:      %d\n", stats.Faces)
	return nil
}
