package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pvolek/facegate/internal/monitor"
	"github.com/pvolek/facegate/internal/web"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the facegate web server.
The server exposes the enrollment and identification API, the event
history and a live event stream. When a camera URL is configured it
also runs the background camera watcher.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	port, host := resolveServeHostPort(cmd)

	var mon *monitor.Monitor
	if app.cfg.Camera.URL != "" {
		mon, err = app.newMonitor()
		if err != nil {
			return err
		}
		fmt.Printf("Camera watcher enabled: %s every %s\n", app.cfg.Camera.URL, app.cfg.Camera.FrameInterval)
	}

	server := web.NewServer(port, host, web.Deps{
		Store:    app.store,
		Registry: app.registry,
		Suggest:  app.suggest,
		Pipeline: app.pipeline,
		Loader:   app.loader,
		Matcher:  app.matcher,
		History:  app.history,
		Events:   app.events,
		Monitor:  mon,
	})

	// Warm the face models in the background so the first request
	// doesn't pay for acquisition.
	go func() {
		if err := app.pipeline.WarmUp(ctx); err != nil {
			fmt.Printf("Warning: model warm-up failed: %v\n", err)
		} else {
			fmt.Printf("Face models ready (source: %s)\n", app.loader.ActiveSource())
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Printf("Starting facegate on http://%s:%d\n", host, port)
		fmt.Println("Press Ctrl+C to stop")
		if err := server.Start(); err != nil {
			return fmt.Errorf("starting server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		return server.Shutdown(shutdownCtx)
	})

	if mon != nil {
		g.Go(func() error {
			return mon.Run(gctx)
		})
	}

	return g.Wait()
}
