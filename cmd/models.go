package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pvolek/facegate/internal/loader"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Load the face models and report source status",
	Long: `Try to load the face models from the configured sources and report
which source answered and which tiers are available. Useful for
checking a deployment before pointing a camera at it.`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.Flags().Int("timeout-s", 120, "Overall timeout for the load attempt in seconds")
}

func runModels(cmd *cobra.Command, args []string) error {
	timeout := time.Duration(mustGetInt(cmd, "timeout-s")) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Printf("Sources:  %s\n", strings.Join(app.cfg.Vision.Sources, ", "))
	fmt.Printf("Critical: %s\n", strings.Join(app.cfg.Models.Tiers.Critical, ", "))
	fmt.Printf("Optional: %s\n", strings.Join(app.cfg.Models.Tiers.Optional, ", "))
	fmt.Println()

	fmt.Println("Loading critical tier...")
	if err := app.loader.EnsureReady(ctx); err != nil {
		if errors.Is(err, loader.ErrAllSourcesFailed) {
			return fmt.Errorf("no source could deliver the critical models: %w", err)
		}
		return fmt.Errorf("failed to load face models: %w", err)
	}

	fmt.Printf("Critical tier ready (source: %s)\n", app.loader.ActiveSource())

	// The optional tier loads in the background from the same source.
	// Give it a moment before reporting.
	deadline := time.Now().Add(10 * time.Second)
	for !app.loader.OptionalReady() && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}

	if app.loader.OptionalReady() {
		fmt.Println("Optional tier ready (demographics enabled)")
	} else {
		fmt.Println("Optional tier not loaded (demographics disabled)")
	}
	return nil
}
