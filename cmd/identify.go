package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pvolek/facegate/internal/monitor"
	"github.com/spf13/cobra"
)

var identifyCmd = &cobra.Command{
	Use:   "identify [photo-path]",
	Short: "Identify the people in a photo",
	Long: `Run the recognition pipeline over a single photo and print who was
found. Faces that match nobody in the gallery are reported as unknown.`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)

	identifyCmd.Flags().Float64("threshold", 0, "Match threshold override (0 = use configured value)")
	identifyCmd.Flags().Bool("json", false, "Print the raw detections as JSON")
}

func runIdentify(cmd *cobra.Command, args []string) error {
	photoPath := args[0]

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	photo, err := os.ReadFile(photoPath)
	if err != nil {
		return fmt.Errorf("failed to read photo: %w", err)
	}

	if threshold := mustGetFloat64(cmd, "threshold"); threshold > 0 {
		app.pipeline = monitor.NewPipeline(app.engine, app.loader, app.matcher, threshold, app.cfg.Vision.MaxImageSize)
	}

	fmt.Println("Loading face models...")
	if err := app.pipeline.WarmUp(ctx); err != nil {
		return fmt.Errorf("failed to load face models: %w", err)
	}

	detections, err := app.pipeline.Analyze(ctx, photo)
	if err != nil {
		return fmt.Errorf("failed to analyze photo: %w", err)
	}

	if mustGetBool(cmd, "json") {
		out, err := json.MarshalIndent(detections, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal detections: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	if len(detections) == 0 {
		fmt.Println("No faces found.")
		return nil
	}

	fmt.Printf("Found %d face(s):\n", len(detections))
	for i, det := range detections {
		name := det.Name
		if !det.Identified {
			name = "unknown person"
		}
		fmt.Printf("%d. %s (%d%% confidence)\n", i+1, name, det.Confidence)
		if det.Demographics != nil {
			fmt.Printf("   Age: ~%d, Gender: %s, Expression: %s\n",
				det.Demographics.Age, det.Demographics.Gender, det.Demographics.Expression)
		}
	}
	return nil
}
