package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pvolek/facegate/internal/recognizer"
	"github.com/spf13/cobra"
)

var peopleAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Enroll a person from a photo",
	Long: `Enroll a new person into the gallery. The photo must contain at least
one face; when it contains several, the largest one is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runPeopleAdd,
}

func init() {
	peopleCmd.AddCommand(peopleAddCmd)

	peopleAddCmd.Flags().String("photo", "", "Path to the enrollment photo (required)")
	peopleAddCmd.MarkFlagRequired("photo")
}

func runPeopleAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	photoPath := mustGetString(cmd, "photo")

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if existing, err := app.registry.FindByName(name); err == nil {
		return fmt.Errorf("a person with this name is already enrolled: %s (%s)", existing.Name, existing.ID)
	} else if !errors.Is(err, recognizer.ErrProfileNotFound) {
		return fmt.Errorf("failed to check for duplicates: %w", err)
	}

	photo, err := os.ReadFile(photoPath)
	if err != nil {
		return fmt.Errorf("failed to read photo: %w", err)
	}

	fmt.Println("Loading face models...")
	if err := app.pipeline.WarmUp(ctx); err != nil {
		return fmt.Errorf("failed to load face models: %w", err)
	}

	face, faceCount, err := app.pipeline.ExtractFace(ctx, photo)
	if err != nil {
		return fmt.Errorf("failed to extract face: %w", err)
	}
	if faceCount > 1 {
		fmt.Printf("Photo contains %d faces, using the largest one\n", faceCount)
	}

	profile, err := app.registry.Enroll(ctx, name, face.Descriptor, photo)
	if err != nil {
		return fmt.Errorf("failed to enroll %s: %w", name, err)
	}

	fmt.Printf("Enrolled %s (%s)\n", profile.Name, profile.ID)

	// Point out enrolled people who look like the new sample. Usually a
	// sign of the same person enrolled twice under different names.
	app.suggest.Sync(app.store)
	if lookalikes := app.suggest.Similar(face.Descriptor, 3, profile.ID); len(lookalikes) > 0 {
		fmt.Println("\nSimilar people already enrolled:")
		for _, s := range lookalikes {
			fmt.Printf("  %s (distance %.2f)\n", s.Name, s.Distance)
		}
	}
	return nil
}
