package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/pvolek/facegate/internal/recognizer"
	"github.com/spf13/cobra"
)

var peopleRemoveCmd = &cobra.Command{
	Use:   "remove [id-or-name]",
	Short: "Remove a person from the gallery",
	Args:  cobra.ExactArgs(1),
	RunE:  runPeopleRemove,
}

func init() {
	peopleCmd.AddCommand(peopleRemoveCmd)
}

func runPeopleRemove(cmd *cobra.Command, args []string) error {
	ref := args[0]

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	// Accept either the profile ID or the person's name.
	person, err := app.registry.Person(ref)
	if errors.Is(err, recognizer.ErrProfileNotFound) {
		person, err = app.registry.FindByName(ref)
	}
	if err != nil {
		if errors.Is(err, recognizer.ErrProfileNotFound) {
			return fmt.Errorf("no enrolled person matches %q", ref)
		}
		return fmt.Errorf("failed to look up %q: %w", ref, err)
	}

	if err := app.registry.Remove(ctx, person.ID); err != nil {
		return fmt.Errorf("failed to remove %s: %w", person.Name, err)
	}

	fmt.Printf("Removed %s (%s)\n", person.Name, person.ID)
	return nil
}
