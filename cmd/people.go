package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var peopleCmd = &cobra.Command{
	Use:   "people",
	Short: "Manage the gallery of enrolled people",
}

var peopleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled people",
	RunE:  runPeopleList,
}

func init() {
	rootCmd.AddCommand(peopleCmd)
	peopleCmd.AddCommand(peopleListCmd)
}

func runPeopleList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	people := app.registry.People()
	if len(people) == 0 {
		fmt.Println("No people enrolled yet.")
		return nil
	}

	fmt.Printf("%-36s  %-25s  %7s  %s\n", "ID", "NAME", "SAMPLES", "ENROLLED")
	for _, person := range people {
		fmt.Printf("%-36s  %-25s  %7d  %s\n",
			person.ID, person.Name, len(person.Descriptors), person.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("\nTotal: %d people\n", len(people))
	return nil
}
