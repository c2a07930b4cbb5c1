package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pvolek/facegate/internal/ai"
	"github.com/pvolek/facegate/internal/config"
	"github.com/pvolek/facegate/internal/recognizer"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect identification events from a running server",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent identification events",
	RunE:  runEventsList,
}

var eventsDigestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Summarize recent events with an AI model",
	Long: `Fetch the recent identification events from a running facegate server
and ask an AI model for a short digest of the activity.`,
	RunE: runEventsDigest,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsDigestCmd)

	for _, c := range []*cobra.Command{eventsListCmd, eventsDigestCmd} {
		c.Flags().String("server", "http://localhost:8080", "Base URL of the running facegate server")
		c.Flags().Int("limit", 0, "Limit the number of events (0 = all recorded)")
	}
	eventsDigestCmd.Flags().String("provider", "openai", "AI provider to use: openai, gemini")
}

// fetchEvents pulls the recorded history from the server's events
// endpoint, newest first.
func fetchEvents(server string, limit int) ([]recognizer.Entry, error) {
	url := server + "/api/events"
	if limit > 0 {
		url = fmt.Sprintf("%s?limit=%d", url, limit)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var payload struct {
		Events []recognizer.Entry `json:"events"`
		Count  int                `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return payload.Events, nil
}

func runEventsList(cmd *cobra.Command, args []string) error {
	server := mustGetString(cmd, "server")
	limit := mustGetInt(cmd, "limit")

	entries, err := fetchEvents(server, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No events recorded yet.")
		return nil
	}

	for _, e := range entries {
		name := e.PersonName
		if e.IsUnknown {
			name = "unknown person"
		}
		fmt.Printf("%s  %-25s  %3d%%\n", e.Timestamp.Format("2006-01-02 15:04:05"), name, e.Confidence)
	}
	fmt.Printf("\nTotal: %d event(s)\n", len(entries))
	return nil
}

func runEventsDigest(cmd *cobra.Command, args []string) error {
	server := mustGetString(cmd, "server")
	limit := mustGetInt(cmd, "limit")
	providerName := mustGetString(cmd, "provider")

	cfg := config.Load()
	ctx := context.Background()

	// Create AI provider based on selection
	var aiProvider ai.Provider
	switch providerName {
	case "openai":
		if cfg.OpenAI.Token == "" {
			return errors.New("OPENAI_TOKEN environment variable is required")
		}
		aiProvider = ai.NewOpenAIProvider(cfg.OpenAI.Token)
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return errors.New("GEMINI_API_KEY environment variable is required")
		}
		var err error
		aiProvider, err = ai.NewGeminiProvider(ctx, cfg.Gemini.APIKey)
		if err != nil {
			return fmt.Errorf("failed to create Gemini provider: %w", err)
		}
	default:
		return fmt.Errorf("unknown provider: %s (supported: openai, gemini)", providerName)
	}

	entries, err := fetchEvents(server, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No events recorded yet.")
		return nil
	}

	// History comes newest first; the model reads it oldest first.
	events := make([]ai.Event, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		events = append(events, ai.Event{
			Timestamp:  e.Timestamp,
			PersonName: e.PersonName,
			Confidence: e.Confidence,
			IsUnknown:  e.IsUnknown,
		})
	}

	fmt.Printf("Summarizing %d event(s) with %s...\n\n", len(events), aiProvider.Name())

	digest, err := aiProvider.SummarizeEvents(ctx, events)
	if err != nil {
		return fmt.Errorf("failed to summarize events: %w", err)
	}

	fmt.Println(digest.Summary)

	if len(digest.People) > 0 {
		fmt.Println("\nPeople seen:")
		for _, name := range digest.People {
			fmt.Printf("  - %s\n", name)
		}
	}

	if len(digest.Highlights) > 0 {
		fmt.Println("\nHighlights:")
		for _, highlight := range digest.Highlights {
			fmt.Printf("  - %s\n", highlight)
		}
	}

	// Print usage
	usage := aiProvider.GetUsage()
	if usage.InputTokens > 0 || usage.OutputTokens > 0 {
		fmt.Printf("\nAPI Usage:\n")
		fmt.Printf("  Input tokens: %d\n", usage.InputTokens)
		fmt.Printf("  Output tokens: %d\n", usage.OutputTokens)
	}
	return nil
}
