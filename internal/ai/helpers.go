package ai

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed prompts/digest.txt
var digestPrompt string

// buildDigestPrompt returns the embedded event digest prompt.
func buildDigestPrompt() string {
	return digestPrompt
}

// buildDigestContent builds the user message content for event summarization.
// This is shared across all AI providers.
func buildDigestContent(events []Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Identification events (%d total, oldest first):\n", len(events))
	for i, event := range events {
		name := event.PersonName
		if event.IsUnknown {
			name = "unknown person"
		}
		fmt.Fprintf(&b, "%d. %s  %s (confidence %d%%)\n",
			i+1, event.Timestamp.Format("2006-01-02 15:04:05"), name, event.Confidence)
	}
	return b.String()
}
