package agent

import (
	"fmt"
	"strings"

	"github.com/imohq/supportdesk/internal/memory"
)

// buildPrompt assembles the generation context: customer identity, the
// question, a tool-usage hint, and recent conversation turns.
func buildPrompt(query, customerID string, entries []memory.Entry) string {
	id := customerID
	if id == "" {
		id = "unknown"
	}

	parts := []string{
		fmt.Sprintf("Customer ID: %s", id),
		fmt.Sprintf("Customer asked: %s", query),
		"If helpful, call tools to fetch profile, orders, or cached responses before replying.",
	}

	if len(entries) > 0 {
		lines := make([]string, 0, len(entries))
		for _, e := range entries {
			lines = append(lines, fmt.Sprintf("%s: %s", titleRole(e.Role), e.Content))
		}
		parts = append(parts, "Recent context:\n"+strings.Join(lines, "\n"))
	}

	return strings.Join(parts, "\n")
}

func titleRole(role string) string {
	if role == "" {
		return "Unknown"
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
