// Package recipe asks a language model for recipes built from pantry items.
package recipe

import (
	"context"
	"strings"
)

// Suggester returns recipe suggestions, one entry per line of the model's
// reply.
type Suggester interface {
	Suggest(ctx context.Context, items []string) ([]string, error)
}

// Prompt builds the request sent to every suggester backend.
func Prompt(items []string) string {
	return "Given the following pantry items: " + strings.Join(items, ", ") +
		", suggest a recipe that can be made using these items."
}

// ParseSuggestions splits a reply into lines, dropping blank ones.
func ParseSuggestions(raw string) []string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
