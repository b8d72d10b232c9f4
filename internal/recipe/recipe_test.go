package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrompt(t *testing.T) {
	assert.Equal(t,
		"Given the following pantry items: eggs, flour, milk, suggest a recipe that can be made using these items.",
		Prompt([]string{"eggs", "flour", "milk"}))
}

func TestParseSuggestions(t *testing.T) {
	raw := "Pancakes\n\n  Whisk eggs and milk.  \r\n\nFold in flour.\n"
	assert.Equal(t, []string{"Pancakes", "Whisk eggs and milk.", "Fold in flour."}, ParseSuggestions(raw))
	assert.Empty(t, ParseSuggestions("\n \n"))
}
