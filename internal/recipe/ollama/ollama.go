package ollama

import (
	"context"

	"github.com/vbonduro/pantry/internal/ollama"
	"github.com/vbonduro/pantry/internal/recipe"
)

type OllamaSuggester struct {
	client *ollama.Client
	model  string
}

func NewOllamaSuggester(client *ollama.Client, model string) *OllamaSuggester {
	return &OllamaSuggester{client: client, model: model}
}

func (s *OllamaSuggester) Suggest(ctx context.Context, items []string) ([]string, error) {
	text, err := s.client.Generate(ctx, s.model, recipe.Prompt(items))
	if err != nil {
		return nil, err
	}
	return recipe.ParseSuggestions(text), nil
}
