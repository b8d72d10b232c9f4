package ollama

import (
	"context"
	"fmt"
	"io"

	"github.com/vbonduro/pantry/internal/ollama"
	"github.com/vbonduro/pantry/internal/vision"
)

type OllamaClassifier struct {
	client *ollama.Client
	model  string
}

func NewOllamaClassifier(client *ollama.Client, model string) *OllamaClassifier {
	return &OllamaClassifier{client: client, model: model}
}

func (c *OllamaClassifier) Classify(ctx context.Context, r io.Reader, mimeType string) ([]vision.Classification, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	text, err := c.client.Generate(ctx, c.model, vision.ClassificationPrompt, imageData)
	if err != nil {
		return nil, err
	}
	return vision.ParseResponse(text), nil
}
