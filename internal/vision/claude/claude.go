package claude

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/vbonduro/pantry/internal/vision"
)

// maxTokens leaves room for five "label | confidence" lines with headroom
// for models that add a preamble.
const maxTokens = 256

type ClaudeClassifier struct {
	client *anthropic.Client
	model  string
}

func NewClaudeClassifier(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeClassifier {
	return &ClaudeClassifier{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (c *ClaudeClassifier) Classify(ctx context.Context, r io.Reader, mimeType string) ([]vision.Classification, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
					anthropic.MessagesContentSourceTypeBase64,
					vision.NormaliseMIME(mimeType),
					base64.StdEncoding.EncodeToString(imageData),
				)),
				anthropic.NewTextMessageContent(vision.ClassificationPrompt),
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}

	return vision.ParseResponse(resp.GetFirstContentText()), nil
}
