package vision

import (
	"context"
	"io"
)

// ClassificationPrompt is the shared prompt used by all classifier adapters.
const ClassificationPrompt = `Identify the single food or pantry item shown in this photo.
List up to 5 candidate labels, most likely first, one per line,
format: label | confidence
where confidence is a number between 0 and 1. Use short common names
(e.g. apple, canned tomatoes, rolled oats).`

// Classifier labels the main item in an image.
type Classifier interface {
	// Classify returns candidate labels ordered by confidence, highest first.
	Classify(ctx context.Context, r io.Reader, mimeType string) ([]Classification, error)
}

type Classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Best returns the top classification if it reaches minConfidence.
func Best(cs []Classification, minConfidence float64) (Classification, bool) {
	if len(cs) == 0 || cs[0].Confidence < minConfidence {
		return Classification{}, false
	}
	return cs[0], true
}

// NormaliseMIME maps browser MIME types to the image types model APIs accept.
// Unknown types are coerced to jpeg.
func NormaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
