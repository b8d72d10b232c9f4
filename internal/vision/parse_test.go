package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected *Classification
	}{
		{
			name:     "decimal confidence",
			line:     "Apple | 0.92",
			expected: &Classification{Label: "apple", Confidence: 0.92},
		},
		{
			name:     "percentage",
			line:     "canned tomatoes | 85%",
			expected: &Classification{Label: "canned tomatoes", Confidence: 0.85},
		},
		{
			name:     "whole number treated as percent",
			line:     "rice | 40",
			expected: &Classification{Label: "rice", Confidence: 0.40},
		},
		{
			name:     "bullet and numbering stripped",
			line:     "- 1. Oats | 0.5",
			expected: &Classification{Label: "oats", Confidence: 0.5},
		},
		{
			name:     "missing confidence scores zero",
			line:     "butter |",
			expected: &Classification{Label: "butter", Confidence: 0},
		},
		{
			name:     "extra columns ignored",
			line:     "milk | 0.7 | opened",
			expected: &Classification{Label: "milk", Confidence: 0.7},
		},
		{
			// Lines without a pipe separator are indistinguishable from preamble.
			name:     "no pipe",
			line:     "Here is what I see",
			expected: nil,
		},
		{
			name:     "empty label",
			line:     " | 0.9",
			expected: nil,
		},
		{
			name:     "whitespace only",
			line:     "   ",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLine(tt.line)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.expected.Label, got.Label)
				assert.InDelta(t, tt.expected.Confidence, got.Confidence, 1e-9)
			}
		})
	}
}

func TestParseResponse(t *testing.T) {
	raw := `Here are my guesses:
pear | 0.3
apple | 0.9

Apple | 0.95
quince | 0.3`

	got := ParseResponse(raw)
	assert.Equal(t, []Classification{
		{Label: "apple", Confidence: 0.95},
		{Label: "pear", Confidence: 0.3},
		{Label: "quince", Confidence: 0.3},
	}, got)
}

func TestParseResponse_Empty(t *testing.T) {
	assert.Empty(t, ParseResponse(""))
	assert.Empty(t, ParseResponse("I cannot tell what this is."))
}

func TestBest(t *testing.T) {
	cs := []Classification{{Label: "apple", Confidence: 0.6}, {Label: "pear", Confidence: 0.2}}

	got, ok := Best(cs, 0.5)
	assert.True(t, ok)
	assert.Equal(t, "apple", got.Label)

	_, ok = Best(cs, 0.7)
	assert.False(t, ok)

	_, ok = Best(nil, 0)
	assert.False(t, ok)
}

func TestNormaliseMIME(t *testing.T) {
	assert.Equal(t, "image/png", NormaliseMIME("image/png"))
	assert.Equal(t, "image/webp", NormaliseMIME("image/webp"))
	assert.Equal(t, "image/jpeg", NormaliseMIME("image/heic"))
}
