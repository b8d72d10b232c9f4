package vision

import (
	"sort"
	"strconv"
	"strings"
)

// ParseLine parses a single "label | confidence" line. It returns nil for
// blank lines, preamble, or lines without a pipe separator.
func ParseLine(line string) *Classification {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*• ")
	if line == "" || !strings.Contains(line, "|") {
		return nil
	}

	parts := strings.SplitN(line, "|", 2)
	label := strings.ToLower(strings.TrimSpace(parts[0]))
	label = strings.TrimRight(strings.TrimLeft(label, "0123456789. "), ".")
	if label == "" {
		return nil
	}

	return &Classification{Label: label, Confidence: parseConfidence(parts[1])}
}

// ParseResponse parses a model reply into classifications ordered by
// confidence, highest first. A label listed twice keeps its best score.
func ParseResponse(raw string) []Classification {
	best := make(map[string]float64)
	var order []string
	for _, line := range strings.Split(raw, "\n") {
		c := ParseLine(line)
		if c == nil {
			continue
		}
		prev, seen := best[c.Label]
		if !seen {
			order = append(order, c.Label)
		}
		if !seen || c.Confidence > prev {
			best[c.Label] = c.Confidence
		}
	}

	out := make([]Classification, 0, len(order))
	for _, label := range order {
		out = append(out, Classification{Label: label, Confidence: best[label]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// parseConfidence accepts "0.8", "80%" and "80", clamping to [0, 1].
// Unparseable values score zero.
func parseConfidence(raw string) float64 {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "|"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	pct := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	if pct || v > 1 {
		v /= 100
	}
	if v > 1 {
		v = 1
	}
	return v
}
