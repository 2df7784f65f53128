package parsing

import (
	"regexp"
	"strings"
	"unicode"
)

var descriptionMarkers = []string{
	"job description",
	"about the role",
	"responsibilities",
	"what you'll do",
	"about this job",
}

// Description limits, in characters.
const (
	MaxDescriptionLength = 5000
	SummaryLength        = 2000
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Description returns up to MaxDescriptionLength characters starting at the first
// description marker, or the first SummaryLength characters when no marker exists.
func Description(normalized string) string {
	if normalized == "" {
		return ""
	}
	text := []rune(normalized)
	lowered := make([]rune, len(text))
	for i, r := range text {
		lowered[i] = unicode.ToLower(r)
	}
	low := string(lowered)

	for _, marker := range descriptionMarkers {
		idx := strings.Index(low, marker)
		if idx < 0 {
			continue
		}
		start := len([]rune(low[:idx]))
		chunk := string(text[start:min(start+MaxDescriptionLength, len(text))])
		return strings.TrimSpace(blankRuns.ReplaceAllString(chunk, "\n\n"))
	}

	return strings.TrimSpace(string(text[:min(SummaryLength, len(text))]))
}
