package ingestion

import (
	"html"
	"regexp"
	"strings"
)

var (
	scriptBlockPattern = regexp.MustCompile(`(?is)<(?:script|style|head)[^>]*>.*?</(?:script|style|head)>`)
	blockTagPattern    = regexp.MustCompile(`(?i)<(?:br\s*/?|/p|/div|/tr|/li|/h[1-6]|/table)>`)
	tagPattern         = regexp.MustCompile(`<[^>]+>`)
	horizontalSpace    = regexp.MustCompile("[ \t\u00a0]+")
	excessBlankLines   = regexp.MustCompile(`\n{3,}`)
)

// Normalize turns raw email text (plain or markup-bearing) into canonical plain text:
// entities decoded, tags stripped, LF line endings, horizontal whitespace collapsed,
// every line trimmed and runs of blank lines reduced to one.
// It never fails: if anything goes wrong the trimmed input is returned.
func Normalize(raw string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = strings.TrimSpace(raw)
		}
	}()

	if raw == "" {
		return ""
	}

	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	if strings.Contains(text, "<") {
		text = scriptBlockPattern.ReplaceAllString(text, " ")
		text = blockTagPattern.ReplaceAllString(text, "\n")
		text = tagPattern.ReplaceAllString(text, " ")
	}
	text = html.UnescapeString(text)
	text = horizontalSpace.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = excessBlankLines.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
