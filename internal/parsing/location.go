package parsing

import (
	"regexp"
	"strings"
)

var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(Remote|Hybrid)\b`),
	regexp.MustCompile(`\b([A-Z][a-z]+(?:\s[A-Z][a-z]+),\sIsrael)\b`),
	regexp.MustCompile(`\b(Tel Aviv|Israel)\b`),
}

// Location returns the first match of the work-mode, "City, Israel" and literal Israel patterns.
func Location(text string) string {
	for _, p := range locationPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
