// Package parsing recovers structured opportunity fields from normalized email text.
//
// Every extractor is a fallback chain of patterns tried from most to least specific.
// A chain that finds nothing returns the zero value; extractors never fail.
package parsing

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	subjectHeader = regexp.MustCompile(`(?im)^(?:subject|тема):\s*(.+)$`)
	senderHeader  = regexp.MustCompile(`(?im)^(?:from|от):\s*(.+)$`)
	headerLabel   = regexp.MustCompile(`^(?:from|to|date|subject|от|кому|дата|тема):`)
)

// separatorLines are rules printed between the headers and the body of exported mail.
var separatorLines = map[string]bool{
	"-----": true,
	"----------------------------------------": true,
}

// subjectScanLines bounds the subject fallback scan.
const subjectScanLines = 40

// Subject returns the labelled Subject/Тема header, or else the first normalized line of at
// least 8 characters that is neither a header label, a separator, nor contains "@".
func Subject(raw, normalized string) string {
	if m := subjectHeader.FindStringSubmatch(raw); m != nil {
		if s := strings.TrimSpace(m[1]); s != "" {
			return s
		}
	}

	lines := strings.Split(normalized, "\n")
	if len(lines) > subjectScanLines {
		lines = lines[:subjectScanLines]
	}
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		low := strings.ToLower(stripped)
		if headerLabel.MatchString(low) || separatorLines[stripped] {
			continue
		}
		if len([]rune(stripped)) >= 8 && !strings.Contains(low, "@") {
			return stripped
		}
	}
	return ""
}

// SubjectFromFileName returns the part of a file stem after the first " - ", as written by
// mail exporters that name files "<date> - <subject>.txt".
func SubjectFromFileName(name string) string {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if _, after, ok := strings.Cut(stem, " - "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// Sender returns the labelled From/От header. There is no fallback.
func Sender(raw string) string {
	if m := senderHeader.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func isHeaderLine(low string) bool {
	return headerLabel.MatchString(low)
}
