package parsing

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
)

var (
	dateHeader       = regexp.MustCompile(`(?im)^(?:date|дата):\s*(.+)$`)
	fileNameDate     = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})(?:_(\d{2})-(\d{2}))?`)
	extraDateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "02.01.2006 15:04", "2006-01-02"}
)

// Date returns the labelled Date/Дата header parsed as an email date, then a date prefix of
// the file name ("2025-03-04_10-15 - ..."), then the item's last-modified time.
func Date(raw, fileName string, lastModified *time.Time) *time.Time {
	if m := dateHeader.FindStringSubmatch(raw); m != nil {
		if t, ok := parseDate(strings.TrimSpace(m[1])); ok {
			return &t
		}
	}
	if m := fileNameDate.FindStringSubmatch(fileName); m != nil {
		layout, value := "2006-01-02", m[1]
		if m[2] != "" {
			layout, value = "2006-01-02 15:04", m[1]+" "+m[2]+":"+m[3]
		}
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return &t
		}
	}
	if lastModified != nil && !lastModified.IsZero() {
		t := *lastModified
		return &t
	}
	return nil
}

func parseDate(value string) (time.Time, bool) {
	if t, err := mail.ParseDate(value); err == nil {
		return t, true
	}
	for _, layout := range extraDateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
