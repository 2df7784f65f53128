// Package identity derives the stable record keys that collapse repeated sightings of
// the same job opportunity into one persisted record.
package identity

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jonathan/jobmail-sync/internal/joblinks"
)

// Key prefixes, in priority order.
const (
	PrefixJob   = "job::"
	PrefixOffer = "offer::"
	PrefixLink  = "link::"
)

var (
	whitespace      = regexp.MustCompile(`\s+`)
	disallowedChars = regexp.MustCompile(`[^0-9a-zа-яё\x{0590}-\x{05ff} ./-]+`)
)

// KeyPart normalizes one key component: NFKC, lowercase, whitespace collapsed and
// every character outside Latin/Cyrillic/Hebrew letters, digits, space, "." "/" "-" removed.
func KeyPart(value string) string {
	v := norm.NFKC.String(value)
	v = strings.ToLower(strings.TrimSpace(v))
	v = whitespace.ReplaceAllString(v, " ")
	return disallowedChars.ReplaceAllString(v, "")
}

// Candidate carries the signals an opportunity key may be derived from.
type Candidate struct {
	Link       string // raw or canonical job link
	Company    string
	Role       string
	Location   string
	SourceFile string
}

// Derive returns the record key of an opportunity:
//  1. "job::<id>" when the link carries a job-posting id;
//  2. "offer::<company>::<role>::<location>" when company and role are both known;
//  3. "link::<canonical link>" when a link exists;
//  4. the file-scoped fallback key otherwise.
//
// The email date never takes part in the key.
func Derive(c Candidate) string {
	if id := joblinks.JobID(c.Link); id != "" {
		return PrefixJob + id
	}
	company, role := KeyPart(c.Company), KeyPart(c.Role)
	if company != "" && role != "" {
		return PrefixOffer + company + "::" + role + "::" + KeyPart(c.Location)
	}
	if link := strings.TrimSpace(c.Link); link != "" {
		return ForLink(link)
	}
	return ForFile(c.SourceFile)
}

// ForLink returns the key of a bare link: its job id when present, else its canonical form.
func ForLink(link string) string {
	if id := joblinks.JobID(link); id != "" {
		return PrefixJob + id
	}
	return PrefixLink + joblinks.Canonicalize(link)
}

// ForFile returns the fallback key of a source item with neither a link nor company and role.
func ForFile(sourceFile string) string {
	return sourceFile + "::0::no-link"
}
