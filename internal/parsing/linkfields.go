package parsing

import (
	"regexp"
	"strings"

	"github.com/jonathan/jobmail-sync/internal/joblinks"
)

// LinkFields are the role, company and location recovered for one link of an email.
type LinkFields struct {
	Role     string
	Company  string
	Location string
}

var (
	hiredThisWeekPattern = regexp.MustCompile(`(?i)\broles?\s+were\s+hired\s+this\s+week\s+in\s+([^\r\n]+)`)
	companyMetaLine      = regexp.MustCompile(`\b(?:new hire|followers|employees)\b`)
	slugSeparators       = regexp.MustCompile(`[-_]+`)
	inlineSimilarJobs    = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^jobs similar to\s+(.+?)\s+at\s+(.+?)\s+https?://`),
		regexp.MustCompile(`(?i)^new jobs similar to\s+(.+?)\s+at\s+(.+?)\s+https?://`),
		regexp.MustCompile(`(?i)^вакансии, похожие на\s+(.+?)\s+в\s+(.+?)\s+https?://`),
	}
	sameLineSeparator = regexp.MustCompile(`\s[-–—|]\s`)
)

var trackingPrefixes = []string{"lipi=", "midtoken=", "midsig=", "trk=", "trkemail=", "eid=", "otptoken="}

// companyLookback bounds how many lines above a company jobs link are searched for its name.
const companyLookback = 12

// FieldsForLink recovers role, company and location for a link that is not part of a digest
// block. subject is the email subject; fallbackCompany is used when nothing better is found.
func FieldsForLink(text, subject string, link joblinks.Link, fallbackCompany string) LinkFields {
	if slug := joblinks.CompanySlug(link.Canonical); slug != "" {
		return companyJobsFields(text, subject, link, slug, fallbackCompany)
	}

	var start, end int
	var matched string
	for _, candidate := range []string{link.Raw, link.Canonical} {
		if candidate == "" {
			continue
		}
		if i := strings.Index(text, candidate); i >= 0 {
			start, end, matched = i, i+len(candidate), candidate
			break
		}
	}
	if matched == "" {
		return LinkFields{Company: fallbackCompany}
	}

	lineStart := strings.LastIndex(text[:start], "\n") + 1
	lineEnd := strings.Index(text[end:], "\n")
	if lineEnd < 0 {
		lineEnd = len(text)
	} else {
		lineEnd += end
	}
	fullLine := strings.TrimSpace(text[lineStart:lineEnd])

	for _, p := range inlineSimilarJobs {
		if m := p.FindStringSubmatch(fullLine); m != nil {
			return LinkFields{Role: CleanOfferLine(m[1]), Company: CleanOfferLine(m[2])}
		}
	}

	sameLine := fullLine
	for _, candidate := range []string{matched, link.Raw, link.Canonical} {
		if candidate != "" {
			sameLine = strings.ReplaceAll(sameLine, candidate, "")
		}
	}
	sameLine = CleanOfferLine(sameLine)
	if strings.HasPrefix(sameLine, "?") || hasTrackingPrefix(strings.ToLower(sameLine)) {
		sameLine = ""
	}
	if sameLine != "" && !isOfferNoise(sameLine) {
		var parts []string
		for _, p := range sameLineSeparator.Split(sameLine, -1) {
			if p = CleanOfferLine(p); p != "" {
				parts = append(parts, p)
			}
		}
		switch {
		case len(parts) >= 2:
			return LinkFields{Role: parts[1], Company: parts[0]}
		case len(parts) == 1:
			return LinkFields{Role: parts[0], Company: fallbackCompany}
		}
	}

	before := strings.Split(text[:start], "\n")
	var candidates []string
	for i := len(before) - 1; i >= 0 && len(candidates) < 2; i-- {
		cleaned := CleanOfferLine(before[i])
		if cleaned == "" || isOfferNoise(cleaned) {
			continue
		}
		candidates = append(candidates, cleaned)
	}
	switch len(candidates) {
	case 2:
		return LinkFields{Role: candidates[1], Company: candidates[0]}
	case 1:
		return LinkFields{Role: candidates[0], Company: fallbackCompany}
	}
	return LinkFields{Company: fallbackCompany}
}

func companyJobsFields(text, subject string, link joblinks.Link, slug, fallbackCompany string) LinkFields {
	fromSlug := strings.TrimSpace(slugSeparators.ReplaceAllString(slug, " "))
	if fromSlug == "" {
		fromSlug = fallbackCompany
	}

	var location string
	if m := hiredThisWeekPattern.FindStringSubmatch(text); m != nil {
		location = CleanOfferLine(m[1])
	}

	var fromText string
	for _, candidate := range []string{link.Raw, link.Canonical} {
		if candidate == "" {
			continue
		}
		i := strings.Index(text, candidate)
		if i < 0 {
			continue
		}
		lines := strings.Split(text[:i], "\n")
		if len(lines) > companyLookback {
			lines = lines[len(lines)-companyLookback:]
		}
		for j := len(lines) - 1; j >= 0; j-- {
			line := CleanOfferLine(lines[j])
			if line == "" {
				continue
			}
			lower := strings.ToLower(line)
			if lower == "view roles" || lower == "view" || lower == "follow" {
				continue
			}
			if companyMetaLine.MatchString(lower) || strings.HasPrefix(line, "?") || strings.Contains(line, "=") {
				continue
			}
			fromText = line
			break
		}
		if fromText != "" {
			break
		}
	}

	company := fromText
	if company == "" {
		company = fromSlug
	}
	return LinkFields{Role: SubjectRolePrefix(subject), Company: company, Location: location}
}

func hasTrackingPrefix(s string) bool {
	for _, p := range trackingPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
