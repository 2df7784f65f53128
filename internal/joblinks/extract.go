package joblinks

import (
	"html"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// urlTail matches the rest of a URL up to whitespace or a closing delimiter.
const urlTail = `[^\s)>\]"']*`

var linkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://(?:[a-z]{1,3}\.)?linkedin\.com/jobs/view/\d+` + urlTail),
	regexp.MustCompile(`(?i)https?://(?:[a-z]{1,3}\.)?linkedin\.com/comm/jobs/view/\d+` + urlTail),
	regexp.MustCompile(`(?i)https?://(?:[a-z]{1,3}\.)?linkedin\.com/(?:comm/)?company/[^/\s)>\]"']+/jobs` + urlTail),
	regexp.MustCompile(`(?i)https?://(?:[a-z]{1,3}\.)?linkedin\.com/(?:comm/)?company/[^/\s)>\]"']+` + urlTail),
	regexp.MustCompile(`(?i)https?://(?:[a-z]{1,3}\.)?linkedin\.com/jobs/search/` + urlTail),
	regexp.MustCompile(`(?i)https?://(?:[a-z]{1,3}\.)?linkedin\.com/` + `[^\s)>\]"']*currentJobId=\d+` + urlTail),
	regexp.MustCompile(`(?i)linkedin\.com/(?:comm/)?jobs%2Fview%2F\d+`),
}

var (
	profilePathPattern = regexp.MustCompile(`^/(comm/)?company/[^/]+/?$`)
	allCurrentJobIDs   = regexp.MustCompile(`(?i)currentJobId=(\d+)`)
	allEncodedJobIDs   = regexp.MustCompile(`(?i)jobs%2[fF]view%2[fF](\d+)`)
)

// ProfileContextCues decide whether a bare company profile link is a jobs link. A profile
// link is accepted only when one of them matches the text around it.
var ProfileContextCues = []*regexp.Regexp{
	regexp.MustCompile(`view\s+roles`),
	regexp.MustCompile(`view\s+jobs`),
	regexp.MustCompile(`ваканси`),
	regexp.MustCompile(`jobs\s+for\s+your\s+role`),
}

// Context window around a profile link, in characters before and after the match.
const (
	contextBefore = 180
	contextAfter  = 80
)

// Link is a supported job link found in an email.
type Link struct {
	Raw       string // as found in the text (canonical for job-id links)
	Canonical string
	JobID     string
}

// Extract returns the supported LinkedIn job links of a text, deduplicated by canonical form.
// Links without a job id come first in order of appearance; job-id links follow, ordered
// by id, always in canonical form.
func Extract(text string) []Link {
	text = html.UnescapeString(text)

	var links []Link
	seen := make(map[string]bool)
	byJobID := make(map[string]string)

	for _, pattern := range linkPatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			raw := strings.TrimRight(strings.TrimSpace(text[loc[0]:loc[1]]), ".,;)")
			if !strings.HasPrefix(strings.ToLower(raw), "http") {
				raw = "https://www." + strings.TrimLeft(raw, "/")
			}

			if isCompanyProfile(raw) && !hasProfileCue(text, loc[0], loc[1]) {
				continue
			}

			canonical := Canonicalize(raw)
			if !IsSupported(canonical) {
				continue
			}
			if id := firstNonEmpty(JobID(canonical), JobID(raw)); id != "" {
				byJobID[id] = canonical
				continue
			}
			if !seen[canonical] {
				seen[canonical] = true
				links = append(links, Link{Raw: raw, Canonical: canonical})
			}
		}
	}

	for _, m := range allCurrentJobIDs.FindAllStringSubmatch(text, -1) {
		byJobID[m[1]] = linkedInBase + "jobs/view/" + m[1] + "/"
	}
	for _, m := range allEncodedJobIDs.FindAllStringSubmatch(text, -1) {
		byJobID[m[1]] = linkedInBase + "jobs/view/" + m[1] + "/"
	}

	ids := make([]string, 0, len(byJobID))
	for id := range byJobID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		canonical := byJobID[id]
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		links = append(links, Link{Raw: canonical, Canonical: canonical, JobID: id})
	}
	return links
}

func isCompanyProfile(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return profilePathPattern.MatchString(strings.ToLower(u.Path))
}

func hasProfileCue(text string, start, end int) bool {
	before := []rune(text[:start])
	if len(before) > contextBefore {
		before = before[len(before)-contextBefore:]
	}
	after := []rune(text[end:])
	if len(after) > contextAfter {
		after = after[:contextAfter]
	}
	context := strings.ToLower(string(before) + text[start:end] + string(after))
	for _, cue := range ProfileContextCues {
		if cue.MatchString(context) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
