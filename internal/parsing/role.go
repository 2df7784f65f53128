package parsing

import (
	"regexp"
	"strings"
)

var rolePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:position|role|for the position)\s+(.+?)(?:\n| at | in )`),
	regexp.MustCompile(`(?i)for\s+the\s+(.+?)\s+position`),
	regexp.MustCompile(`(?i)thank you for applying for the\s+(.+?)\s+position`),
	regexp.MustCompile(`(?i)application for\s+(.+?)(?:\n| at | in )`),
	regexp.MustCompile(`(?i)ваканси(?:я|ю)\s+[«"]?(.+?)[»"]?(?:\s+в|\n|$)`),
	regexp.MustCompile(`(?i)apply now to\s+[‘'"]?(.+?)[’'"]?(?:$|\n)`),
}

var (
	subjectSentTo   = regexp.MustCompile(`(?i)your application was sent to|ваша заявка на вакансию`)
	subjectPrefix   = regexp.MustCompile(`^\s*([^:]{2,120}):`)
	quotedFragment  = regexp.MustCompile(`["“”«»]([^"“”«»]{2,120})["“”«»]`)
	urlOrAtPattern  = regexp.MustCompile(`https?://|@`)
	roleHeaderWords = map[string]bool{
		"от": true, "дата": true, "тема": true,
		"from": true, "date": true, "subject": true,
	}
)

// sectionHeaders are body lines that introduce a section rather than name a role.
var sectionHeaders = map[string]bool{
	"job description":  true,
	"about the role":   true,
	"responsibilities": true,
	"what you'll do":   true,
	"about this job":   true,
	"от":               true,
	"дата":             true,
	"тема":             true,
}

var roleBoilerplate = []string{
	"hi ",
	"your application was sent to",
	"your saved job",
	"thank you",
	"текст",
	"дата:",
	"от:",
	"ваша заявка",
	"мы получили",
}

// maxRoleSpaces rejects role candidates that are whole sentences.
const maxRoleSpaces = 18

// Role runs the role fallback chain: phrase patterns over subject and body, the subject
// prefix before a colon, a quoted fragment of the subject, then the first meaningful body line.
func Role(subject, normalized string) string {
	source := joinNonEmpty("\n", subject, normalized)
	for _, p := range rolePatterns {
		m := p.FindStringSubmatch(source)
		if m == nil {
			continue
		}
		if r := cleanupRole(m[1]); r != "" {
			return r
		}
	}

	if subject != "" {
		if subjectSentTo.MatchString(subject) {
			return ""
		}
		if m := subjectPrefix.FindStringSubmatch(subject); m != nil {
			if r := cleanupRole(m[1]); r != "" {
				return r
			}
		}
		if m := quotedFragment.FindStringSubmatch(subject); m != nil {
			if r := cleanupRole(m[1]); r != "" {
				return r
			}
		}
	}

	for _, line := range strings.Split(normalized, "\n") {
		stripped := strings.TrimSpace(line)
		low := strings.ToLower(stripped)
		if isHeaderLine(low) || separatorLines[stripped] {
			continue
		}
		if len([]rune(stripped)) >= 6 && !urlOrAtPattern.MatchString(stripped) && !sectionHeaders[low] {
			return cleanupRole(stripped)
		}
	}
	return ""
}

// SubjectRolePrefix returns the subject text before its first colon, as used by digest
// subjects like "Backend Engineer: 5 new jobs".
func SubjectRolePrefix(subject string) string {
	if m := subjectPrefix.FindStringSubmatch(subject); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func cleanupRole(value string) string {
	v := strings.Trim(strings.Join(strings.Fields(value), " "), " -:;,.\t")
	if len([]rune(v)) < 2 {
		return ""
	}
	low := strings.ToLower(v)
	if roleHeaderWords[low] {
		return ""
	}
	if strings.Count(v, " ") > maxRoleSpaces {
		return ""
	}
	for _, frag := range roleBoilerplate {
		if strings.Contains(low, frag) {
			return ""
		}
	}
	if low == "at" || strings.HasPrefix(low, "at ") {
		return ""
	}
	return v
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
