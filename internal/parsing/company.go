package parsing

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/jonathan/jobmail-sync/internal/joblinks"
)

var companyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:sent to|at|from)\s+([A-Z][A-Za-z0-9&.\- ]{2,60})`),
	regexp.MustCompile(`(?:application(?:\s+was)?\s+sent\s+to)\s+([A-Z][A-Za-z0-9&.\- ]{2,60})`),
	regexp.MustCompile(`(?:в\s+компани(?:ю|и)|компания)\s+([A-ZА-Я][A-Za-zА-Яа-я0-9&.\- ]{2,80})`),
}

// extendedCompanyPatterns cover LinkedIn confirmation phrasings in English and Russian.
var extendedCompanyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)Ваша заявка была отправлена в компанию\s+([^\n]+)`),
	regexp.MustCompile(`(?im)Ваша заявка на вакансию.+?в компании\s+([^\n]+)`),
	regexp.MustCompile(`(?im)Ваша заявка была просмотрена в компании\s+([^\n]+)`),
	regexp.MustCompile(`(?im)your application was sent to\s+([^\n!]+)`),
	regexp.MustCompile(`(?im)Your application was viewed by\s+([^\n]+)`),
	regexp.MustCompile(`(?im)Thank you for applying to\s+([^\n!]+)`),
	regexp.MustCompile(`(?im)Thanks for applying to\s+([^\n!]+)`),
	regexp.MustCompile(`(?im)Wow\s*-\s*thanks for applying to\s+([^\n!]+)`),
	regexp.MustCompile(`(?im)Thank you for applying for.+?\sat\s+([^\n.,!]+)`),
	regexp.MustCompile(`(?im)Thanks for applying for.+?\sat\s+([^\n.,!]+)`),
	regexp.MustCompile(`(?im)Application to\s+([^\n)]+)`),
	regexp.MustCompile(`(?im)position at\s*([A-Za-z][A-Za-z0-9& .\-]{1,60})`),
	regexp.MustCompile(`(?im)Your application at\s+([^\n]+)`),
}

var (
	subjectAtPattern = regexp.MustCompile(`(?i)\bat\s+([A-Z][A-Za-z0-9&.\- ]{2,80})`)
	monthPattern     = regexp.MustCompile(`\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\b`)
	angleAddress     = regexp.MustCompile(`<[^>]+>`)
	emailAddress     = regexp.MustCompile(`([A-Za-z0-9._%+-]+)@([A-Za-z0-9.-]+\.[A-Za-z]{2,})`)
	nonAlnum         = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

var companyLabels = map[string]bool{
	"company:":      true,
	"organization:": true,
	"компания:":     true,
	"организация:":  true,
}

var companyNoise = map[string]bool{
	"linkedin": true,
	"дата":     true,
	"от":       true,
	"subject":  true,
}

// Company runs the company fallback chain: phrase patterns over the subject then the body,
// labelled "Company:" lines, a subject "at X" pattern, LinkedIn confirmation phrasings,
// and finally the sender's display name or email domain.
func Company(subject, normalized, sender string) string {
	for _, source := range []string{subject, normalized} {
		for _, p := range companyPatterns {
			m := p.FindStringSubmatch(source)
			if m == nil {
				continue
			}
			if c := cleanupCompany(m[1]); c != "" {
				return c
			}
		}
	}

	lines := strings.Split(normalized, "\n")
	for i := 0; i < len(lines)-1; i++ {
		if companyLabels[strings.ToLower(strings.TrimSpace(lines[i]))] {
			if c := cleanupCompany(lines[i+1]); c != "" {
				return c
			}
		}
	}

	if subject != "" {
		if m := subjectAtPattern.FindStringSubmatch(subject); m != nil {
			if c := cleanupCompany(m[1]); c != "" && !strings.Contains(strings.ToLower(c), "linkedin") {
				return c
			}
		}
	}

	haystack := subject + "\n" + normalized
	for _, p := range extendedCompanyPatterns {
		m := p.FindStringSubmatch(haystack)
		if m == nil {
			continue
		}
		if c := cleanupCompany(NormalizeCompany(m[1])); c != "" {
			return c
		}
	}

	return CompanyFromSender(sender)
}

// CompanyFromSender derives a company from a From header: the display name unless it is
// an address or mentions LinkedIn, else the title-cased email domain unless it is LinkedIn's.
func CompanyFromSender(sender string) string {
	if sender == "" {
		return ""
	}
	name := strings.Trim(strings.TrimSpace(angleAddress.ReplaceAllString(sender, "")), `"'`)
	if strings.Contains(name, "@") {
		name = ""
	}
	if len([]rune(name)) > 2 && !strings.Contains(strings.ToLower(name), "linkedin") {
		return name
	}

	m := emailAddress.FindStringSubmatch(sender)
	if m == nil {
		return ""
	}
	domain := strings.ToLower(m[2])
	if strings.Contains(domain, "linkedin.") {
		return ""
	}
	return titleizeDomain(domain)
}

// DomainName returns a last-resort company name from a link's host: the title-cased
// second-level label, or "" for aggregator hosts.
func DomainName(link string) string {
	host := joblinks.Host(link)
	if host == "" || joblinks.IsAggregatorHost(host) {
		return ""
	}
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return ""
	}
	return titleizeDomain(parts[len(parts)-2])
}

// NormalizeCompany applies NFKC, turns non-breaking spaces into spaces, collapses
// whitespace and trims surrounding punctuation and quotes.
func NormalizeCompany(name string) string {
	v := norm.NFKC.String(name)
	v = strings.NewReplacer("\u00a0", " ", "\u202f", " ").Replace(v)
	v = strings.Join(strings.Fields(v), " ")
	v = strings.Trim(v, ".,!?:;\"'()[]«»“”")
	return strings.TrimSpace(v)
}

func cleanupCompany(value string) string {
	v := strings.Trim(strings.Join(strings.Fields(value), " "), " -:;,.\t")
	if len([]rune(v)) < 2 {
		return ""
	}
	low := strings.ToLower(v)
	if monthPattern.MatchString(low) || companyNoise[low] {
		return ""
	}
	if countDigits(v) >= 4 {
		return ""
	}
	return v
}

func titleizeDomain(domain string) string {
	base, _, _ := strings.Cut(domain, ".")
	var parts []string
	for _, p := range strings.Fields(nonAlnum.ReplaceAllString(base, " ")) {
		parts = append(parts, capitalize(p))
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	if len(r) == 0 {
		return ""
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
