package parsing

import (
	"regexp"
	"strings"

	"github.com/jonathan/jobmail-sync/internal/joblinks"
)

// UnknownCompany is the sentinel company of offers whose company could not be recovered.
const UnknownCompany = "Unknown"

// Offer is one posting announced in a job-alert digest.
type Offer struct {
	Link     string // canonical
	Role     string
	Company  string
	Location string
}

var viewJobLine = regexp.MustCompile(`(?i)(?:View job|См\.\s*вакансию)\s*:\s*(https?://\S+)`)

var offerNoiseMarkers = []string{
	"view job",
	"ссылка",
	"см. вакансию",
	"apply now",
	"apply with resume",
	"apply with profile",
	"linkedin",
	"jobs similar",
	"job alert",
	"оповещени",
	"unsubscribe",
	"notifications",
	"this company is actively hiring",
	"эта компания активно нанимает новых сотрудников",
	"эта компания активно нанимает",
	"компания активно нанимает",
	"החברה מגייסת עובדים",
	"actively hiring",
}

var notLocationMarkers = []string{
	"engineer",
	"developer",
	"administrator",
	"specialist",
	"manager",
	"support",
	"resume",
	"profile",
	"hiring",
	"нанимает",
	"вакан",
	"позици",
	"должност",
	"компания",
	"this company",
}

// maxLocationTokens bounds how many words a location line may have.
const maxLocationTokens = 7

// Offers parses the "View job: <url>" blocks of a digest. Each block is read upwards from
// its link line: location first, then company, then role, skipping noise lines. Offers are
// keyed and deduplicated by canonical link and returned in order of appearance.
func Offers(text string) []Offer {
	lines := strings.Split(text, "\n")
	var offers []Offer
	seen := make(map[string]bool)

	for idx, line := range lines {
		m := viewJobLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		link := joblinks.Canonicalize(strings.TrimRight(strings.TrimSpace(m[1]), ".,;)"))
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true

		var location, company, role string
		for j := idx - 1; j >= 0 && (location == "" || company == "" || role == ""); j-- {
			candidate := CleanOfferLine(lines[j])
			if isOfferNoise(candidate) {
				continue
			}
			if location == "" {
				if looksLikeLocation(candidate) {
					location = candidate
				}
				continue
			}
			if company == "" {
				company = candidate
				continue
			}
			role = candidate
		}

		if company == "" {
			company = UnknownCompany
		}
		offers = append(offers, Offer{Link: link, Role: role, Company: company, Location: location})
	}
	return offers
}

// CleanOfferLine collapses whitespace and trims list decorations from a digest line.
func CleanOfferLine(line string) string {
	cleaned := strings.Join(strings.Fields(line), " ")
	return strings.Trim(cleaned, " -–—|•:;,.")
}

func isOfferNoise(line string) bool {
	lowered := strings.ToLower(line)
	if lowered == "" {
		return true
	}
	if strings.Contains(lowered, "http") {
		return true
	}
	for _, marker := range offerNoiseMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func looksLikeLocation(line string) bool {
	text := strings.TrimSpace(line)
	if text == "" {
		return false
	}
	lowered := strings.ToLower(text)
	for _, m := range notLocationMarkers {
		if strings.Contains(lowered, m) {
			return false
		}
	}
	tokens := strings.Fields(text)
	if len(tokens) > maxLocationTokens {
		return false
	}
	if len(tokens) == 1 && len([]rune(tokens[0])) <= 2 {
		return false
	}
	return true
}
