package fetch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// GuestPostingURL is the public endpoint serving a LinkedIn job posting without login.
const GuestPostingURL = "https://www.linkedin.com/jobs-guest/jobs/api/jobPosting/%s"

// Posting holds the fields read from a LinkedIn guest posting page.
type Posting struct {
	Title       string
	Company     string
	Location    string
	Description string
}

// GuestURL returns the guest posting URL for a numeric job id.
func GuestURL(jobID string) string {
	return fmt.Sprintf(GuestPostingURL, jobID)
}

// ParseGuestPosting extracts the "About the job" text and top card fields.
// An empty Description means the markup block was not found.
func ParseGuestPosting(html string) (*Posting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse posting HTML: %w", err)
	}

	posting := &Posting{
		Title:    firstText(doc, ".top-card-layout__title", ".topcard__title", "h2"),
		Company:  firstText(doc, ".topcard__org-name-link", ".topcard__flavor a", ".top-card-layout__second-subline a"),
		Location: firstText(doc, ".topcard__flavor--bullet", ".top-card-layout__second-subline .topcard__flavor:nth-child(2)"),
	}

	markup := doc.Find("div.show-more-less-html__markup").First()
	if markup.Length() > 0 {
		posting.Description = blockText(markup)
	}
	return posting, nil
}

func firstText(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if text := strings.Join(strings.Fields(doc.Find(selector).First().Text()), " "); text != "" {
			return text
		}
	}
	return ""
}
