package pipeline

import (
	"html"
	"strings"

	"github.com/jonathan/jobmail-sync/internal/classify"
	"github.com/jonathan/jobmail-sync/internal/db"
	"github.com/jonathan/jobmail-sync/internal/identity"
	"github.com/jonathan/jobmail-sync/internal/ingestion"
	"github.com/jonathan/jobmail-sync/internal/joblinks"
	"github.com/jonathan/jobmail-sync/internal/parsing"
	"github.com/jonathan/jobmail-sync/internal/types"
)

// Target is one opportunity an item resolves to.
type Target struct {
	Key      string
	Link     string // stored (display) link
	Company  string
	Role     string
	Location string
}

// Analysis is everything derived from one source item before persistence.
// It is computed without touching the store, so items can be analyzed in parallel.
type Analysis struct {
	Item        types.SourceItem
	Parsed      types.ParsedOpportunity
	Status      types.Status
	Targets     []Target
	NeedsReview bool
}

// Analyze normalizes, extracts, classifies and derives the identity keys of one item.
func Analyze(item types.SourceItem) Analysis {
	parsed := parsing.ParseEmail(item)
	normalized := ingestion.Normalize(item.Content)
	text := linkText(item.Content)

	fallbackCompany := parsed.Company
	if fallbackCompany == "" {
		fallbackCompany = db.UnknownCompany
	}

	offers := make(map[string]parsing.Offer)
	for _, o := range parsing.Offers(text) {
		offers[o.Link] = o
	}

	links := joblinks.Extract(item.Content)
	if len(links) == 0 && parsed.JobLink != "" && joblinks.IsATS(parsed.JobLink) {
		links = []joblinks.Link{{Raw: parsed.JobLink, Canonical: joblinks.Canonicalize(parsed.JobLink)}}
	}

	a := Analysis{
		Item:   item,
		Parsed: parsed,
		Status: classify.InferStatus(normalized, len(links) > 0),
	}
	a.NeedsReview = classify.NeedsReview(normalized, a.Status)

	// without a link the key comes from the offer fields, the file only when those are missing
	if len(links) == 0 {
		a.Targets = []Target{{
			Key: identity.Derive(identity.Candidate{
				Company:    parsed.Company,
				Role:       parsed.Role,
				Location:   parsed.Location,
				SourceFile: item.Path,
			}),
			Company:  fallbackCompany,
			Role:     parsed.Role,
			Location: parsed.Location,
		}}
		return a
	}

	seen := make(map[string]bool, len(links))
	for _, link := range links {
		var fields parsing.LinkFields
		if o, ok := offers[link.Canonical]; ok {
			fields = parsing.LinkFields{Role: o.Role, Company: o.Company, Location: o.Location}
		} else {
			fields = parsing.FieldsForLink(text, parsed.Subject, link, fallbackCompany)
		}
		if fields.Company == "" {
			fields.Company = fallbackCompany
		}

		keyLink := link.Canonical
		if keyLink == "" {
			keyLink = link.Raw
		}
		key := identity.Derive(identity.Candidate{
			Link:       keyLink,
			Company:    fields.Company,
			Role:       fields.Role,
			Location:   fields.Location,
			SourceFile: item.Path,
		})
		if seen[key] {
			continue
		}
		seen[key] = true

		stored := link.Raw
		if stored == "" {
			stored = link.Canonical
		}
		a.Targets = append(a.Targets, Target{
			Key:      key,
			Link:     stored,
			Company:  fields.Company,
			Role:     fields.Role,
			Location: fields.Location,
		})
	}
	return a
}

// Fields builds the record fields of one target. The manual status is left for the caller.
func (a Analysis) Fields(t Target) db.RecordFields {
	return db.RecordFields{
		Company:    t.Company,
		Role:       t.Role,
		Location:   t.Location,
		LinkURL:    t.Link,
		AutoStatus: a.Status,
		SourceFile: a.Item.Path,
		FileName:   a.Item.DisplayName,
		EmailDate:  a.Parsed.SourceDate,
		Subject:    a.Parsed.Subject,
		Body:       a.Item.Content,
	}
}

// Keys returns the identity keys of the analysis in target order.
func (a Analysis) Keys() []string {
	keys := make([]string, len(a.Targets))
	for i, t := range a.Targets {
		keys[i] = t.Key
	}
	return keys
}

// linkText is the raw content with entities decoded and LF line endings, the form
// link-context heuristics expect.
func linkText(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	return html.UnescapeString(text)
}
