// Package enrichment fetches job descriptions for links found in mail and
// hands them to a translator. Every operation is best-effort.
package enrichment

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/jonathan/jobmail-sync/internal/fetch"
	"github.com/jonathan/jobmail-sync/internal/joblinks"
	"github.com/jonathan/jobmail-sync/internal/translate"
)

var (
	// ErrNoPostingID is returned for links that do not name a single posting
	// (company job lists, searches).
	ErrNoPostingID = errors.New("link does not identify a job posting")
	// ErrDescriptionNotFound is returned when the page has no description block.
	ErrDescriptionNotFound = errors.New("job description not found")
	// ErrTranslationDisabled is returned by Translate when no translator is configured.
	ErrTranslationDisabled = errors.New("translation disabled")
)

// Enricher is the description collaborator used by the sync engine.
type Enricher interface {
	FetchDescription(ctx context.Context, link string) (string, error)
	Translate(ctx context.Context, text, target string) (string, error)
}

// RunScoped is implemented by enrichers holding per-run state.
type RunScoped interface {
	BeginRun()
}

// Options configures a Service.
type Options struct {
	Fetcher    *fetch.CachedFetcher
	Translator translate.Translator // nil disables translation
	// GuestURL maps a LinkedIn job id to a fetchable URL. Defaults to fetch.GuestURL.
	GuestURL func(jobID string) string
	Verbose  bool
}

// Service fetches descriptions over HTTP and translates them.
type Service struct {
	fetcher    *fetch.CachedFetcher
	translator translate.Translator
	guestURL   func(string) string
	verbose    bool
}

// New creates a Service.
func New(opts Options) *Service {
	if opts.Fetcher == nil {
		opts.Fetcher = fetch.NewCachedFetcher(nil)
	}
	if opts.GuestURL == nil {
		opts.GuestURL = fetch.GuestURL
	}
	return &Service{
		fetcher:    opts.Fetcher,
		translator: opts.Translator,
		guestURL:   opts.GuestURL,
		verbose:    opts.Verbose,
	}
}

// BeginRun clears run-scoped translator state such as blocked providers.
func (s *Service) BeginRun() {
	if r, ok := s.translator.(interface{ Reset() }); ok {
		r.Reset()
	}
}

// FetchDescription returns the description text of the posting behind link.
func (s *Service) FetchDescription(ctx context.Context, link string) (string, error) {
	if link == "" {
		return "", ErrNoPostingID
	}
	if id := joblinks.JobID(link); id != "" {
		return s.fetchLinkedIn(ctx, id)
	}
	if fetch.DetectPlatform(link) == fetch.PlatformLinkedIn {
		return "", ErrNoPostingID
	}

	page, err := s.fetcher.Page(ctx, link)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(page.Text)
	if text == "" {
		return "", ErrDescriptionNotFound
	}
	return text, nil
}

func (s *Service) fetchLinkedIn(ctx context.Context, jobID string) (string, error) {
	res, err := s.fetcher.Fetch(ctx, s.guestURL(jobID))
	if err != nil {
		return "", err
	}
	posting, err := fetch.ParseGuestPosting(res.HTML)
	if err != nil {
		return "", err
	}
	if posting.Description == "" {
		return "", ErrDescriptionNotFound
	}
	if s.verbose {
		log.Printf("[FETCH] job %s: %d chars of description", jobID, len(posting.Description))
	}
	return posting.Description, nil
}

// Translate translates text into target.
func (s *Service) Translate(ctx context.Context, text, target string) (string, error) {
	if s.translator == nil {
		return "", ErrTranslationDisabled
	}
	return s.translator.Translate(ctx, text, target)
}

// Description is the outcome of Describe.
type Description struct {
	Original   string
	Translated string
	Fetched    bool // Original came from the posting rather than the fallback
}

// Describe fetches the description for link, falling back to fallback text,
// then translates it. Failures are logged and never returned; a failed
// translation stores the original text as the translation.
func Describe(ctx context.Context, e Enricher, link, fallback, target string) Description {
	var d Description
	if e == nil {
		d.Original = fallback
		return d
	}

	if link != "" {
		text, err := e.FetchDescription(ctx, link)
		switch {
		case err == nil:
			d.Original = text
			d.Fetched = true
		case errors.Is(err, ErrNoPostingID):
		default:
			log.Printf("[FETCH] description for %s: %v", link, err)
		}
	}
	if d.Original == "" {
		d.Original = strings.TrimSpace(fallback)
	}
	if d.Original == "" {
		return d
	}

	translated, err := e.Translate(ctx, d.Original, target)
	switch {
	case errors.Is(err, ErrTranslationDisabled):
		return d
	case err != nil:
		log.Printf("[TRANSLATE] %v", err)
	}
	if strings.TrimSpace(translated) == "" {
		translated = d.Original
	}
	d.Translated = translated
	return d
}
