package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/jobmail-sync/internal/db"
	"github.com/jonathan/jobmail-sync/internal/enrichment"
	"github.com/jonathan/jobmail-sync/internal/ingestion"
	"github.com/jonathan/jobmail-sync/internal/parsing"
	"github.com/jonathan/jobmail-sync/internal/translate"
	"github.com/jonathan/jobmail-sync/internal/types"
)

// Resolve finds a record by id (a UUID) or by record key.
func (e *Engine) Resolve(ctx context.Context, ref string) (*db.Record, error) {
	ref = strings.TrimSpace(ref)
	var (
		rec *db.Record
		err error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		rec, err = e.store.GetByID(ctx, id)
	} else {
		rec, err = e.store.GetByIdentity(ctx, ref)
	}
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", db.ErrNotFound, ref)
	}
	return rec, nil
}

// SetStatus sets or clears (status nil) the manual status of a record and updates its pin.
// Setting the default incoming status, or clearing, removes the pin.
func (e *Engine) SetStatus(ctx context.Context, ref string, status *types.Status) (*db.Record, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidStatus, *status)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	rec, err = e.store.SetManualStatus(ctx, rec.RecordKey, status)
	if err != nil {
		return nil, fmt.Errorf("failed to set status of %s: %w", ref, err)
	}
	if err := e.store.SetPin(ctx, rec.RecordKey, status); err != nil {
		return nil, fmt.Errorf("failed to pin status of %s: %w", ref, err)
	}
	log.Printf("[SYNC] %s status set to %s", rec.RecordKey, rec.CurrentStatus)
	return rec, nil
}

// Reset pins every non-incoming status, deletes all records and runs a full sync.
func (e *Engine) Reset(ctx context.Context) (types.SyncSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pinned, err := e.snapshotPins(ctx)
	if err != nil {
		return types.SyncSummary{}, err
	}
	if err := e.store.DeleteAll(ctx); err != nil {
		return types.SyncSummary{}, fmt.Errorf("failed to delete records: %w", err)
	}
	log.Printf("[SYNC] reset: pinned %d statuses and deleted all records", pinned)
	return e.sync(ctx)
}

// RefreshDescription makes sure a record has a description and a translation of it.
// A record without a stored description is fetched from its link, falling back to the
// excerpt of its email body.
func (e *Engine) RefreshDescription(ctx context.Context, ref string) (*db.Record, error) {
	rec, err := e.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if rs, ok := e.enricher.(enrichment.RunScoped); ok {
		rs.BeginRun()
	}

	original, translated := rec.DescriptionOriginal, rec.DescriptionTranslated
	if original == "" {
		fallback := parsing.Description(ingestion.Normalize(rec.Body))
		d := enrichment.Describe(ctx, e.enricher, rec.LinkURL, fallback, e.target)
		original, translated = d.Original, d.Translated
	} else if e.needsTranslation(original, translated) {
		if t, err := e.translate(ctx, original); err == nil {
			translated = t
		} else if !errors.Is(err, enrichment.ErrTranslationDisabled) {
			log.Printf("[TRANSLATE] %s: %v", rec.RecordKey, err)
		}
	}

	if original == rec.DescriptionOriginal && translated == rec.DescriptionTranslated {
		return rec, nil
	}
	if err := e.store.UpdateDescription(ctx, rec.RecordKey, original, translated); err != nil {
		return nil, fmt.Errorf("failed to store description of %s: %w", rec.RecordKey, err)
	}
	return e.store.GetByIdentity(ctx, rec.RecordKey)
}

// TranslateResult reports a TranslateExisting pass.
type TranslateResult struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// TranslateExisting translates stored descriptions whose translation is missing or
// is not in the target language.
func (e *Engine) TranslateExisting(ctx context.Context) (TranslateResult, error) {
	var res TranslateResult
	if e.enricher == nil {
		return res, enrichment.ErrTranslationDisabled
	}
	if rs, ok := e.enricher.(enrichment.RunScoped); ok {
		rs.BeginRun()
	}

	for _, status := range types.StatusOrder {
		records, err := e.store.ListByStatus(ctx, status)
		if err != nil {
			return res, fmt.Errorf("failed to list %s records: %w", status, err)
		}
		for _, rec := range records {
			if strings.TrimSpace(rec.DescriptionOriginal) == "" {
				continue
			}
			res.Checked++
			if !e.needsTranslation(rec.DescriptionOriginal, rec.DescriptionTranslated) {
				continue
			}
			translated, err := e.translate(ctx, rec.DescriptionOriginal)
			if errors.Is(err, enrichment.ErrTranslationDisabled) {
				return res, err
			}
			if err != nil || translated == "" || translated == rec.DescriptionOriginal {
				if err != nil {
					log.Printf("[TRANSLATE] %s: %v", rec.RecordKey, err)
				}
				res.Failed++
				continue
			}
			if err := e.store.UpdateDescription(ctx, rec.RecordKey, rec.DescriptionOriginal, translated); err != nil {
				return res, fmt.Errorf("failed to store translation of %s: %w", rec.RecordKey, err)
			}
			res.Updated++
		}
	}
	log.Printf("[TRANSLATE] checked=%d updated=%d failed=%d", res.Checked, res.Updated, res.Failed)
	return res, nil
}

func (e *Engine) translate(ctx context.Context, text string) (string, error) {
	if e.enricher == nil {
		return "", enrichment.ErrTranslationDisabled
	}
	return e.enricher.Translate(ctx, text, e.target)
}

// needsTranslation reports whether original still lacks a usable translation.
func (e *Engine) needsTranslation(original, translated string) bool {
	if translate.InTargetLanguage(original, e.target) {
		return false
	}
	if strings.TrimSpace(translated) == "" || translated == original {
		return true
	}
	return e.target == translate.DefaultTargetLanguage && !translate.LooksRussian(translated)
}

// StatusCounts returns the number of records per status, with every known status present.
func (e *Engine) StatusCounts(ctx context.Context) (map[types.Status]int, error) {
	counts, err := e.store.StatusCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	out := make(map[types.Status]int, len(types.StatusOrder))
	for _, s := range types.StatusOrder {
		out[s] = counts[s]
	}
	return out, nil
}

// List returns the records with the given current status.
func (e *Engine) List(ctx context.Context, status types.Status) ([]db.Record, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidStatus, status)
	}
	return e.store.ListByStatus(ctx, status)
}
