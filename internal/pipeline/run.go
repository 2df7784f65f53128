// Package pipeline provides the synchronization engine that turns a folder of exported
// emails into persisted opportunity records.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/jobmail-sync/internal/classify"
	"github.com/jonathan/jobmail-sync/internal/db"
	"github.com/jonathan/jobmail-sync/internal/enrichment"
	"github.com/jonathan/jobmail-sync/internal/ingestion"
	"github.com/jonathan/jobmail-sync/internal/translate"
	"github.com/jonathan/jobmail-sync/internal/types"
)

// Progress steps reported through ProgressCallback.
const (
	StepSnapshot  = "snapshot"
	StepScan      = "scan"
	StepParse     = "parse"
	StepMerge     = "merge"
	StepTombstone = "tombstone"
	StepDone      = "done"
)

// ProgressEvent represents a progress update during a sync pass
type ProgressEvent struct {
	Step    string    `json:"step"`
	Message string    `json:"message"`
	RunID   uuid.UUID `json:"run_id"`
	Key     string    `json:"key,omitempty"`
}

// ProgressCallback is called when sync progress occurs
type ProgressCallback func(event ProgressEvent)

// Source supplies the items of one sync pass.
type Source interface {
	Items(ctx context.Context) ([]types.SourceItem, []*ingestion.SourceError, error)
}

// Options configures an Engine.
type Options struct {
	Store          db.Store
	Source         Source
	Enricher       enrichment.Enricher // nil stores the email excerpt as description
	TargetLanguage string
	Workers        int
	Verbose        bool
	OnProgress     ProgressCallback
}

// Engine runs sync passes and status changes against a Store.
type Engine struct {
	store      db.Store
	source     Source
	enricher   enrichment.Enricher
	target     string
	workers    int
	verbose    bool
	onProgress ProgressCallback

	// one pass at a time; the merge step relies on it
	mu sync.Mutex
}

// New creates an Engine.
func New(opts Options) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	target := opts.TargetLanguage
	if target == "" {
		target = translate.DefaultTargetLanguage
	}
	return &Engine{
		store:      opts.Store,
		source:     opts.Source,
		enricher:   opts.Enricher,
		target:     target,
		workers:    workers,
		verbose:    opts.Verbose,
		onProgress: opts.OnProgress,
	}
}

func (e *Engine) emit(runID uuid.UUID, step, key, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if e.verbose {
		log.Printf("[VERBOSE] [%s] %s", step, msg)
	}
	if e.onProgress != nil {
		e.onProgress(ProgressEvent{Step: step, Message: msg, RunID: runID, Key: key})
	}
}

// Sync runs one full pass over the source: pins are snapshotted, every item is analyzed
// and merged into the store, and records not derived in this pass are deleted.
// Per-item read and enrichment failures are reported in the summary; a store failure
// aborts the pass and is returned.
func (e *Engine) Sync(ctx context.Context) (types.SyncSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sync(ctx)
}

func (e *Engine) sync(ctx context.Context) (types.SyncSummary, error) {
	summary := types.SyncSummary{RunID: uuid.New()}
	if e.source == nil {
		return summary, fmt.Errorf("sync requires a source")
	}
	if rs, ok := e.enricher.(enrichment.RunScoped); ok {
		rs.BeginRun()
	}

	pinned, err := e.snapshotPins(ctx)
	if err != nil {
		return summary, err
	}
	e.emit(summary.RunID, StepSnapshot, "", "pinned %d non-incoming statuses", pinned)

	items, failures, err := e.source.Items(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to read source: %w", err)
	}
	summary.Scanned = len(items) + len(failures)
	e.emit(summary.RunID, StepScan, "", "scanned %d items, %d unreadable", summary.Scanned, len(failures))

	// keys of unreadable items survive the pass
	seen := make(map[string]bool)
	for _, f := range failures {
		log.Printf("[SYNC] skipped %s: %s", f.Path, f.Message)
		summary.Skipped = append(summary.Skipped, types.SkippedItem{Path: f.Path, Reason: f.Error()})
		keys, err := e.keysOf(ctx, f)
		if err != nil {
			return summary, fmt.Errorf("failed to list records of %s: %w", f.Path, err)
		}
		for _, k := range keys {
			seen[k] = true
		}
	}

	analyses, err := e.analyzeAll(ctx, items)
	if err != nil {
		return summary, err
	}
	e.emit(summary.RunID, StepParse, "", "analyzed %d items", len(analyses))

	for _, a := range analyses {
		if a.NeedsReview {
			summary.NeedsReview = append(summary.NeedsReview, a.Item.Path)
		}
	}
	for _, w := range lastWriters(analyses) {
		seen[w.target.Key] = true
		if err := e.merge(ctx, &summary, w.analysis, w.target); err != nil {
			return summary, err
		}
	}

	keep := make([]string, 0, len(seen))
	for k := range seen {
		keep = append(keep, k)
	}
	sort.Strings(keep)
	removed, err := e.store.DeleteWhereIdentityNotIn(ctx, keep)
	if err != nil {
		return summary, fmt.Errorf("failed to remove stale records: %w", err)
	}
	summary.Removed = removed
	e.emit(summary.RunID, StepTombstone, "", "removed %d stale records", removed)

	log.Printf("[SYNC] run %s: scanned=%d created=%d updated=%d unchanged=%d removed=%d skipped=%d",
		summary.RunID, summary.Scanned, summary.Created, summary.Updated, summary.Unchanged,
		summary.Removed, len(summary.Skipped))
	e.emit(summary.RunID, StepDone, "", "sync complete")
	return summary, nil
}

// keysOf returns the record keys derived from an unreadable file, or from any file below
// an unreadable folder.
func (e *Engine) keysOf(ctx context.Context, f *ingestion.SourceError) ([]string, error) {
	if !f.Dir {
		return e.store.ListKeysBySource(ctx, f.Path)
	}
	prefix := strings.TrimRight(f.Path, `/\`) + string(filepath.Separator)
	var keys []string
	for _, status := range types.StatusOrder {
		records, err := e.store.ListByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			if strings.HasPrefix(r.SourceFile, prefix) {
				keys = append(keys, r.RecordKey)
			}
		}
	}
	return keys, nil
}

// analyzeAll runs Analyze over items in parallel and returns the results in processing
// order: weaker automatic statuses first, then by lowercase file name, so stronger
// signals are merged last.
func (e *Engine) analyzeAll(ctx context.Context, items []types.SourceItem) ([]Analysis, error) {
	results := make([]Analysis, len(items))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, item := range items {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = Analyze(item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to analyze items: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		pi, pj := classify.StatusPriority(results[i].Status), classify.StatusPriority(results[j].Status)
		if pi != pj {
			return pi < pj
		}
		ni, nj := strings.ToLower(results[i].Item.DisplayName), strings.ToLower(results[j].Item.DisplayName)
		if ni != nj {
			return ni < nj
		}
		return results[i].Item.Path < results[j].Item.Path
	})
	return results, nil
}

type write struct {
	analysis Analysis
	target   Target
}

// lastWriters flattens the targets of analyses in processing order, keeping only the
// last item for each key so a key is written once per pass.
func lastWriters(analyses []Analysis) []write {
	last := make(map[string]int)
	var all []write
	for _, a := range analyses {
		for _, t := range a.Targets {
			last[t.Key] = len(all)
			all = append(all, write{analysis: a, target: t})
		}
	}
	out := make([]write, 0, len(last))
	for i, w := range all {
		if last[w.target.Key] == i {
			out = append(out, w)
		}
	}
	return out
}

// merge applies the insert or merge rule for one target.
func (e *Engine) merge(ctx context.Context, summary *types.SyncSummary, a Analysis, t Target) error {
	fields := a.Fields(t)

	pin, ok, err := e.store.GetPin(ctx, t.Key)
	if err != nil {
		return fmt.Errorf("failed to read pin for %s: %w", t.Key, err)
	}
	if ok {
		fields.ManualStatus = types.StatusPtr(pin)
	}

	res, err := e.store.UpsertByIdentity(ctx, t.Key, fields)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", t.Key, err)
	}

	switch {
	case res.Created:
		summary.Created++
		e.emit(summary.RunID, StepMerge, t.Key, "created %s (%s)", t.Key, a.Item.DisplayName)
		if e.enrich(ctx, t.Key, t.Link, a.Parsed.DescriptionText) {
			summary.Enriched++
		}
	case res.Changed:
		summary.Updated++
		e.emit(summary.RunID, StepMerge, t.Key, "updated %s (%s)", t.Key, a.Item.DisplayName)
	default:
		summary.Unchanged++
	}
	return nil
}

// enrich stores the description of a newly created record. Failures never abort the pass.
func (e *Engine) enrich(ctx context.Context, key, link, fallback string) bool {
	d := enrichment.Describe(ctx, e.enricher, link, fallback, e.target)
	if d.Original == "" {
		return false
	}
	if err := e.store.UpdateDescription(ctx, key, d.Original, d.Translated); err != nil {
		log.Printf("[SYNC] failed to store description for %s: %v", key, err)
		return false
	}
	return d.Fetched
}

// snapshotPins records every non-incoming current status as a pin, so a record that is
// tombstoned and later reappears comes back with the status it had.
func (e *Engine) snapshotPins(ctx context.Context) (int, error) {
	count := 0
	for _, status := range types.StatusOrder {
		if status.IsDefault() {
			continue
		}
		records, err := e.store.ListByStatus(ctx, status)
		if err != nil {
			return count, fmt.Errorf("failed to list %s records: %w", status, err)
		}
		for _, r := range records {
			current := r.CurrentStatus
			if err := e.store.SetPin(ctx, r.RecordKey, &current); err != nil {
				return count, fmt.Errorf("failed to pin %s: %w", r.RecordKey, err)
			}
			count++
		}
	}
	return count, nil
}
