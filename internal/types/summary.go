package types

import "github.com/google/uuid"

// SkippedItem is a source item that could not be read or parsed in a sync pass.
type SkippedItem struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// SyncSummary reports the outcome of one synchronization pass.
type SyncSummary struct {
	RunID       uuid.UUID     `json:"run_id"`
	Scanned     int           `json:"scanned"`
	Created     int           `json:"created"`
	Updated     int           `json:"updated"`
	Unchanged   int           `json:"unchanged"`
	Removed     int           `json:"removed"`
	Skipped     []SkippedItem `json:"skipped,omitempty"`
	NeedsReview []string      `json:"needs_review,omitempty"`
	Enriched    int           `json:"enriched"`
}

// Seen returns the number of records created, updated or left unchanged in the pass.
func (s SyncSummary) Seen() int {
	return s.Created + s.Updated + s.Unchanged
}
