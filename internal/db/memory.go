package db

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/jobmail-sync/internal/types"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	pins    map[string]types.Status
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		pins:    make(map[string]types.Status),
		now:     time.Now,
	}
}

func (m *MemoryStore) UpsertByIdentity(_ context.Context, key string, fields RecordFields) (UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	hash := fields.Hash()
	existing, ok := m.records[key]
	if !ok {
		manual := coalesceStatus(fields.ManualStatus)
		rec := &Record{
			ID:                    uuid.New(),
			RecordKey:             key,
			DescriptionOriginal:   fields.DescriptionOriginal,
			DescriptionTranslated: fields.DescriptionTranslated,
			ManualStatus:          manual,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		applyContent(rec, fields, hash)
		rec.CurrentStatus = currentStatus(manual, rec.AutoStatus)
		m.records[key] = rec
		return UpsertResult{ID: rec.ID, Created: true, Changed: true}, nil
	}

	changed := existing.ContentHash != hash || existing.AutoStatus != fields.AutoStatus
	applyContent(existing, fields, hash)
	existing.ManualStatus = coalesceStatus(existing.ManualStatus, fields.ManualStatus)
	existing.CurrentStatus = currentStatus(existing.ManualStatus, existing.AutoStatus)
	if existing.DescriptionOriginal == "" {
		existing.DescriptionOriginal = fields.DescriptionOriginal
	}
	if existing.DescriptionTranslated == "" {
		existing.DescriptionTranslated = fields.DescriptionTranslated
	}
	if changed {
		existing.UpdatedAt = now
	}
	return UpsertResult{ID: existing.ID, Changed: changed}, nil
}

func applyContent(rec *Record, fields RecordFields, hash string) {
	rec.Company = fields.company()
	rec.Role = fields.Role
	rec.Location = fields.Location
	rec.LinkURL = fields.LinkURL
	rec.AutoStatus = fields.AutoStatus
	rec.SourceFile = fields.SourceFile
	rec.FileName = fields.FileName
	rec.EmailDate = fields.EmailDate
	rec.Subject = fields.Subject
	rec.Body = fields.Body
	rec.ContentHash = hash
}

func (m *MemoryStore) GetByIdentity(_ context.Context, key string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

func (m *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.ID == id {
			return cloneRecord(rec), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) ListByStatus(_ context.Context, status types.Status) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, rec := range m.records {
		if rec.CurrentStatus == status {
			out = append(out, *cloneRecord(rec))
		}
	}
	SortRecords(out)
	return out, nil
}

// SortRecords orders records by company (case-insensitive), email date
// descending with undated records last, then file name.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		ca, cb := strings.ToLower(a.Company), strings.ToLower(b.Company)
		if ca != cb {
			return ca < cb
		}
		switch {
		case a.EmailDate != nil && b.EmailDate != nil && !a.EmailDate.Equal(*b.EmailDate):
			return a.EmailDate.After(*b.EmailDate)
		case a.EmailDate != nil && b.EmailDate == nil:
			return true
		case a.EmailDate == nil && b.EmailDate != nil:
			return false
		}
		return a.FileName < b.FileName
	})
}

func (m *MemoryStore) ListKeysBySource(_ context.Context, sourceFile string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for key, rec := range m.records {
		if rec.SourceFile == sourceFile {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) StatusCounts(_ context.Context) (map[types.Status]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[types.Status]int, len(types.StatusOrder))
	for _, s := range types.StatusOrder {
		counts[s] = 0
	}
	for _, rec := range m.records {
		counts[rec.CurrentStatus]++
	}
	return counts, nil
}

func (m *MemoryStore) DeleteWhereIdentityNotIn(_ context.Context, keys []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keep := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keep[k] = struct{}{}
	}
	removed := 0
	for key := range m.records {
		if _, ok := keep[key]; !ok {
			delete(m.records, key)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]*Record)
	return nil
}

func (m *MemoryStore) GetPin(_ context.Context, key string) (types.Status, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.pins[key]
	if !ok || !s.Valid() || s.IsDefault() {
		return "", false, nil
	}
	return s, true, nil
}

func (m *MemoryStore) SetPin(_ context.Context, key string, status *types.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !pinnable(status) {
		delete(m.pins, key)
		return nil
	}
	m.pins[key] = *status
	return nil
}

func (m *MemoryStore) SetManualStatus(_ context.Context, key string, status *types.Status) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	rec.ManualStatus = coalesceStatus(status)
	rec.CurrentStatus = currentStatus(rec.ManualStatus, rec.AutoStatus)
	rec.UpdatedAt = m.now().UTC()
	return cloneRecord(rec), nil
}

func (m *MemoryStore) UpdateDescription(_ context.Context, key, original, translated string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return ErrNotFound
	}
	rec.DescriptionOriginal = original
	rec.DescriptionTranslated = translated
	rec.UpdatedAt = m.now().UTC()
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func cloneRecord(rec *Record) *Record {
	c := *rec
	if rec.ManualStatus != nil {
		s := *rec.ManualStatus
		c.ManualStatus = &s
	}
	if rec.EmailDate != nil {
		d := *rec.EmailDate
		c.EmailDate = &d
	}
	return &c
}
