package db

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/jobmail-sync/internal/joblinks"
	"github.com/jonathan/jobmail-sync/internal/types"
)

// UnknownCompany is stored when no company could be recovered.
const UnknownCompany = "Unknown"

// Record is one persisted opportunity, unique by RecordKey.
type Record struct {
	ID                    uuid.UUID     `json:"id"`
	RecordKey             string        `json:"record_key"`
	Company               string        `json:"company"`
	Role                  string        `json:"role"`
	Location              string        `json:"location"`
	LinkURL               string        `json:"link_url,omitempty"`
	DescriptionOriginal   string        `json:"description_original,omitempty"`
	DescriptionTranslated string        `json:"description_translated,omitempty"`
	AutoStatus            types.Status  `json:"auto_status"`
	ManualStatus          *types.Status `json:"manual_status,omitempty"`
	CurrentStatus         types.Status  `json:"current_status"`
	SourceFile            string        `json:"source_file"`
	FileName              string        `json:"file_name"`
	EmailDate             *time.Time    `json:"email_date,omitempty"`
	Subject               string        `json:"subject,omitempty"`
	Body                  string        `json:"-"`
	ContentHash           string        `json:"-"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

// CanonicalLink returns the canonical form of the record's link.
func (r *Record) CanonicalLink() string {
	if r.LinkURL == "" {
		return ""
	}
	return joblinks.Canonicalize(r.LinkURL)
}

// Description returns the translated description when present, else the original.
func (r *Record) Description() string {
	if r.DescriptionTranslated != "" {
		return r.DescriptionTranslated
	}
	return r.DescriptionOriginal
}

// RecordFields are the values written by UpsertByIdentity.
type RecordFields struct {
	Company               string
	Role                  string
	Location              string
	LinkURL               string
	DescriptionOriginal   string
	DescriptionTranslated string
	AutoStatus            types.Status
	ManualStatus          *types.Status
	SourceFile            string
	FileName              string
	EmailDate             *time.Time
	Subject               string
	Body                  string
}

// Hash returns the content hash of the fields that come from the source item.
// Descriptions and statuses are excluded.
func (f RecordFields) Hash() string {
	date := ""
	if f.EmailDate != nil {
		date = f.EmailDate.UTC().Format(time.RFC3339)
	}
	return HashContent(strings.Join([]string{
		f.Company, f.Role, f.Location, f.LinkURL,
		f.SourceFile, f.FileName, date, f.Subject, f.Body,
	}, "\x1f"))
}

// company returns the company to store, substituting the Unknown sentinel.
func (f RecordFields) company() string {
	if strings.TrimSpace(f.Company) == "" {
		return UnknownCompany
	}
	return f.Company
}

// UpsertResult reports what UpsertByIdentity did.
type UpsertResult struct {
	ID      uuid.UUID
	Created bool
	Changed bool // false when an existing record was re-derived unchanged
}

// HashContent computes SHA256 hash of content and returns hex string
func HashContent(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// currentStatus returns manual when set, else auto.
func currentStatus(manual *types.Status, auto types.Status) types.Status {
	if manual != nil && *manual != "" {
		return *manual
	}
	return auto
}

// coalesceStatus returns the first non-empty status pointer.
func coalesceStatus(values ...*types.Status) *types.Status {
	for _, v := range values {
		if v != nil && *v != "" {
			s := *v
			return &s
		}
	}
	return nil
}
