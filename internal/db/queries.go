package db

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/jobmail-sync/internal/types"
)

// Statements are written with ? placeholders; rebind converts them for PostgreSQL.

const recordColumns = `id, record_key, company, role, location, link_url,
	description_original, description_translated,
	auto_status, manual_status, current_status,
	source_file, file_name, email_date, subject, body, content_hash,
	created_at, updated_at`

const upsertRecordSQL = `INSERT INTO opportunities (` + recordColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (record_key) DO UPDATE SET
	company = excluded.company,
	role = excluded.role,
	location = excluded.location,
	link_url = excluded.link_url,
	description_original = CASE WHEN opportunities.description_original = ''
		THEN excluded.description_original ELSE opportunities.description_original END,
	description_translated = CASE WHEN opportunities.description_translated = ''
		THEN excluded.description_translated ELSE opportunities.description_translated END,
	auto_status = excluded.auto_status,
	manual_status = COALESCE(opportunities.manual_status, excluded.manual_status),
	current_status = COALESCE(opportunities.manual_status, excluded.manual_status, excluded.auto_status),
	source_file = excluded.source_file,
	file_name = excluded.file_name,
	email_date = excluded.email_date,
	subject = excluded.subject,
	body = excluded.body,
	content_hash = excluded.content_hash,
	updated_at = CASE WHEN opportunities.content_hash = excluded.content_hash
		AND opportunities.auto_status = excluded.auto_status
		THEN opportunities.updated_at ELSE excluded.updated_at END`

const (
	selectPreviousSQL   = `SELECT content_hash, auto_status FROM opportunities WHERE record_key = ?`
	selectByKeySQL      = `SELECT ` + recordColumns + ` FROM opportunities WHERE record_key = ?`
	selectByIDSQL       = `SELECT ` + recordColumns + ` FROM opportunities WHERE id = ?`
	selectKeysSourceSQL = `SELECT record_key FROM opportunities WHERE source_file = ? ORDER BY record_key`
	statusCountsSQL     = `SELECT current_status, COUNT(*) FROM opportunities GROUP BY current_status`
	deleteAllSQL        = `DELETE FROM opportunities`
	selectPinSQL        = `SELECT status FROM status_pins WHERE record_key = ?`
	deletePinSQL        = `DELETE FROM status_pins WHERE record_key = ?`
	upsertPinSQL        = `INSERT INTO status_pins (record_key, status, updated_at) VALUES (?, ?, ?)
ON CONFLICT (record_key) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`
	setManualSQL = `UPDATE opportunities
SET manual_status = ?, current_status = COALESCE(?, auto_status), updated_at = ?
WHERE record_key = ?`
	updateDescriptionSQL = `UPDATE opportunities
SET description_original = ?, description_translated = ?, updated_at = ?
WHERE record_key = ?`
)

// rebind rewrites ? placeholders to $1..$n.
func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// rowScanner is satisfied by *sql.Row, *sql.Rows and pgx.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec                 Record
		auto, current       string
		manual              *string
		emailDate           *time.Time
		createdAt, updateAt time.Time
	)
	err := row.Scan(
		&rec.ID, &rec.RecordKey, &rec.Company, &rec.Role, &rec.Location, &rec.LinkURL,
		&rec.DescriptionOriginal, &rec.DescriptionTranslated,
		&auto, &manual, &current,
		&rec.SourceFile, &rec.FileName, &emailDate, &rec.Subject, &rec.Body, &rec.ContentHash,
		&createdAt, &updateAt,
	)
	if err != nil {
		return nil, err
	}
	rec.AutoStatus = types.Status(auto)
	rec.CurrentStatus = types.Status(current)
	if manual != nil && *manual != "" {
		rec.ManualStatus = types.StatusPtr(types.Status(*manual))
	}
	if emailDate != nil {
		d := emailDate.UTC()
		rec.EmailDate = &d
	}
	rec.CreatedAt = createdAt.UTC()
	rec.UpdatedAt = updateAt.UTC()
	return &rec, nil
}

// upsertArgs returns the positional arguments of upsertRecordSQL.
func upsertArgs(id uuid.UUID, key string, f RecordFields, hash string, now time.Time) []any {
	manual := coalesceStatus(f.ManualStatus)
	return []any{
		id, key, f.company(), f.Role, f.Location, f.LinkURL,
		f.DescriptionOriginal, f.DescriptionTranslated,
		string(f.AutoStatus), nullableStatus(manual), string(currentStatus(manual, f.AutoStatus)),
		f.SourceFile, f.FileName, nullableTime(f.EmailDate), f.Subject, f.Body, hash,
		now, now,
	}
}

func nullableStatus(s *types.Status) any {
	if s == nil || *s == "" {
		return nil
	}
	return string(*s)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
