package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jonathan/jobmail-sync/internal/types"
)

// SQLiteStore is the default local Store.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) a SQLite database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("open: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("open: create db dir: %w", err)
	}

	dsn := "file:" + path + "?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: sql open: %w", err)
	}
	// Single writer; avoids SQLITE_BUSY between pooled connections.
	database.SetMaxOpenConns(1)

	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("open: ping: %w", err)
	}
	if err := RunMigrations(ctx, database, DriverSQLite); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("open: migrate: %w", err)
	}
	return NewSQLiteStore(database), nil
}

// NewSQLiteStore wraps an already migrated database handle.
func NewSQLiteStore(database *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: database, now: time.Now}
}

func (s *SQLiteStore) UpsertByIdentity(ctx context.Context, key string, fields RecordFields) (UpsertResult, error) {
	hash := fields.Hash()
	now := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UpsertResult{}, persistErr("begin upsert", key, err)
	}
	defer func() { _ = tx.Rollback() }()

	var prevHash, prevAuto string
	created := false
	err = tx.QueryRowContext(ctx, selectPreviousSQL, key).Scan(&prevHash, &prevAuto)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		created = true
	case err != nil:
		return UpsertResult{}, persistErr("read previous", key, err)
	}

	if _, err := tx.ExecContext(ctx, upsertRecordSQL, upsertArgs(uuid.New(), key, fields, hash, now)...); err != nil {
		return UpsertResult{}, persistErr("upsert", key, err)
	}

	var id uuid.UUID
	if err := tx.QueryRowContext(ctx, `SELECT id FROM opportunities WHERE record_key = ?`, key).Scan(&id); err != nil {
		return UpsertResult{}, persistErr("read id", key, err)
	}
	if err := tx.Commit(); err != nil {
		return UpsertResult{}, persistErr("commit upsert", key, err)
	}

	changed := created || prevHash != hash || prevAuto != string(fields.AutoStatus)
	return UpsertResult{ID: id, Created: created, Changed: changed}, nil
}

func (s *SQLiteStore) GetByIdentity(ctx context.Context, key string) (*Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectByKeySQL, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, persistErr("get record", key, err)
	}
	return rec, nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectByIDSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, persistErr("get record", id.String(), err)
	}
	return rec, nil
}

func (s *SQLiteStore) ListByStatus(ctx context.Context, status types.Status) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM opportunities WHERE current_status = ?
		 ORDER BY company COLLATE NOCASE, email_date DESC, file_name`,
		string(status),
	)
	if err != nil {
		return nil, persistErr("list records", string(status), err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, persistErr("scan record", string(status), err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list records", string(status), err)
	}
	return records, nil
}

func (s *SQLiteStore) ListKeysBySource(ctx context.Context, sourceFile string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, selectKeysSourceSQL, sourceFile)
	if err != nil {
		return nil, persistErr("list keys", sourceFile, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, persistErr("scan key", sourceFile, err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) StatusCounts(ctx context.Context) (map[types.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, statusCountsSQL)
	if err != nil {
		return nil, persistErr("status counts", "", err)
	}
	defer rows.Close()

	counts := make(map[types.Status]int, len(types.StatusOrder))
	for _, st := range types.StatusOrder {
		counts[st] = 0
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, persistErr("scan status count", "", err)
		}
		counts[types.Status(status)] = n
	}
	return counts, rows.Err()
}

// DeleteWhereIdentityNotIn removes every record whose key is not in keys.
func (s *SQLiteStore) DeleteWhereIdentityNotIn(ctx context.Context, keys []string) (int, error) {
	keep := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keep[k] = struct{}{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, persistErr("begin delete", "", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT record_key FROM opportunities`)
	if err != nil {
		return 0, persistErr("list keys", "", err)
	}
	var stale []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return 0, persistErr("scan key", "", err)
		}
		if _, ok := keep[key]; !ok {
			stale = append(stale, key)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, persistErr("list keys", "", err)
	}

	for _, key := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM opportunities WHERE record_key = ?`, key); err != nil {
			return 0, persistErr("delete record", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, persistErr("commit delete", "", err)
	}
	return len(stale), nil
}

func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, deleteAllSQL); err != nil {
		return persistErr("delete all", "", err)
	}
	return nil
}

func (s *SQLiteStore) GetPin(ctx context.Context, key string) (types.Status, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, selectPinSQL, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, persistErr("get pin", key, err)
	}
	status := types.Status(raw)
	if !status.Valid() || status.IsDefault() {
		return "", false, nil
	}
	return status, true, nil
}

func (s *SQLiteStore) SetPin(ctx context.Context, key string, status *types.Status) error {
	var err error
	if !pinnable(status) {
		_, err = s.db.ExecContext(ctx, deletePinSQL, key)
	} else {
		_, err = s.db.ExecContext(ctx, upsertPinSQL, key, string(*status), s.now().UTC())
	}
	if err != nil {
		return persistErr("set pin", key, err)
	}
	return nil
}

func (s *SQLiteStore) SetManualStatus(ctx context.Context, key string, status *types.Status) (*Record, error) {
	manual := nullableStatus(status)
	result, err := s.db.ExecContext(ctx, setManualSQL, manual, manual, s.now().UTC(), key)
	if err != nil {
		return nil, persistErr("set manual status", key, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByIdentity(ctx, key)
}

func (s *SQLiteStore) UpdateDescription(ctx context.Context, key, original, translated string) error {
	result, err := s.db.ExecContext(ctx, updateDescriptionSQL, original, translated, s.now().UTC(), key)
	if err != nil {
		return persistErr("update description", key, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
