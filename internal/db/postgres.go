package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/jonathan/jobmail-sync/internal/types"
)

// PostgresStore wraps a PostgreSQL connection pool
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Connect establishes a connection pool to the database and applies migrations
func Connect(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	err = RunMigrations(ctx, sqlDB, DriverPostgres)
	_ = sqlDB.Close()
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool, now: time.Now}, nil
}

func (db *PostgresStore) UpsertByIdentity(ctx context.Context, key string, fields RecordFields) (UpsertResult, error) {
	hash := fields.Hash()
	now := db.now().UTC()

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return UpsertResult{}, persistErr("begin upsert", key, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var prevHash, prevAuto string
	created := false
	err = tx.QueryRow(ctx, rebind(selectPreviousSQL+` FOR UPDATE`), key).Scan(&prevHash, &prevAuto)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		created = true
	case err != nil:
		return UpsertResult{}, persistErr("read previous", key, err)
	}

	var id uuid.UUID
	err = tx.QueryRow(ctx, rebind(upsertRecordSQL)+` RETURNING id`,
		upsertArgs(uuid.New(), key, fields, hash, now)...,
	).Scan(&id)
	if err != nil {
		return UpsertResult{}, persistErr("upsert", key, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return UpsertResult{}, persistErr("commit upsert", key, err)
	}

	changed := created || prevHash != hash || prevAuto != string(fields.AutoStatus)
	return UpsertResult{ID: id, Created: created, Changed: changed}, nil
}

func (db *PostgresStore) GetByIdentity(ctx context.Context, key string) (*Record, error) {
	rec, err := scanRecord(db.pool.QueryRow(ctx, rebind(selectByKeySQL), key))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, persistErr("get record", key, err)
	}
	return rec, nil
}

func (db *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := scanRecord(db.pool.QueryRow(ctx, rebind(selectByIDSQL), id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, persistErr("get record", id.String(), err)
	}
	return rec, nil
}

func (db *PostgresStore) ListByStatus(ctx context.Context, status types.Status) ([]Record, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM opportunities WHERE current_status = $1
		 ORDER BY LOWER(company), email_date DESC NULLS LAST, file_name`,
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

func (db *PostgresStore) ListKeysBySource(ctx context.Context, sourceFile string) ([]string, error) {
	rows, err := db.pool.Query(ctx, rebind(selectKeysSourceSQL), sourceFile)
	if err != nil {
		return nil, persistErr("list keys", sourceFile, err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, persistErr("scan key", sourceFile, err)
	}
	return keys, nil
}

func (db *PostgresStore) StatusCounts(ctx context.Context) (map[types.Status]int, error) {
	rows, err := db.pool.Query(ctx, statusCountsSQL)
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

func (db *PostgresStore) DeleteWhereIdentityNotIn(ctx context.Context, keys []string) (int, error) {
	if keys == nil {
		keys = []string{}
	}
	result, err := db.pool.Exec(ctx,
		`DELETE FROM opportunities WHERE NOT (record_key = ANY($1))`, keys)
	if err != nil {
		return 0, persistErr("delete stale records", "", err)
	}
	return int(result.RowsAffected()), nil
}

func (db *PostgresStore) DeleteAll(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, deleteAllSQL); err != nil {
		return persistErr("delete all", "", err)
	}
	return nil
}

func (db *PostgresStore) GetPin(ctx context.Context, key string) (types.Status, bool, error) {
	var raw string
	err := db.pool.QueryRow(ctx, rebind(selectPinSQL), key).Scan(&raw)
	if err != nil {
		if err == pgx.ErrNoRows {
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

func (db *PostgresStore) SetPin(ctx context.Context, key string, status *types.Status) error {
	var err error
	if !pinnable(status) {
		_, err = db.pool.Exec(ctx, rebind(deletePinSQL), key)
	} else {
		_, err = db.pool.Exec(ctx, rebind(upsertPinSQL), key, string(*status), db.now().UTC())
	}
	if err != nil {
		return persistErr("set pin", key, err)
	}
	return nil
}

func (db *PostgresStore) SetManualStatus(ctx context.Context, key string, status *types.Status) (*Record, error) {
	manual := nullableStatus(status)
	result, err := db.pool.Exec(ctx, rebind(setManualSQL), manual, manual, db.now().UTC(), key)
	if err != nil {
		return nil, persistErr("set manual status", key, err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return db.GetByIdentity(ctx, key)
}

func (db *PostgresStore) UpdateDescription(ctx context.Context, key, original, translated string) error {
	result, err := db.pool.Exec(ctx, rebind(updateDescriptionSQL), original, translated, db.now().UTC(), key)
	if err != nil {
		return persistErr("update description", key, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the connection pool
func (db *PostgresStore) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}
