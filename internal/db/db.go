// Package db persists opportunity records and status pins.
//
// Three engines implement Store: an in-memory store for tests and dry runs,
// SQLite (the default local engine) and PostgreSQL.
package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/jobmail-sync/internal/types"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Store is the persistence contract used by the sync engine.
type Store interface {
	// UpsertByIdentity inserts or updates the record for key atomically.
	UpsertByIdentity(ctx context.Context, key string, fields RecordFields) (UpsertResult, error)
	// GetByIdentity returns nil, nil when no record exists for key.
	GetByIdentity(ctx context.Context, key string) (*Record, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	// ListByStatus orders by company (case-insensitive), email date desc, file name.
	ListByStatus(ctx context.Context, status types.Status) ([]Record, error)
	ListKeysBySource(ctx context.Context, sourceFile string) ([]string, error)
	StatusCounts(ctx context.Context) (map[types.Status]int, error)
	DeleteWhereIdentityNotIn(ctx context.Context, keys []string) (int, error)
	DeleteAll(ctx context.Context) error

	// GetPin reports incoming or unknown pins as absent.
	GetPin(ctx context.Context, key string) (types.Status, bool, error)
	// SetPin clears the pin when status is nil or incoming.
	SetPin(ctx context.Context, key string, status *types.Status) error

	// SetManualStatus returns ErrNotFound when no record exists for key.
	SetManualStatus(ctx context.Context, key string, status *types.Status) (*Record, error)
	UpdateDescription(ctx context.Context, key, original, translated string) error

	Close() error
}

// Options selects and configures a Store engine.
type Options struct {
	Driver      string
	Path        string // SQLite file
	DatabaseURL string // PostgreSQL DSN
}

// Open creates the Store selected by opts.Driver and applies migrations.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverPostgres:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres driver requires a database url")
		}
		return Connect(ctx, opts.DatabaseURL)
	case DriverSQLite, "":
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite driver requires a database path")
		}
		return OpenSQLite(ctx, opts.Path)
	default:
		return nil, fmt.Errorf("unknown db driver %q", opts.Driver)
	}
}

// pinnable reports whether status is worth persisting as a pin.
func pinnable(status *types.Status) bool {
	return status != nil && !status.IsDefault()
}
