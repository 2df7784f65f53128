package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobmail-sync/internal/types"
)

// storeFactories lists the engines exercised by the shared store tests.
func storeFactories() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "jobs.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}
}

func sampleFields(company, role string, auto types.Status) RecordFields {
	date := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return RecordFields{
		Company:    company,
		Role:       role,
		Location:   "Berlin",
		LinkURL:    "https://www.linkedin.com/jobs/view/123/",
		AutoStatus: auto,
		SourceFile: "/mail/2024-03-01 - Applied.txt",
		FileName:   "2024-03-01 - Applied.txt",
		EmailDate:  &date,
		Subject:    "Your application was sent to " + company,
		Body:       "body",
	}
}

func TestStore_UpsertLifecycle(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			fields := sampleFields("Acme", "Engineer", types.StatusApplied)
			fields.DescriptionOriginal = "original text"

			first, err := store.UpsertByIdentity(ctx, "job::123", fields)
			require.NoError(t, err)
			assert.True(t, first.Created)
			assert.True(t, first.Changed)
			assert.NotEqual(t, uuid.Nil, first.ID)

			second, err := store.UpsertByIdentity(ctx, "job::123", fields)
			require.NoError(t, err)
			assert.False(t, second.Created)
			assert.False(t, second.Changed)
			assert.Equal(t, first.ID, second.ID)

			updated := fields
			updated.AutoStatus = types.StatusRejected
			updated.DescriptionOriginal = "replacement"
			third, err := store.UpsertByIdentity(ctx, "job::123", updated)
			require.NoError(t, err)
			assert.True(t, third.Changed)

			rec, err := store.GetByIdentity(ctx, "job::123")
			require.NoError(t, err)
			require.NotNil(t, rec)
			assert.Equal(t, types.StatusRejected, rec.CurrentStatus)
			assert.Equal(t, "original text", rec.DescriptionOriginal, "existing description is kept")
			assert.Equal(t, "Acme", rec.Company)
			require.NotNil(t, rec.EmailDate)
			assert.True(t, rec.EmailDate.Equal(*fields.EmailDate))

			byID, err := store.GetByID(ctx, first.ID)
			require.NoError(t, err)
			require.NotNil(t, byID)
			assert.Equal(t, "job::123", byID.RecordKey)
		})
	}
}

func TestStore_MissingRecords(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			rec, err := store.GetByIdentity(ctx, "job::missing")
			require.NoError(t, err)
			assert.Nil(t, rec)

			rec, err = store.GetByID(ctx, uuid.New())
			require.NoError(t, err)
			assert.Nil(t, rec)

			_, err = store.SetManualStatus(ctx, "job::missing", types.StatusPtr(types.StatusArchive))
			assert.ErrorIs(t, err, ErrNotFound)

			err = store.UpdateDescription(ctx, "job::missing", "a", "b")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_EmptyCompanyStoredAsUnknown(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			_, err := store.UpsertByIdentity(ctx, "link::x", sampleFields("", "", types.StatusIncoming))
			require.NoError(t, err)
			rec, err := store.GetByIdentity(ctx, "link::x")
			require.NoError(t, err)
			require.NotNil(t, rec)
			assert.Equal(t, UnknownCompany, rec.Company)
		})
	}
}

func TestStore_ManualStatus(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			fields := sampleFields("Acme", "Engineer", types.StatusApplied)
			fields.ManualStatus = types.StatusPtr(types.StatusInterview)
			_, err := store.UpsertByIdentity(ctx, "job::1", fields)
			require.NoError(t, err)

			rec, err := store.GetByIdentity(ctx, "job::1")
			require.NoError(t, err)
			assert.Equal(t, types.StatusInterview, rec.CurrentStatus)

			// A later pass without a pin keeps the existing manual status.
			fields.ManualStatus = nil
			fields.AutoStatus = types.StatusRejected
			_, err = store.UpsertByIdentity(ctx, "job::1", fields)
			require.NoError(t, err)
			rec, err = store.GetByIdentity(ctx, "job::1")
			require.NoError(t, err)
			require.NotNil(t, rec.ManualStatus)
			assert.Equal(t, types.StatusInterview, *rec.ManualStatus)
			assert.Equal(t, types.StatusInterview, rec.CurrentStatus)
			assert.Equal(t, types.StatusRejected, rec.AutoStatus)

			rec, err = store.SetManualStatus(ctx, "job::1", nil)
			require.NoError(t, err)
			assert.Nil(t, rec.ManualStatus)
			assert.Equal(t, types.StatusRejected, rec.CurrentStatus)

			rec, err = store.SetManualStatus(ctx, "job::1", types.StatusPtr(types.StatusArchive))
			require.NoError(t, err)
			assert.Equal(t, types.StatusArchive, rec.CurrentStatus)
		})
	}
}

func TestStore_ListAndCounts(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			newer := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

			inputs := []struct {
				key     string
				company string
				date    *time.Time
				file    string
				status  types.Status
			}{
				{"job::1", "beta", &older, "b.txt", types.StatusApplied},
				{"job::2", "Alpha", &older, "a.txt", types.StatusApplied},
				{"job::3", "beta", &newer, "c.txt", types.StatusApplied},
				{"job::4", "Beta", nil, "d.txt", types.StatusApplied},
				{"job::5", "Gamma", &newer, "e.txt", types.StatusRejected},
			}
			for _, in := range inputs {
				f := sampleFields(in.company, "Role", in.status)
				f.EmailDate = in.date
				f.FileName = in.file
				f.SourceFile = "/mail/" + in.file
				_, err := store.UpsertByIdentity(ctx, in.key, f)
				require.NoError(t, err)
			}

			applied, err := store.ListByStatus(ctx, types.StatusApplied)
			require.NoError(t, err)
			var keys []string
			for _, r := range applied {
				keys = append(keys, r.RecordKey)
			}
			assert.Equal(t, []string{"job::2", "job::3", "job::1", "job::4"}, keys)

			counts, err := store.StatusCounts(ctx)
			require.NoError(t, err)
			assert.Equal(t, 4, counts[types.StatusApplied])
			assert.Equal(t, 1, counts[types.StatusRejected])
			assert.Equal(t, 0, counts[types.StatusArchive])
			for _, s := range types.StatusOrder {
				_, ok := counts[s]
				assert.True(t, ok, "count present for %s", s)
			}

			bySource, err := store.ListKeysBySource(ctx, "/mail/e.txt")
			require.NoError(t, err)
			assert.Equal(t, []string{"job::5"}, bySource)
		})
	}
}

func TestStore_Tombstones(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			for _, key := range []string{"job::1", "job::2", "job::3"} {
				_, err := store.UpsertByIdentity(ctx, key, sampleFields("Acme", key, types.StatusApplied))
				require.NoError(t, err)
			}

			removed, err := store.DeleteWhereIdentityNotIn(ctx, []string{"job::2"})
			require.NoError(t, err)
			assert.Equal(t, 2, removed)

			rec, err := store.GetByIdentity(ctx, "job::2")
			require.NoError(t, err)
			assert.NotNil(t, rec)

			removed, err = store.DeleteWhereIdentityNotIn(ctx, nil)
			require.NoError(t, err)
			assert.Equal(t, 1, removed)

			counts, err := store.StatusCounts(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, counts[types.StatusApplied])
		})
	}
}

func TestStore_Pins(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			_, ok, err := store.GetPin(ctx, "job::1")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.SetPin(ctx, "job::1", types.StatusPtr(types.StatusInterview)))
			pin, ok, err := store.GetPin(ctx, "job::1")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, types.StatusInterview, pin)

			require.NoError(t, store.SetPin(ctx, "job::1", types.StatusPtr(types.StatusArchive)))
			pin, _, err = store.GetPin(ctx, "job::1")
			require.NoError(t, err)
			assert.Equal(t, types.StatusArchive, pin)

			require.NoError(t, store.SetPin(ctx, "job::1", types.StatusPtr(types.StatusIncoming)))
			_, ok, err = store.GetPin(ctx, "job::1")
			require.NoError(t, err)
			assert.False(t, ok)

			// Pins survive DeleteAll.
			require.NoError(t, store.SetPin(ctx, "job::2", types.StatusPtr(types.StatusApplied)))
			require.NoError(t, store.DeleteAll(ctx))
			_, ok, err = store.GetPin(ctx, "job::2")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestStore_UpdateDescription(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			_, err := store.UpsertByIdentity(ctx, "job::1", sampleFields("Acme", "Engineer", types.StatusApplied))
			require.NoError(t, err)
			require.NoError(t, store.UpdateDescription(ctx, "job::1", "About the job", "О вакансии"))

			rec, err := store.GetByIdentity(ctx, "job::1")
			require.NoError(t, err)
			assert.Equal(t, "About the job", rec.DescriptionOriginal)
			assert.Equal(t, "О вакансии", rec.Description())
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, Options{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open(ctx, Options{Path: filepath.Join(t.TempDir(), "jobs.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	require.NoError(t, store.Close())

	_, err = Open(ctx, Options{Driver: DriverPostgres})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Driver: "mongo"})
	assert.Error(t, err)
}

func TestRecordFields_Hash(t *testing.T) {
	a := sampleFields("Acme", "Engineer", types.StatusApplied)
	b := a
	b.DescriptionOriginal = "descriptions are not hashed"
	b.AutoStatus = types.StatusRejected
	assert.Equal(t, a.Hash(), b.Hash())

	c := a
	c.Role = "Manager"
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestHashContent(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashContent(""))
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", HashContent("hello"))
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", rebind("SELECT a FROM t WHERE x = ? AND y = ?"))
}
