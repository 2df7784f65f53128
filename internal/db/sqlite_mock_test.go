package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobmail-sync/internal/types"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewSQLiteStore(database), mock
}

func TestSQLiteStore_UpsertFailures(t *testing.T) {
	boom := errors.New("disk I/O error")

	tests := []struct {
		name   string
		setup  func(mock sqlmock.Sqlmock)
		wantOp string
	}{
		{
			name: "begin fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(boom)
			},
			wantOp: "begin upsert",
		},
		{
			name: "previous row read fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT content_hash, auto_status FROM opportunities").
					WithArgs("job::1").
					WillReturnError(boom)
				mock.ExpectRollback()
			},
			wantOp: "read previous",
		},
		{
			name: "insert fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT content_hash, auto_status FROM opportunities").
					WithArgs("job::1").
					WillReturnError(sql.ErrNoRows)
				mock.ExpectExec("INSERT INTO opportunities").WillReturnError(boom)
				mock.ExpectRollback()
			},
			wantOp: "upsert",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.setup(mock)

			_, err := store.UpsertByIdentity(context.Background(), "job::1", sampleFields("Acme", "Engineer", types.StatusApplied))
			require.Error(t, err)

			var perr *PersistenceError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantOp, perr.Op)
			assert.Equal(t, "job::1", perr.Key)
			assert.ErrorIs(t, err, boom)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLiteStore_UpsertCreated(t *testing.T) {
	store, mock := newMockStore(t)
	id := "6f1c1a52-4c44-4d8e-9b44-3b8e4c1e2a10"

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT content_hash, auto_status FROM opportunities").
		WithArgs("job::1").
		WillReturnRows(sqlmock.NewRows([]string{"content_hash", "auto_status"}))
	mock.ExpectExec("INSERT INTO opportunities").
		WithArgs(sqlmock.AnyArg(), "job::1", "Acme", "Engineer", "Berlin", sqlmock.AnyArg(),
			"", "", "applied", nil, "applied",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT id FROM opportunities").
		WithArgs("job::1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
	mock.ExpectCommit()

	res, err := store.UpsertByIdentity(context.Background(), "job::1", sampleFields("Acme", "Engineer", types.StatusApplied))
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.Changed)
	assert.Equal(t, id, res.ID.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_DeleteWhereIdentityNotIn(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT record_key FROM opportunities").
		WillReturnRows(sqlmock.NewRows([]string{"record_key"}).AddRow("job::1").AddRow("job::2"))
	mock.ExpectExec("DELETE FROM opportunities WHERE record_key = ?").
		WithArgs("job::2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := store.DeleteWhereIdentityNotIn(context.Background(), []string{"job::1"})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ReadFailures(t *testing.T) {
	boom := errors.New("database is locked")
	ctx := context.Background()

	t.Run("status counts", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("SELECT current_status, COUNT").WillReturnError(boom)
		_, err := store.StatusCounts(ctx)
		assert.ErrorIs(t, err, boom)
		var perr *PersistenceError
		assert.ErrorAs(t, err, &perr)
	})

	t.Run("get pin", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("SELECT status FROM status_pins").WithArgs("job::1").WillReturnError(boom)
		_, _, err := store.GetPin(ctx, "job::1")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("unknown pin reads as absent", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("SELECT status FROM status_pins").
			WithArgs("job::1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("someday"))
		_, ok, err := store.GetPin(ctx, "job::1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set pin", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("INSERT INTO status_pins").WillReturnError(boom)
		err := store.SetPin(ctx, "job::1", types.StatusPtr(types.StatusApplied))
		assert.ErrorIs(t, err, boom)
	})
}
