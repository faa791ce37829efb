package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
)

func TestPostgresStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	store := NewPostgresStore(db)
	ctx := context.Background()

	payload, err := json.Marshal(sample(t, "u1", "2026-06-01", 2))
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM decision_snapshots WHERE user_id = $1 AND snapshot_date = $2")).
		WithArgs("u1", "2026-06-01").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))

	snap, err := store.Get(ctx, "u1", "2026-06-01")
	require.NoError(t, err)
	assert.Equal(t, "d-2026-06-01", snap.DecisionID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM decision_snapshots")).
		WithArgs("u1", "2026-06-02").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	_, err = store.Get(ctx, "u1", "2026-06-02")
	assert.ErrorIs(t, err, contracts.ErrSnapshotNotFound)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM decision_snapshots")).
		WithArgs("u1", "2026-06-03").
		WillReturnError(errors.New("connection reset"))

	_, err = store.Get(ctx, "u1", "2026-06-03")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, contracts.ErrSnapshotNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	snap := sample(t, "u1", "2026-06-01", 2)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO decision_snapshots")).
		WithArgs("u1", "2026-06-01", "GO", snap.Fingerprint, "1.0.0", sqlmock.AnyArg(), snap.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Upsert(context.Background(), snap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteFrom(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM decision_snapshots WHERE user_id = $1 AND snapshot_date >= $2")).
		WithArgs("u1", "2026-06-01").
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := store.DeleteFrom(context.Background(), "u1", "2026-06-01")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS decision_snapshots")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewPostgresStore(db).Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
