package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igrtec/partida-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgresMigrate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveRun(t *testing.T) {
	s, mock := newMockStore(t)

	run := testRun(model.ContractB)
	infoJSON, _ := json.Marshal(run.Info)
	detJSON, _ := json.Marshal(run.Detections)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(run.ID, "b", infoJSON, detJSON, 42, 15, run.CreatedAt.UTC()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetRun(t *testing.T) {
	s, mock := newMockStore(t)

	want := testRun(model.ContractA)
	infoJSON, _ := json.Marshal(want.Info)
	detJSON, _ := json.Marshal(want.Detections)

	mock.ExpectQuery(`SELECT id, contract, info, detections`).
		WithArgs(want.ID).
		WillReturnRows(pgxmock.
			NewRows([]string{"id", "contract", "info", "detections", "comment_count", "item_count", "created_at"}).
			AddRow(want.ID, "a", infoJSON, detJSON, 42, 15, want.CreatedAt))

	got, err := s.GetRun(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.Detections, got.Detections)
	assert.Equal(t, want.Info, got.Info)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetRunNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, contract`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "missing")
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListRunsFiltered(t *testing.T) {
	s, mock := newMockStore(t)

	run := testRun(model.ContractA)
	infoJSON, _ := json.Marshal(run.Info)
	detJSON, _ := json.Marshal(run.Detections)

	mock.ExpectQuery(`WHERE contract = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("a", 10).
		WillReturnRows(pgxmock.
			NewRows([]string{"id", "contract", "info", "detections", "comment_count", "item_count", "created_at"}).
			AddRow(run.ID, "a", infoJSON, detJSON, 42, 15, run.CreatedAt))

	runs, err := s.ListRuns(context.Background(), RunFilter{Contract: model.ContractA, Limit: 10})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCatalogCache(t *testing.T) {
	s, mock := newMockStore(t)

	items := []model.CatalogItem{{ID: "P-100", Description: "Temblorina", RawKeywords: "temblorina"}}
	itemsJSON, _ := json.Marshal(items)

	mock.ExpectExec(`INSERT INTO catalog_cache`).
		WithArgs("a", itemsJSON, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveCatalog(context.Background(), model.ContractA, items))

	fetchedAt := time.Now().UTC()
	mock.ExpectQuery(`SELECT items, fetched_at FROM catalog_cache`).
		WithArgs("a").
		WillReturnRows(pgxmock.NewRows([]string{"items", "fetched_at"}).AddRow(itemsJSON, fetchedAt))

	got, at, err := s.LoadCatalog(context.Background(), model.ContractA)
	require.NoError(t, err)
	assert.Equal(t, items, got)
	assert.Equal(t, fetchedAt, at)
	assert.NoError(t, mock.ExpectationsWereMet())
}
