package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/igrtec/partida-cli/internal/model"
)

// pgPool is the subset of pgxpool.Pool the store uses; pgxmock implements it
// for tests.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool pgPool
}

// NewPostgres connects to the given database URL.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 5
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	contract      TEXT NOT NULL,
	info          JSONB NOT NULL,
	detections    JSONB NOT NULL,
	comment_count INT NOT NULL,
	item_count    INT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_contract ON runs(contract);

CREATE TABLE IF NOT EXISTS catalog_cache (
	contract   TEXT PRIMARY KEY,
	items      JSONB NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL
);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// SaveRun inserts one completed run.
func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run) error {
	infoJSON, err := json.Marshal(run.Info)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal contract info")
	}
	detJSON, err := json.Marshal(run.Detections)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal detections")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, contract, info, detections, comment_count, item_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, string(run.Contract), infoJSON, detJSON,
		run.CommentCount, run.ItemCount, run.CreatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert run %s", run.ID)
	}
	return nil
}

// GetRun loads a run by id.
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, contract, info, detections, comment_count, item_count, created_at
		 FROM runs WHERE id = $1`, runID)

	run, err := scanPGRun(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "run %s", runID)
		}
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs matching the filter, newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, contract, info, detections, comment_count, item_count, created_at
	          FROM runs`
	var args []any

	if filter.Contract != "" {
		args = append(args, string(filter.Contract))
		query += ` WHERE contract = $1`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanPGRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate runs")
	}
	return runs, nil
}

// SaveCatalog upserts the cached catalog snapshot for a contract.
func (s *PostgresStore) SaveCatalog(ctx context.Context, contract model.ContractKey, items []model.CatalogItem) error {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal catalog")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO catalog_cache (contract, items, fetched_at) VALUES ($1, $2, $3)
		 ON CONFLICT (contract) DO UPDATE SET items = EXCLUDED.items, fetched_at = EXCLUDED.fetched_at`,
		string(contract), itemsJSON, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save catalog %s", contract)
	}
	return nil
}

// LoadCatalog returns the cached catalog snapshot for a contract.
func (s *PostgresStore) LoadCatalog(ctx context.Context, contract model.ContractKey) ([]model.CatalogItem, time.Time, error) {
	var itemsJSON []byte
	var fetchedAt time.Time

	err := s.pool.QueryRow(ctx,
		`SELECT items, fetched_at FROM catalog_cache WHERE contract = $1`,
		string(contract),
	).Scan(&itemsJSON, &fetchedAt)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, time.Time{}, eris.Wrapf(ErrNotFound, "catalog %s", contract)
		}
		return nil, time.Time{}, eris.Wrapf(err, "postgres: load catalog %s", contract)
	}

	var items []model.CatalogItem
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return nil, time.Time{}, eris.Wrap(err, "postgres: unmarshal catalog")
	}
	return items, fetchedAt, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPGRun(sc interface{ Scan(dest ...any) error }) (*model.Run, error) {
	var run model.Run
	var contract string
	var infoJSON, detJSON []byte

	if err := sc.Scan(&run.ID, &contract, &infoJSON, &detJSON, &run.CommentCount, &run.ItemCount, &run.CreatedAt); err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan run")
	}

	run.Contract = model.ContractKey(contract)
	if err := json.Unmarshal(infoJSON, &run.Info); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal contract info")
	}
	if err := json.Unmarshal(detJSON, &run.Detections); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal detections")
	}
	return &run, nil
}
