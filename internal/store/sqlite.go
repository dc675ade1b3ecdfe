package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/igrtec/partida-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	contract      TEXT NOT NULL,
	info          TEXT NOT NULL,
	detections    TEXT NOT NULL,
	comment_count INTEGER NOT NULL,
	item_count    INTEGER NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_contract ON runs(contract);

CREATE TABLE IF NOT EXISTS catalog_cache (
	contract   TEXT PRIMARY KEY,
	items      TEXT NOT NULL,
	fetched_at DATETIME NOT NULL
);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// SaveRun inserts one completed run.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	infoJSON, err := json.Marshal(run.Info)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal contract info")
	}
	detJSON, err := json.Marshal(run.Detections)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal detections")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, contract, info, detections, comment_count, item_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Contract), string(infoJSON), string(detJSON),
		run.CommentCount, run.ItemCount, run.CreatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
	}
	return nil
}

// GetRun loads a run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, contract, info, detections, comment_count, item_count, created_at
		 FROM runs WHERE id = ?`, runID)

	run, err := scanRun(row)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "run %s", runID)
		}
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs matching the filter, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, contract, info, detections, comment_count, item_count, created_at
	          FROM runs WHERE 1=1`
	var args []any

	if filter.Contract != "" {
		query += ` AND contract = ?`
		args = append(args, string(filter.Contract))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate runs")
	}
	return runs, nil
}

// SaveCatalog upserts the cached catalog snapshot for a contract.
func (s *SQLiteStore) SaveCatalog(ctx context.Context, contract model.ContractKey, items []model.CatalogItem) error {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal catalog")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO catalog_cache (contract, items, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(contract) DO UPDATE SET items = excluded.items, fetched_at = excluded.fetched_at`,
		string(contract), string(itemsJSON), time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save catalog %s", contract)
	}
	return nil
}

// LoadCatalog returns the cached catalog snapshot for a contract and when it
// was fetched.
func (s *SQLiteStore) LoadCatalog(ctx context.Context, contract model.ContractKey) ([]model.CatalogItem, time.Time, error) {
	var itemsJSON string
	var fetchedAt time.Time

	err := s.db.QueryRowContext(ctx,
		`SELECT items, fetched_at FROM catalog_cache WHERE contract = ?`,
		string(contract),
	).Scan(&itemsJSON, &fetchedAt)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, eris.Wrapf(ErrNotFound, "catalog %s", contract)
		}
		return nil, time.Time{}, eris.Wrapf(err, "sqlite: load catalog %s", contract)
	}

	var items []model.CatalogItem
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		return nil, time.Time{}, eris.Wrap(err, "sqlite: unmarshal catalog")
	}
	return items, fetchedAt, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*model.Run, error) {
	var run model.Run
	var contract, infoJSON, detJSON string

	if err := sc.Scan(&run.ID, &contract, &infoJSON, &detJSON, &run.CommentCount, &run.ItemCount, &run.CreatedAt); err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	run.Contract = model.ContractKey(contract)
	if err := json.Unmarshal([]byte(infoJSON), &run.Info); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal contract info")
	}
	if err := json.Unmarshal([]byte(detJSON), &run.Detections); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal detections")
	}
	return &run, nil
}
