// Package store persists validation run history and cached catalog
// snapshots.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/igrtec/partida-cli/internal/model"
)

// ErrNotFound is returned when a run or cached catalog does not exist.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Contract model.ContractKey `json:"contract,omitempty"`
	Limit    int               `json:"limit,omitempty"`
	Offset   int               `json:"offset,omitempty"`
}

// Store defines the persistence interface for run history and the catalog
// cache. The matching engine never touches it; callers snapshot results in
// after a batch completes.
type Store interface {
	// Runs
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Catalog cache, for offline analysis
	SaveCatalog(ctx context.Context, contract model.ContractKey, items []model.CatalogItem) error
	LoadCatalog(ctx context.Context, contract model.ContractKey) ([]model.CatalogItem, time.Time, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
