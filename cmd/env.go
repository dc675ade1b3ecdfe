package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/igrtec/partida-cli/internal/fetcher"
	"github.com/igrtec/partida-cli/internal/model"
	"github.com/igrtec/partida-cli/internal/store"
	"github.com/igrtec/partida-cli/pkg/catalog"
)

// openStore connects the configured run-history backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	var (
		s   store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		s, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		s, err = store.NewSQLite(cfg.Store.DatabaseURL)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func newCatalogClient() catalog.Client {
	return catalog.New(
		catalog.WithBaseURL(cfg.Catalog.BaseURL),
		catalog.WithPaths(cfg.Catalog.PathA, cfg.Catalog.PathB),
	)
}

func newResolver() *fetcher.Resolver {
	return &fetcher.Resolver{
		HTTP: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:  cfg.Fetch.UserAgent,
			Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Fetch.MaxRetries,
			RatePerSec: cfg.Fetch.RatePerSec,
		}),
		FTP: fetcher.NewFTPFetcher(fetcher.FTPOptions{
			Timeout: time.Duration(cfg.Fetch.FTPTimeoutSecs) * time.Second,
		}),
	}
}

// loadCatalog returns the catalog for a contract. Offline mode reads the
// local cache only; otherwise the API is fetched and the cache refreshed as
// a side effect so a later --offline run can reuse it.
func loadCatalog(ctx context.Context, s store.Store, contract model.ContractKey, offline bool) ([]model.CatalogItem, error) {
	if offline {
		items, fetchedAt, err := s.LoadCatalog(ctx, contract)
		if err != nil {
			if eris.Is(err, store.ErrNotFound) {
				return nil, eris.Errorf("no cached catalog for contract %s; run `partida-cli catalog refresh --contract %s` while online", contract, contract)
			}
			return nil, err
		}
		zap.L().Info("using cached catalog",
			zap.String("contract", string(contract)),
			zap.Time("fetched_at", fetchedAt),
			zap.Int("items", len(items)),
		)
		return items, nil
	}

	items, err := newCatalogClient().Fetch(ctx, contract)
	if err != nil {
		return nil, err
	}
	if err := s.SaveCatalog(ctx, contract, items); err != nil {
		zap.L().Warn("catalog cache update failed", zap.Error(err))
	}
	return items, nil
}

func parseContract(s string) (model.ContractKey, error) {
	switch model.ContractKey(s) {
	case model.ContractA, model.ContractB:
		return model.ContractKey(s), nil
	default:
		return "", eris.Errorf("unknown contract %q (want a or b)", s)
	}
}
