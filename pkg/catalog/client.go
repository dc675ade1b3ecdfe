// Package catalog provides a client for the contract keyword catalog API.
package catalog

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/igrtec/partida-cli/internal/fetcher"
	"github.com/igrtec/partida-cli/internal/model"
	"github.com/igrtec/partida-cli/internal/retry"
)

// Client defines the catalog operations.
type Client interface {
	// Fetch retrieves the full catalog for the given contract.
	Fetch(ctx context.Context, contract model.ContractKey) ([]model.CatalogItem, error)
}

// wireItem is the catalog API's JSON representation of one line item.
type wireItem struct {
	Partida      string  `json:"partida"`
	Descripcion  string  `json:"descripcion"`
	UnidadMedida string  `json:"unidadMedida"`
	PrecioUnit   float64 `json:"precioUnitario"`
	Palabra      string  `json:"palabra"`
}

// Option configures the catalog client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.client = hc
	}
}

// WithRetry overrides the retry settings.
func WithRetry(cfg retry.Config) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithPaths overrides the per-contract endpoint paths.
func WithPaths(pathA, pathB string) Option {
	return func(c *httpClient) {
		c.paths[model.ContractA] = pathA
		c.paths[model.ContractB] = pathB
	}
}

type httpClient struct {
	baseURL string
	paths   map[model.ContractKey]string
	client  *http.Client
	retry   retry.Config
}

// New creates a catalog client.
func New(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://python.apiigrtec.site",
		paths: map[model.ContractKey]string{
			model.ContractA: "/api/PalabrasRelacionadas",
			model.ContractB: "/api/PalabrasRelacionadas/GetPalabrasRelacionadas1",
		},
		client: &http.Client{Timeout: 30 * time.Second},
		retry:  retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves and decodes the keyword catalog for one contract.
func (c *httpClient) Fetch(ctx context.Context, contract model.ContractKey) ([]model.CatalogItem, error) {
	path, ok := c.paths[contract]
	if !ok {
		return nil, eris.Errorf("catalog: unknown contract %q", contract)
	}

	wire, err := retry.DoVal(ctx, c.retry, "catalog fetch", func(ctx context.Context) ([]wireItem, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, eris.Wrap(err, "catalog: create request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "catalog: request")
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			err := eris.Errorf("catalog: status %d: %s", resp.StatusCode, string(body))
			if retry.TransientStatus(resp.StatusCode) {
				return nil, retry.Transient(err, resp.StatusCode)
			}
			return nil, err
		}

		wire, err := fetcher.DecodeArray[wireItem](resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "catalog: decode response")
		}
		return wire, nil
	})
	if err != nil {
		return nil, err
	}

	items := make([]model.CatalogItem, 0, len(wire))
	for _, w := range wire {
		if w.Partida == "" {
			continue
		}
		items = append(items, model.CatalogItem{
			ID:            w.Partida,
			Description:   w.Descripcion,
			UnitOfMeasure: w.UnidadMedida,
			UnitPrice:     w.PrecioUnit,
			RawKeywords:   w.Palabra,
		})
	}

	return items, nil
}
