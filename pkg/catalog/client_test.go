package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igrtec/partida-cli/internal/model"
	"github.com/igrtec/partida-cli/internal/retry"
)

const sampleBody = `[
	{"partida":"P-100","descripcion":"Temblorina","unidadMedida":"día","precioUnitario":1200.5,"palabra":"temblorina, shaker"},
	{"partida":"P-230","descripcion":"Tornillo transportador","unidadMedida":"día","precioUnitario":850,"palabra":"tornillo"},
	{"partida":"","descripcion":"sin id","unidadMedida":"","precioUnitario":0,"palabra":"x"}
]`

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/PalabrasRelacionadas", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	items, err := c.Fetch(context.Background(), model.ContractA)
	require.NoError(t, err)
	require.Len(t, items, 2) // the id-less row is dropped

	assert.Equal(t, "P-100", items[0].ID)
	assert.Equal(t, "Temblorina", items[0].Description)
	assert.Equal(t, "día", items[0].UnitOfMeasure)
	assert.InDelta(t, 1200.5, items[0].UnitPrice, 0.001)
	assert.Equal(t, "temblorina, shaker", items[0].RawKeywords)
}

func TestFetchContractBPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/PalabrasRelacionadas/GetPalabrasRelacionadas1", r.URL.Path)
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	items, err := c.Fetch(context.Background(), model.ContractB)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchCustomPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/catalogo", r.URL.Path)
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL), WithPaths("/v2/catalogo", "/v2/catalogo-b"))
	_, err := c.Fetch(context.Background(), model.ContractA)
	require.NoError(t, err)
}

func TestFetchServerError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL), WithRetry(retry.Config{MaxAttempts: 2, InitialBackoff: time.Millisecond}))
	_, err := c.Fetch(context.Background(), model.ContractA)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, 2, calls) // 502 is retried
}

func TestFetchRecoversAfterTransientError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"partida":"P-100","descripcion":"Temblorina","palabra":"temblorina"}]`))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL), WithRetry(retry.Config{MaxAttempts: 3, InitialBackoff: time.Millisecond}))
	items, err := c.Fetch(context.Background(), model.ContractA)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "P-100", items[0].ID)
}

func TestFetchMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	_, err := c.Fetch(context.Background(), model.ContractA)
	assert.Error(t, err)
}

func TestFetchUnknownContract(t *testing.T) {
	c := New()
	_, err := c.Fetch(context.Background(), model.ContractKey("z"))
	assert.Error(t, err)
}
