package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igrtec/partida-cli/internal/model"
	"github.com/igrtec/partida-cli/internal/normalize"
)

func newTestMatcher(cfg Config) *Matcher {
	return New(normalize.New(normalize.DefaultRewrites), cfg)
}

func comments(texts ...string) []model.Comment {
	out := make([]model.Comment, len(texts))
	for i, t := range texts {
		out[i] = model.Comment{Row: i + 1, Text: t}
	}
	return out
}

func TestExactWordMatch(t *testing.T) {
	m := newTestMatcher(Config{})

	items := []model.CatalogItem{
		{ID: "P-230", Description: "Tornillo transportador", UnitOfMeasure: "día", UnitPrice: 850, RawKeywords: "tornillo"},
	}

	got, err := m.Run(context.Background(), items, comments("se usó tornillo nuevo"), model.ContractInfo{})
	require.NoError(t, err)
	require.Contains(t, got, "P-230")

	d := got["P-230"]
	assert.Equal(t, 100, d.BestScore)
	assert.Equal(t, "tornillo", d.MatchedFragment)
	assert.Equal(t, "se uso tornillo nuevo", d.EvaluatedText)
	assert.Equal(t, 1, d.Count)
	assert.Equal(t, 850.0, d.UnitPrice)
	assert.Equal(t, "Tornillo transportador", d.Description)
}

func TestSubThresholdProducesNothing(t *testing.T) {
	m := newTestMatcher(Config{})

	items := []model.CatalogItem{
		{ID: "P-410", RawKeywords: "centrifuga decantadora"},
	}

	got, err := m.Run(context.Background(), items, comments("clima soleado hoy"), model.ContractInfo{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSubstringIsNotExact(t *testing.T) {
	m := newTestMatcher(Config{})

	// "lodo" occurs only inside "limpialodos": the whole-word check must not
	// fire, but the fuzzy path still qualifies and picks the containing word
	// as fragment.
	items := []model.CatalogItem{
		{ID: "P-300", RawKeywords: "lodo"},
	}

	got, err := m.Run(context.Background(), items, comments("limpialodos listos"), model.ContractInfo{})
	require.NoError(t, err)
	require.Contains(t, got, "P-300")
	assert.Equal(t, "limpialodos", got["P-300"].MatchedFragment)
}

func TestAggregationAcrossComments(t *testing.T) {
	m := newTestMatcher(Config{})

	items := []model.CatalogItem{
		{ID: "P-120", RawKeywords: "temblorina, shaker"},
	}

	// First comment misspells the keyword (fuzzy, below 100); second comment
	// hits it exactly. The triple must come from the exact hit.
	got, err := m.Run(context.Background(), items, comments(
		"cambio de temblorna",
		"cambio de temblorina",
	), model.ContractInfo{})
	require.NoError(t, err)
	require.Contains(t, got, "P-120")

	d := got["P-120"]
	assert.Equal(t, 2, d.Count)
	assert.Equal(t, 100, d.BestScore)
	assert.Equal(t, "temblorina", d.MatchedFragment)
	assert.Equal(t, "cambio de temblorina", d.EvaluatedText)
}

func TestCountPerKeywordEvent(t *testing.T) {
	m := newTestMatcher(Config{})

	// Both keywords hit in the same comment: one increment per match event.
	items := []model.CatalogItem{
		{ID: "P-230", RawKeywords: "tornillo, tornillos"},
	}

	got, err := m.Run(context.Background(), items, comments("tornillo y tornillos revisados"), model.ContractInfo{})
	require.NoError(t, err)
	require.Contains(t, got, "P-230")
	assert.Equal(t, 2, got["P-230"].Count)
	assert.Equal(t, 100, got["P-230"].BestScore)
}

func TestFuzzyFragmentFallsBackToBestValidWord(t *testing.T) {
	m := newTestMatcher(Config{})

	items := []model.CatalogItem{
		{ID: "P-120", RawKeywords: "temblorina"},
	}

	got, err := m.Run(context.Background(), items, comments("cambio de temblorna"), model.ContractInfo{})
	require.NoError(t, err)
	require.Contains(t, got, "P-120")

	d := got["P-120"]
	assert.GreaterOrEqual(t, d.BestScore, DefaultThreshold)
	assert.Less(t, d.BestScore, 100)
	assert.Equal(t, "temblorna", d.MatchedFragment)
}

func TestFragmentFromShortWordsOnly(t *testing.T) {
	m := newTestMatcher(Config{})

	// Every word is under the valid-word length: the last cascade tier still
	// produces a fragment from the unfiltered split.
	items := []model.CatalogItem{
		{ID: "P-900", RawKeywords: "trn"},
	}

	got, err := m.Run(context.Background(), items, comments("tr rn"), model.ContractInfo{})
	require.NoError(t, err)
	require.Contains(t, got, "P-900")
	assert.Equal(t, "tr", got["P-900"].MatchedFragment)
}

func TestEmptyCommentNeverMatches(t *testing.T) {
	m := newTestMatcher(Config{})

	items := []model.CatalogItem{
		{ID: "P-120", RawKeywords: "temblorina"},
	}

	got, err := m.Run(context.Background(), items, comments("", "   ", "¡¡!!"), model.ContractInfo{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestItemWithoutKeywordsIsSkipped(t *testing.T) {
	m := newTestMatcher(Config{})

	items := []model.CatalogItem{
		{ID: "P-1", RawKeywords: ""},
		{ID: "P-2", RawKeywords: " , ,"},
	}

	got, err := m.Run(context.Background(), items, comments("cualquier comentario"), model.ContractInfo{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestThresholdBlocksFuzzyButNotExact(t *testing.T) {
	m := newTestMatcher(Config{Threshold: 100})

	items := []model.CatalogItem{
		{ID: "P-120", RawKeywords: "temblorina"},
	}

	// Misspelling scores below 100, so a threshold of 100 rejects it.
	got, err := m.Run(context.Background(), items, comments("cambio de temblorna"), model.ContractInfo{})
	require.NoError(t, err)
	assert.Empty(t, got)

	// The exact whole-word path does not consult the threshold.
	got, err = m.Run(context.Background(), items, comments("cambio de temblorina"), model.ContractInfo{})
	require.NoError(t, err)
	assert.Contains(t, got, "P-120")
}

func TestContractInfoAttached(t *testing.T) {
	m := newTestMatcher(Config{})

	info := model.ContractInfo{Shaker: "Derrick FLC-504", MudType: "base agua"}
	items := []model.CatalogItem{
		{ID: "P-120", RawKeywords: "temblorina"},
	}

	got, err := m.Run(context.Background(), items, comments("cambio de temblorina"), info)
	require.NoError(t, err)
	require.Contains(t, got, "P-120")
	assert.Equal(t, info, got["P-120"].Contract)
}

func TestEndToEndScenario(t *testing.T) {
	m := newTestMatcher(Config{})

	items := []model.CatalogItem{
		{ID: "P-100", Description: "Temblorina", UnitOfMeasure: "día", UnitPrice: 1200, RawKeywords: "temblorina, shaker"},
	}

	got, err := m.Run(context.Background(), items, comments(
		"cambio de temblorina en sitio",
		"sin novedades",
	), model.ContractInfo{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Contains(t, got, "P-100")

	d := got["P-100"]
	assert.Equal(t, 1, d.Count)
	assert.Equal(t, 100, d.BestScore)
	assert.Equal(t, "temblorina", d.MatchedFragment)
}

func TestParallelRunsAreDeterministic(t *testing.T) {
	m := newTestMatcher(Config{Workers: 8})

	items := []model.CatalogItem{
		{ID: "P-100", RawKeywords: "temblorina, shaker"},
		{ID: "P-230", RawKeywords: "tornillo"},
		{ID: "P-410", RawKeywords: "centrifuga decantadora"},
	}

	// Equal-scoring comments share the same text so the surviving triple is
	// identical regardless of scheduling order.
	var batch []model.Comment
	for i := range 50 {
		batch = append(batch,
			model.Comment{Row: 4*i + 1, Text: "cambio de temblorina en sitio"},
			model.Comment{Row: 4*i + 2, Text: "tornillo revisado"},
			model.Comment{Row: 4*i + 3, Text: "arranque de centrifuga decantadora"},
			model.Comment{Row: 4*i + 4, Text: "sin novedades"},
		)
	}

	first, err := m.Run(context.Background(), items, batch, model.ContractInfo{})
	require.NoError(t, err)
	second, err := m.Run(context.Background(), items, batch, model.ContractInfo{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 50, first["P-100"].Count)
	assert.Equal(t, 100, first["P-100"].BestScore)
}

func TestRunCancelled(t *testing.T) {
	m := newTestMatcher(Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []model.CatalogItem{{ID: "P-100", RawKeywords: "temblorina"}}
	_, err := m.Run(ctx, items, comments("cambio de temblorina"), model.ContractInfo{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmptyBatch(t *testing.T) {
	m := newTestMatcher(Config{})

	got, err := m.Run(context.Background(), nil, nil, model.ContractInfo{})
	require.NoError(t, err)
	assert.Empty(t, got)
}
