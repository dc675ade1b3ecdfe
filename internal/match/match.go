// Package match evaluates catalog keywords against field comments and
// aggregates qualifying hits into one detection per catalog item.
package match

import (
	"context"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/igrtec/partida-cli/internal/model"
	"github.com/igrtec/partida-cli/internal/normalize"
	"github.com/igrtec/partida-cli/internal/similarity"
)

const (
	// DefaultThreshold is the minimum fuzzy score that counts as a match.
	DefaultThreshold = 60
	// DefaultMinWordLen excludes words shorter than this from fragment
	// selection; short words are too noisy to stand as evidence.
	DefaultMinWordLen = 3
)

// Config tunes the matcher. Zero values fall back to the defaults above.
type Config struct {
	Threshold  int `yaml:"threshold" mapstructure:"threshold"`
	MinWordLen int `yaml:"min_word_len" mapstructure:"min_word_len"`
	// Workers bounds parallel comment evaluation. Zero means GOMAXPROCS.
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// Matcher runs the normalization, scoring and aggregation pipeline over a
// batch. It is stateless between calls to Run and safe for concurrent use.
type Matcher struct {
	norm       *normalize.Normalizer
	threshold  int
	minWordLen int
	workers    int
}

// New creates a Matcher using the given normalizer.
func New(norm *normalize.Normalizer, cfg Config) *Matcher {
	m := &Matcher{
		norm:       norm,
		threshold:  cfg.Threshold,
		minWordLen: cfg.MinWordLen,
		workers:    cfg.Workers,
	}
	if m.threshold <= 0 {
		m.threshold = DefaultThreshold
	}
	if m.minWordLen <= 0 {
		m.minWordLen = DefaultMinWordLen
	}
	if m.workers <= 0 {
		m.workers = runtime.GOMAXPROCS(0)
	}
	return m
}

// keyword is one normalized phrase with its precompiled whole-word pattern.
type keyword struct {
	text  string
	exact *regexp.Regexp
}

// target is a catalog item prepared for matching.
type target struct {
	item     model.CatalogItem
	keywords []keyword
}

// Run evaluates every (comment, item, keyword) triple and returns the
// detection map keyed by item id. Comments are processed in parallel; the
// only error it returns is context cancellation. An empty map is a valid
// outcome meaning no comment referenced any catalog item.
func (m *Matcher) Run(ctx context.Context, items []model.CatalogItem, comments []model.Comment, info model.ContractInfo) (map[string]model.Detection, error) {
	targets := m.prepare(items)

	agg := &aggregator{
		detections: make(map[string]*model.Detection),
		info:       info,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)

	for _, c := range comments {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			m.matchComment(c.Text, targets, agg)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return agg.result(), nil
}

// prepare normalizes each item's keyword list and compiles the whole-word
// patterns once per batch. Items without usable keywords are dropped.
func (m *Matcher) prepare(items []model.CatalogItem) []target {
	targets := make([]target, 0, len(items))
	for _, it := range items {
		kws := m.norm.Keywords(it.RawKeywords)
		if len(kws) == 0 {
			continue
		}
		t := target{item: it, keywords: make([]keyword, 0, len(kws))}
		for _, kw := range kws {
			t.keywords = append(t.keywords, keyword{
				text:  kw,
				exact: regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`),
			})
		}
		targets = append(targets, t)
	}
	return targets
}

// matchComment evaluates one comment against every target keyword. An empty
// comment produces no events.
func (m *Matcher) matchComment(raw string, targets []target, agg *aggregator) {
	comment := m.norm.Normalize(raw)
	if comment == "" {
		return
	}

	for _, t := range targets {
		for _, kw := range t.keywords {
			score, fragment, ok := m.evaluate(kw, comment)
			if !ok {
				continue
			}
			agg.apply(t.item, score, fragment, comment)
		}
	}
}

// evaluate decides one (keyword, comment) match event. A whole-word hit wins
// outright with score 100; otherwise the fuzzy score must clear the
// threshold, and the best-representative fragment is selected from the
// comment's words.
func (m *Matcher) evaluate(kw keyword, comment string) (score int, fragment string, ok bool) {
	if found := kw.exact.FindString(comment); found != "" {
		return 100, found, true
	}

	score = similarity.Score(kw.text, comment)
	if score < m.threshold {
		return 0, "", false
	}

	return score, m.bestFragment(kw.text, comment), true
}

// bestFragment picks the comment word that best represents a fuzzy match.
// Preference order: words containing the keyword as a substring, then any
// word of at least minWordLen, then any word at all. Ties go to the earliest
// word. The comment is non-empty here, so a fragment always exists.
func (m *Matcher) bestFragment(kw, comment string) string {
	words := strings.Fields(comment)

	var valid, candidates []string
	for _, w := range words {
		if len(w) < m.minWordLen {
			continue
		}
		valid = append(valid, w)
		if strings.Contains(w, kw) {
			candidates = append(candidates, w)
		}
	}

	switch {
	case len(candidates) > 0:
		return bestScoring(kw, candidates)
	case len(valid) > 0:
		return bestScoring(kw, valid)
	default:
		return bestScoring(kw, words)
	}
}

// bestScoring returns the first word with the highest similarity to kw.
func bestScoring(kw string, words []string) string {
	best := words[0]
	bestScore := similarity.Score(kw, best)
	for _, w := range words[1:] {
		if s := similarity.Score(kw, w); s > bestScore {
			best, bestScore = w, s
		}
	}
	return best
}

// aggregator folds match events into one detection per catalog item. All
// mutation happens under the mutex so the strictly-greater rule is applied
// atomically per event.
type aggregator struct {
	mu         sync.Mutex
	detections map[string]*model.Detection
	info       model.ContractInfo
}

// apply upserts one qualifying match event. On first sight of an item it
// creates the detection with count 1; afterwards it increments the count
// unconditionally and replaces the score/fragment/text triple only when the
// new score strictly exceeds the stored one.
func (a *aggregator) apply(item model.CatalogItem, score int, fragment, comment string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	d, seen := a.detections[item.ID]
	if !seen {
		a.detections[item.ID] = &model.Detection{
			ItemID:          item.ID,
			Description:     item.Description,
			UnitOfMeasure:   item.UnitOfMeasure,
			UnitPrice:       item.UnitPrice,
			Count:           1,
			BestScore:       score,
			MatchedFragment: fragment,
			EvaluatedText:   comment,
			Contract:        a.info,
		}
		return
	}

	d.Count++
	if score > d.BestScore {
		d.BestScore = score
		d.MatchedFragment = fragment
		d.EvaluatedText = comment
	}
}

func (a *aggregator) result() map[string]model.Detection {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]model.Detection, len(a.detections))
	for id, d := range a.detections {
		out[id] = *d
	}
	return out
}
