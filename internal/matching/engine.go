package matching

import (
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/spigell/grant-matcher/internal/applicant"
	"github.com/spigell/grant-matcher/internal/foundation"
)

// Engine scores and ranks foundations using a Policy.
type Engine struct {
	policy  Policy
	workers int
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy replaces the built-in scoring tables.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithWorkers scores catalog entries concurrently with up to n goroutines.
// Values below 2 keep ranking sequential.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 1 {
			e.workers = n
		}
	}
}

// NewEngine returns an engine using DefaultPolicy unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{policy: DefaultPolicy()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = NewEngine()

// Score evaluates f for p with the default policy.
func Score(p applicant.Profile, f *foundation.Foundation, extraKeywords ...string) Result {
	return defaultEngine.Score(p, f, extraKeywords...)
}

// Rank ranks catalog for p with the default policy.
func Rank(p applicant.Profile, catalog []foundation.Foundation, topN int, extraKeywords ...string) []Result {
	return defaultEngine.Rank(p, catalog, topN, extraKeywords...)
}

// Rank scores every foundation exactly once and returns the best topN
// results, highest score first. Foundations with equal scores keep their
// catalog order. The catalog slice is not modified.
func (e *Engine) Rank(p applicant.Profile, catalog []foundation.Foundation, topN int, extraKeywords ...string) []Result {
	if topN <= 0 || len(catalog) == 0 {
		return []Result{}
	}

	results := make([]Result, len(catalog))
	if e.workers > 1 && len(catalog) > 1 {
		var g errgroup.Group
		g.SetLimit(e.workers)
		for i := range catalog {
			g.Go(func() error {
				results[i] = e.Score(p, &catalog[i], extraKeywords...)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range catalog {
			results[i] = e.Score(p, &catalog[i], extraKeywords...)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topN < len(results) {
		results = results[:topN]
	}

	return results
}
