// Package filtering narrows the foundation catalog before ranking.
package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/grant-matcher/internal/foundation"
)

// Filter represents a single filtering step applied to the catalog.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, list []foundation.Foundation) ([]foundation.Foundation, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially. The input slice is not
// modified and the relative order of the catalog is kept.
func Run(ctx context.Context, logger *zap.Logger, steps []Filter, list []foundation.Foundation) ([]foundation.Foundation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	statuses := Describe(steps)
	logger.Debug("running catalog filters", zap.Any("filters", statuses))

	current := append([]foundation.Foundation(nil), list...)
	for i, step := range steps {
		if !step.IsEnabled() {
			logger.Info("filter disabled",
				zap.String("name", step.Name()),
				zap.String("reason", statuses[i].Reason),
			)
			continue
		}

		next, info, err := step.Apply(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		current = next
	}

	return current, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// exclude drops foundations whose id is in ids and returns the dropped ids.
func exclude(list []foundation.Foundation, ids []string) ([]foundation.Foundation, []string) {
	if len(ids) == 0 {
		return list, nil
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}

	kept := make([]foundation.Foundation, 0, len(list))
	var removed []string
	for _, f := range list {
		if _, ok := set[f.ID]; ok {
			removed = append(removed, f.ID)
			continue
		}
		kept = append(kept, f)
	}

	return kept, removed
}
