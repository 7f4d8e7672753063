package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/grant-matcher/internal/foundation"
)

const ExcludedFoundationsName = "excluded_foundations"

type excludedFoundationsFilter struct {
	ids      []string
	logger   *zap.Logger
	disabled bool
	reason   string
}

// NewExcludedFoundations creates a filter that removes foundations configured in the config.
func NewExcludedFoundations(ids []string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &excludedFoundationsFilter{
		ids:    ids,
		logger: logger,
	}
}

func (f *excludedFoundationsFilter) Name() string { return ExcludedFoundationsName }

func (f *excludedFoundationsFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *excludedFoundationsFilter) IsEnabled() bool { return !f.disabled }

func (f *excludedFoundationsFilter) Validate() error { return nil }

func (f *excludedFoundationsFilter) Apply(_ context.Context, list []foundation.Foundation) ([]foundation.Foundation, Step, error) {
	initial := len(list)
	if len(f.ids) == 0 {
		return list, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept, excluded := exclude(list, f.ids)
	if len(excluded) > 0 {
		f.logger.Info("excluding foundations by config",
			zap.Strings("excluded_foundations", excluded),
			zap.Int("foundations_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(excluded), Left: len(kept)}, nil
}

func (f *excludedFoundationsFilter) Status() Status {
	details := map[string]string{}
	if len(f.ids) > 0 {
		details["foundations"] = strings.Join(f.ids, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
