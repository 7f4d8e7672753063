package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/grant-matcher/internal/foundation"
)

const (
	AppliedHistoryName = "applied_history"
	ignoreFlagSetMsg   = "ignore flag is set"
)

// History lists foundations an applicant was already matched with.
type History interface {
	MatchedFoundationIDs(ctx context.Context, email string) ([]string, error)
}

type appliedHistoryFilter struct {
	deps     *AppliedHistoryDeps
	email    string
	ignore   bool
	disabled bool
	reason   string
}

type AppliedHistoryDeps struct {
	History History
	Logger  *zap.Logger
}

type AppliedHistoryConfig struct {
	Email  string
	Ignore bool
}

// NewAppliedHistory creates a filter that removes foundations the applicant was already matched with.
func NewAppliedHistory(cfg *AppliedHistoryConfig, deps *AppliedHistoryDeps) Filter {
	f := &appliedHistoryFilter{deps: deps}
	if cfg != nil {
		f.email = cfg.Email
		f.ignore = cfg.Ignore
	}
	return f
}

func (f *appliedHistoryFilter) Name() string { return AppliedHistoryName }

func (f *appliedHistoryFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *appliedHistoryFilter) IsEnabled() bool { return !f.disabled }

func (f *appliedHistoryFilter) Validate() error {
	if f.deps == nil || f.deps.History == nil {
		return fmt.Errorf("history source is required")
	}

	if f.deps.Logger == nil {
		return fmt.Errorf("logger is required")
	}

	return nil
}

func (f *appliedHistoryFilter) Apply(ctx context.Context, list []foundation.Foundation) ([]foundation.Foundation, Step, error) {
	initial := len(list)
	if f.ignore {
		f.deps.Logger.Info("ignoring already matched foundations", zap.String("reason", ignoreFlagSetMsg))
		return list, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	ids, err := f.deps.History.MatchedFoundationIDs(ctx, f.email)
	if err != nil {
		return list, Step{}, fmt.Errorf("get matched foundations: %w", err)
	}

	kept, excluded := exclude(list, ids)
	if len(excluded) > 0 {
		f.deps.Logger.Info("excluding foundations based on previous matches",
			zap.Strings("excluded_foundations", excluded),
			zap.Int("foundations_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(excluded), Left: len(kept)}, nil
}

func (f *appliedHistoryFilter) Status() Status {
	details := map[string]string{
		"exclude_matched": strconv.FormatBool(!f.ignore),
	}
	reason := f.reason
	if reason == "" && f.ignore {
		reason = "skip requested via flag"
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: reason, Details: details}
}
