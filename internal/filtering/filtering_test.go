package filtering

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/grant-matcher/internal/foundation"
)

type historyFunc func(ctx context.Context, email string) ([]string, error)

func (f historyFunc) MatchedFoundationIDs(ctx context.Context, email string) ([]string, error) {
	return f(ctx, email)
}

func catalog() []foundation.Foundation {
	return []foundation.Foundation{
		{ID: "sf-001"}, {ID: "sf-002"}, {ID: "sf-003"}, {ID: "sf-004"}, {ID: "sf-005"},
	}
}

func ids(list []foundation.Foundation) []string {
	out := make([]string, 0, len(list))
	for _, f := range list {
		out = append(out, f.ID)
	}
	return out
}

func TestRunAppliesStepsInOrder(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	var gotEmail string
	history := historyFunc(func(_ context.Context, email string) ([]string, error) {
		gotEmail = email
		return []string{"sf-004", "sf-999"}, nil
	})

	steps := []Filter{
		NewExcludedFoundations([]string{" sf-002 "}, log),
		NewAppliedHistory(&AppliedHistoryConfig{Email: "anna@example.se"}, &AppliedHistoryDeps{History: history, Logger: log}),
	}

	input := catalog()
	out, err := Run(context.Background(), log, steps, input)
	require.NoError(t, err)

	assert.Equal(t, []string{"sf-001", "sf-003", "sf-005"}, ids(out))
	assert.Equal(t, ids(catalog()), ids(input))
	assert.Equal(t, "anna@example.se", gotEmail)

	stepLogs := observed.FilterMessage("filter step").All()
	require.Len(t, stepLogs, 2)
	assert.Equal(t, "excluded_foundations", stepLogs[0].ContextMap()["name"])
	assert.Equal(t, int64(1), stepLogs[0].ContextMap()["dropped"])
	assert.Equal(t, int64(4), stepLogs[1].ContextMap()["initial"])
	assert.Equal(t, int64(3), stepLogs[1].ContextMap()["left"])
}

func TestRunValidatesBeforeApplying(t *testing.T) {
	steps := []Filter{
		NewExcludedFoundations([]string{"sf-001"}, nil),
		NewAppliedHistory(nil, nil),
	}

	_, err := Run(context.Background(), nil, steps, catalog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "applied_history")
}

func TestRunSkipsDisabledFilters(t *testing.T) {
	steps := []Filter{NewAppliedHistory(nil, nil)}
	DisableByName(steps, AppliedHistoryName, "storage is disabled")

	out, err := Run(context.Background(), zap.NewNop(), steps, catalog())
	require.NoError(t, err)
	assert.Len(t, out, 5)

	statuses := Describe(steps)
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Enabled)
	assert.Equal(t, "storage is disabled", statuses[0].Reason)
}

func TestAppliedHistoryIgnore(t *testing.T) {
	called := false
	history := historyFunc(func(context.Context, string) ([]string, error) {
		called = true
		return []string{"sf-001"}, nil
	})

	f := NewAppliedHistory(&AppliedHistoryConfig{Ignore: true}, &AppliedHistoryDeps{History: history, Logger: zap.NewNop()})
	out, step, err := f.Apply(context.Background(), catalog())
	require.NoError(t, err)

	assert.False(t, called)
	assert.Len(t, out, 5)
	assert.Equal(t, Step{Initial: 5, Dropped: 0, Left: 5}, step)
	assert.Equal(t, "skip requested via flag", Describe([]Filter{f})[0].Reason)
	assert.Equal(t, "false", Describe([]Filter{f})[0].Details["exclude_matched"])
}

func TestAppliedHistoryError(t *testing.T) {
	history := historyFunc(func(context.Context, string) ([]string, error) {
		return nil, errors.New("db down")
	})
	steps := []Filter{NewAppliedHistory(&AppliedHistoryConfig{Email: "a@b.se"}, &AppliedHistoryDeps{History: history, Logger: zap.NewNop()})}

	_, err := Run(context.Background(), zap.NewNop(), steps, catalog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestExcludedFoundationsWithoutIDs(t *testing.T) {
	f := NewExcludedFoundations(nil, nil)
	out, step, err := f.Apply(context.Background(), catalog())
	require.NoError(t, err)

	assert.Len(t, out, 5)
	assert.Equal(t, Step{Initial: 5, Left: 5}, step)
	assert.Empty(t, Describe([]Filter{f})[0].Details)
}

func TestExcludedFoundationsCanBeDisabled(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	steps := []Filter{NewExcludedFoundations([]string{"sf-001", "sf-002"}, nil)}
	DisableByName(steps, ExcludedFoundationsName, "exclusions switched off")

	out, err := Run(context.Background(), zap.New(core), steps, catalog())
	require.NoError(t, err)
	assert.Equal(t, ids(catalog()), ids(out))

	status := Describe(steps)[0]
	assert.False(t, status.Enabled)
	assert.Equal(t, "exclusions switched off", status.Reason)
	assert.Equal(t, "sf-001,sf-002", status.Details["foundations"])

	disabled := observed.FilterMessage("filter disabled").All()
	require.Len(t, disabled, 1)
	assert.Equal(t, "exclusions switched off", disabled[0].ContextMap()["reason"])
}

func TestRunLogsFilterStatusesAtDebug(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)

	steps := []Filter{NewExcludedFoundations([]string{"sf-003"}, nil)}
	_, err := Run(context.Background(), zap.New(core), steps, catalog())
	require.NoError(t, err)

	entries := observed.FilterMessage("running catalog filters").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)

	statuses, ok := entries[0].ContextMap()["filters"].([]Status)
	require.True(t, ok)
	require.Len(t, statuses, 1)
	assert.Equal(t, ExcludedFoundationsName, statuses[0].Name)
	assert.True(t, statuses[0].Enabled)
}
