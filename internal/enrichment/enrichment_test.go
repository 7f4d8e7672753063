package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/grant-matcher/internal/ai"
	"github.com/spigell/grant-matcher/internal/applicant"
)

type keywordFunc func(ctx context.Context, p applicant.Profile) ([]string, error)

func (f keywordFunc) Keywords(ctx context.Context, p applicant.Profile) ([]string, error) {
	return f(ctx, p)
}

func profile() applicant.Profile {
	return applicant.Profile{
		FullName:        "Anna Andersson",
		Email:           "anna@example.se",
		Municipality:    "Uppsala",
		Age:             72,
		Type:            applicant.Senior,
		Need:            applicant.Dental,
		RequestedAmount: 12000,
		MonthlyIncome:   15000,
		Urgency:         applicant.High,
		Description:     "I need a new denture.",
	}
}

func TestResolve(t *testing.T) {
	src := keywordFunc(func(context.Context, applicant.Profile) ([]string, error) {
		return []string{" denture ", "", "pensioner"}, nil
	})

	out := Resolve(context.Background(), src, profile(), zap.NewNop())

	assert.Equal(t, []string{"denture", "pensioner"}, out.Keywords)
	assert.Empty(t, out.Notice)
	assert.False(t, out.Degraded())
}

func TestResolveNilSource(t *testing.T) {
	out := Resolve(context.Background(), nil, profile(), nil)

	assert.NotNil(t, out.Keywords)
	assert.Empty(t, out.Keywords)
	assert.False(t, out.Degraded())
}

func TestResolveDegradesOnError(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	src := keywordFunc(func(context.Context, applicant.Profile) ([]string, error) {
		return nil, errors.New("quota exhausted")
	})

	out := Resolve(context.Background(), src, profile(), zap.New(core))

	assert.Empty(t, out.Keywords)
	assert.NotNil(t, out.Keywords)
	assert.True(t, out.Degraded())
	assert.Contains(t, out.Notice, "quota exhausted")

	entries := observed.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "dental", ctx["need_category"])
		assert.NotContains(t, ctx, "email")
	}
}

func TestResolveNoKeywords(t *testing.T) {
	out := Resolve(context.Background(), ai.NoKeywords, profile(), zap.NewNop())
	assert.Empty(t, out.Keywords)
	assert.False(t, out.Degraded())
}
