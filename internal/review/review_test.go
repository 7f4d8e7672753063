package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/grant-matcher/internal/foundation"
	"github.com/spigell/grant-matcher/internal/matching"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name    string
		score   int
		missing []string
		want    Status
	}{
		{"high score complete", 60, nil, ReadyForReview},
		{"high score missing docs", 90, []string{"quote"}, MissingDocuments},
		{"low score missing docs", 10, []string{"quote"}, MissingDocuments},
		{"low score", 39, nil, LikelyIneligible},
		{"middle score", 40, nil, NeedsManualCheck},
		{"just below ready", 59, nil, NeedsManualCheck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StatusOf(matching.Result{Score: tt.score, MissingDocuments: tt.missing})
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, Note(got))
		})
	}
}

func TestChecks(t *testing.T) {
	r := matching.Result{
		Passed:           []matching.Criterion{matching.CriterionTargetGroup, matching.CriterionRegional, matching.CriterionDescriptionFit},
		MissingDocuments: []string{"invoice"},
	}

	assert.Equal(t, []Item{
		{Label: "target group", Outcome: Met},
		{Label: "geography", Outcome: Check},
		{Label: "purpose", Outcome: Met},
		{Label: "amount", Outcome: Check},
		{Label: "required documents", Outcome: Missing},
	}, Checks(r))
}

func TestAllKeepsOrder(t *testing.T) {
	a := &foundation.Foundation{ID: "a", Name: "A"}
	b := &foundation.Foundation{ID: "b", Name: "B"}

	reviews := All([]matching.Result{
		{Foundation: a, Score: 80, Warnings: []string{"careful"}},
		{Foundation: b, Score: 20},
	})

	require.Len(t, reviews, 2)
	assert.Equal(t, "a", reviews[0].FoundationID)
	assert.Equal(t, ReadyForReview, reviews[0].Status)
	assert.Equal(t, []string{"careful"}, reviews[0].Flags)
	assert.Equal(t, "B", reviews[1].FoundationName)
	assert.Equal(t, LikelyIneligible, reviews[1].Status)
	assert.Equal(t, OK, reviews[1].Checks[4].Outcome)
}

func TestNextStep(t *testing.T) {
	assert.Contains(t, NextStep(matching.Result{Score: 60}), "adapt the draft")
	assert.Contains(t, NextStep(matching.Result{Score: 59}), "Check the criteria")
}
