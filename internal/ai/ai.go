// Package ai defines the optional enrichment capabilities used around the
// matching engine. Every capability has a local default, so matching works
// without any provider configured.
package ai

import (
	"context"
	"strings"

	"github.com/spigell/grant-matcher/internal/applicant"
	"github.com/spigell/grant-matcher/internal/matching"
)

// DraftMatchLimit is how many top matches a draft writer gets to see.
const DraftMatchLimit = 3

// Insights is a structured reading of an application produced by a provider.
type Insights struct {
	ConciseSummary         string                 `json:"concise_summary" mapstructure:"concise_summary"`
	ApplicantStory         string                 `json:"applicant_story" mapstructure:"applicant_story"`
	NormalizedNeedCategory applicant.NeedCategory `json:"normalized_need_category" mapstructure:"normalized_need_category"`
	ExtraKeywords          []string               `json:"extra_keywords" mapstructure:"extra_keywords"`
	PriorityFacts          []string               `json:"priority_facts" mapstructure:"priority_facts"`
	MissingInformation     []string               `json:"missing_information" mapstructure:"missing_information"`
	CautionFlags           []string               `json:"caution_flags" mapstructure:"caution_flags"`
	RecommendedTone        string                 `json:"recommended_tone" mapstructure:"recommended_tone"`
}

// DefaultTone is used when a provider does not suggest one.
const DefaultTone = "factual and empathetic"

// KeywordSource supplies extra keywords for the matching engine.
type KeywordSource interface {
	Keywords(ctx context.Context, profile applicant.Profile) ([]string, error)
}

// Analyzer extracts structured insights from an application.
type Analyzer interface {
	Analyze(ctx context.Context, profile applicant.Profile) (*Insights, error)
}

// DraftRequest carries everything a draft writer may use.
type DraftRequest struct {
	Profile  applicant.Profile
	Matches  []matching.Result
	Insights *Insights
}

// TopMatches returns at most DraftMatchLimit matches.
func (r DraftRequest) TopMatches() []matching.Result {
	if len(r.Matches) > DraftMatchLimit {
		return r.Matches[:DraftMatchLimit]
	}
	return r.Matches
}

// DraftWriter produces a first application draft.
type DraftWriter interface {
	WriteDraft(ctx context.Context, req DraftRequest) (string, error)
}

// Researcher looks for further foundations outside the local catalog.
type Researcher interface {
	Research(ctx context.Context, profile applicant.Profile, insights *Insights) (string, error)
}

type noKeywords struct{}

func (noKeywords) Keywords(context.Context, applicant.Profile) ([]string, error) {
	return nil, nil
}

// NoKeywords is the local keyword source. It never returns keywords.
var NoKeywords KeywordSource = noKeywords{}

type analyzerKeywords struct {
	analyzer Analyzer
}

// KeywordsFrom uses an analyzer's extra keywords as a keyword source.
func KeywordsFrom(a Analyzer) KeywordSource {
	return analyzerKeywords{analyzer: a}
}

func (k analyzerKeywords) Keywords(ctx context.Context, profile applicant.Profile) ([]string, error) {
	insights, err := k.analyzer.Analyze(ctx, profile)
	if err != nil {
		return nil, err
	}
	if insights == nil {
		return nil, nil
	}
	return CleanKeywords(insights.ExtraKeywords), nil
}

// CleanKeywords trims keywords and drops empty entries.
func CleanKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// ProfilePayload is the view of a profile sent to providers.
func ProfilePayload(p applicant.Profile) map[string]any {
	return map[string]any{
		"full_name":        p.FullName,
		"email":            p.Email,
		"municipality":     p.Municipality,
		"age":              p.Age,
		"applicant_type":   p.Type,
		"need_category":    p.Need,
		"requested_amount": p.RequestedAmount,
		"monthly_income":   p.MonthlyIncome,
		"urgency":          p.Urgency,
		"description":      p.Description,
		"documents":        p.Documents(),
	}
}

// MatchPayload is the view of the top matches sent to providers.
func MatchPayload(results []matching.Result) []map[string]any {
	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		if r.Foundation == nil {
			continue
		}
		out = append(out, map[string]any{
			"name":            r.Foundation.Name,
			"score":           r.Score,
			"reasons":         r.Reasons,
			"warnings":        r.Warnings,
			"application_url": r.Foundation.ApplicationURL,
		})
	}
	return out
}
