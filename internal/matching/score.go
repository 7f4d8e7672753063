// Package matching scores foundations against an applicant and ranks them.
//
// Scoring is pure and deterministic: the same profile, foundation and extra
// keywords always produce the same Result. Nothing in this package performs
// I/O or blocks.
package matching

import (
	"fmt"
	"strings"

	"github.com/spigell/grant-matcher/internal/applicant"
	"github.com/spigell/grant-matcher/internal/foundation"
)

const (
	pointsTargetGroup     = 25
	pointsCategory        = 30
	pointsDescriptionFit  = 12
	pointsGeography       = 15
	pointsRegional        = 8
	pointsAge             = 10
	penaltyAge            = 15
	pointsNoIncomeCap     = 4
	pointsIncome          = 12
	penaltyIncome         = 8
	pointsAmount          = 10
	pointsAmountBelow     = 4
	penaltyAmount         = 6
	pointsDocuments       = 8
	penaltyPerDocument    = 5
	pointsDescriptionEcho = 4
	pointsPerKeyword      = 3
	maxKeywordBoost       = 10
	maxListedKeywords     = 4
)

// Criterion names a scoring rule that the applicant passed.
type Criterion string

const (
	CriterionTargetGroup    Criterion = "target_group"
	CriterionCategory       Criterion = "category"
	CriterionDescriptionFit Criterion = "description_fit"
	CriterionGeography      Criterion = "geography"
	CriterionRegional       Criterion = "regional"
	CriterionAge            Criterion = "age"
	CriterionIncome         Criterion = "income"
	CriterionAmount         Criterion = "amount"
	CriterionDocuments      Criterion = "documents"
	CriterionKeywords       Criterion = "keywords"
)

// Result is the outcome of scoring one foundation for one applicant.
type Result struct {
	Foundation *foundation.Foundation
	// Score has a floor of 0 and no ceiling.
	Score    int
	Reasons  []string
	Warnings []string
	// Passed lists the criteria that produced a reason, in evaluation order.
	Passed           []Criterion
	MissingDocuments []string
}

// Passes reports whether the criterion produced a reason.
func (r Result) Passes(c Criterion) bool {
	for _, passed := range r.Passed {
		if passed == c {
			return true
		}
	}
	return false
}

type scorer struct {
	result Result
	total  int
}

func (s *scorer) pass(c Criterion, points int, reason string) {
	s.total += points
	s.result.Passed = append(s.result.Passed, c)
	s.result.Reasons = append(s.result.Reasons, reason)
}

func (s *scorer) warn(penalty int, warning string) {
	s.total -= penalty
	s.result.Warnings = append(s.result.Warnings, warning)
}

// Score evaluates f for p. Extra keywords are optional and only add a boost.
func (e *Engine) Score(p applicant.Profile, f *foundation.Foundation, extraKeywords ...string) Result {
	s := &scorer{
		result: Result{Foundation: f, Reasons: []string{}, Warnings: []string{}},
	}
	msg := e.policy.Messages
	keywords := e.policy.Keywords(p.Need)

	if containsAny(normalizeAll(f.TargetGroups), e.policy.Aliases(p.Type)) {
		s.pass(CriterionTargetGroup, pointsTargetGroup, msg.TargetGroup)
	}

	switch {
	case contains(normalizeAll(f.Categories), string(p.Need)):
		s.pass(CriterionCategory, pointsCategory, msg.CategoryMatch)
	case mentionsAny(f.Description, keywords):
		s.pass(CriterionDescriptionFit, pointsDescriptionFit, msg.DescriptionFit)
	}

	geographies := normalizeAll(f.Geographies)
	switch {
	case contains(geographies, foundation.Nationwide) || contains(geographies, p.Municipality):
		s.pass(CriterionGeography, pointsGeography, msg.Geography)
	case contains(geographies, foundation.Regional):
		s.pass(CriterionRegional, pointsRegional, msg.RegionalGeography)
	}

	if f.AgeMin <= p.Age && p.Age <= f.AgeMax {
		s.pass(CriterionAge, pointsAge, msg.AgeWithin)
	} else {
		s.warn(penaltyAge, msg.AgeOutside)
	}

	switch {
	case !f.HasIncomeCap():
		s.total += pointsNoIncomeCap
	case p.MonthlyIncome <= *f.MonthlyIncomeCap:
		s.pass(CriterionIncome, pointsIncome, msg.IncomeWithin)
	default:
		s.warn(penaltyIncome, msg.IncomeAbove)
	}

	switch {
	case f.TypicalAmountMin <= p.RequestedAmount && p.RequestedAmount <= f.TypicalAmountMax:
		s.pass(CriterionAmount, pointsAmount, msg.AmountWithin)
	case p.RequestedAmount < f.TypicalAmountMin:
		s.total += pointsAmountBelow
	default:
		s.warn(penaltyAmount, msg.AmountAbove)
	}

	if len(f.RequiredDocuments) > 0 {
		missing := missingDocuments(p, f.RequiredDocuments)
		if len(missing) > 0 {
			s.result.MissingDocuments = missing
			s.warn(penaltyPerDocument*len(missing), fmt.Sprintf(msg.MissingDocumentList, strings.Join(missing, ", ")))
			s.result.Warnings = append(s.result.Warnings, msg.MissingDocuments)
		} else {
			s.pass(CriterionDocuments, pointsDocuments, msg.DocumentsPresent)
		}
	}

	s.total += e.policy.UrgencyBonus[p.Urgency]

	if mentionsAny(p.Description, keywords) {
		s.total += pointsDescriptionEcho
	}

	if boost, matched := keywordBoost(f, extraKeywords); boost > 0 {
		listed := matched
		if len(listed) > maxListedKeywords {
			listed = listed[:maxListedKeywords]
		}
		s.pass(CriterionKeywords, boost, fmt.Sprintf(msg.KeywordBoost, strings.Join(listed, ", ")))
	}

	s.result.Score = max(s.total, 0)
	return s.result
}

// keywordBoost returns min(10, 3 x matches) for the distinct extra keywords
// found in the foundation's description, notes, categories and target groups.
func keywordBoost(f *foundation.Foundation, extraKeywords []string) (int, []string) {
	if len(extraKeywords) == 0 {
		return 0, nil
	}

	haystack := strings.ToLower(strings.Join([]string{
		f.Description,
		f.Notes,
		strings.Join(f.Categories, " "),
		strings.Join(f.TargetGroups, " "),
	}, " "))

	var matched []string
	for _, keyword := range extraKeywords {
		keyword = normalize(keyword)
		if keyword == "" || contains(matched, keyword) {
			continue
		}
		if strings.Contains(haystack, keyword) {
			matched = append(matched, keyword)
		}
	}

	return min(maxKeywordBoost, pointsPerKeyword*len(matched)), matched
}

func missingDocuments(p applicant.Profile, required []string) []string {
	var missing []string
	for _, doc := range required {
		if !p.HasDocument(doc) {
			missing = append(missing, doc)
		}
	}
	return missing
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = normalize(v)
	}
	return out
}

// contains reports whether the normalized haystack holds the value.
func contains(haystack []string, value string) bool {
	value = normalize(value)
	for _, item := range haystack {
		if item == value {
			return true
		}
	}
	return false
}

func containsAny(haystack, values []string) bool {
	for _, v := range values {
		if contains(haystack, v) {
			return true
		}
	}
	return false
}

// mentionsAny reports whether text contains any keyword as a substring.
func mentionsAny(text string, keywords []string) bool {
	text = normalize(text)
	for _, keyword := range keywords {
		keyword = normalize(keyword)
		if keyword != "" && strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
