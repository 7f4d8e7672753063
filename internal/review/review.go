// Package review turns match results into a case handler's first sorting:
// a pre-status and a checklist of rule outcomes per foundation.
package review

import (
	"github.com/spigell/grant-matcher/internal/matching"
)

// Status is the pre-status a case handler sees for a match.
type Status string

const (
	ReadyForReview   Status = "ready for manual review"
	MissingDocuments Status = "missing documents"
	LikelyIneligible Status = "likely ineligible"
	NeedsManualCheck Status = "needs manual check"
)

const (
	readyScore      = 60
	ineligibleScore = 40
)

// Outcome of a single rule check.
type Outcome string

const (
	Met     Outcome = "met"
	Check   Outcome = "check"
	OK      Outcome = "ok"
	Missing Outcome = "missing"
)

// Item is one row of the rule checklist.
type Item struct {
	Label   string  `json:"label"`
	Outcome Outcome `json:"outcome"`
}

// Review is the handler view of one match.
type Review struct {
	FoundationID   string   `json:"foundation_id"`
	FoundationName string   `json:"foundation_name"`
	Score          int      `json:"score"`
	Status         Status   `json:"status"`
	Note           string   `json:"note"`
	Checks         []Item   `json:"checks"`
	Flags          []string `json:"flags,omitempty"`
}

var notes = map[Status]string{
	ReadyForReview:   "The application looks complete enough to move forward.",
	MissingDocuments: "Some mandatory attachments or certificates need to be added.",
	LikelyIneligible: "The basic criteria look weak for this foundation.",
	NeedsManualCheck: "There is a match, but the handler should check the criteria manually.",
}

// StatusOf classifies a match. Missing documents block the ready status.
func StatusOf(r matching.Result) Status {
	missing := len(r.MissingDocuments) > 0
	switch {
	case r.Score >= readyScore && !missing:
		return ReadyForReview
	case missing:
		return MissingDocuments
	case r.Score < ineligibleScore:
		return LikelyIneligible
	default:
		return NeedsManualCheck
	}
}

// Note returns the handler note for a status.
func Note(s Status) string {
	return notes[s]
}

// Checks returns the rule checklist in display order.
func Checks(r matching.Result) []Item {
	met := func(ok bool) Outcome {
		if ok {
			return Met
		}
		return Check
	}

	documents := OK
	if len(r.MissingDocuments) > 0 {
		documents = Missing
	}

	return []Item{
		{Label: "target group", Outcome: met(r.Passes(matching.CriterionTargetGroup))},
		{Label: "geography", Outcome: met(r.Passes(matching.CriterionGeography))},
		{Label: "purpose", Outcome: met(r.Passes(matching.CriterionCategory) || r.Passes(matching.CriterionDescriptionFit))},
		{Label: "amount", Outcome: met(r.Passes(matching.CriterionAmount))},
		{Label: "required documents", Outcome: documents},
	}
}

// Of builds the full review of one match.
func Of(r matching.Result) Review {
	status := StatusOf(r)
	rv := Review{
		Score:  r.Score,
		Status: status,
		Note:   Note(status),
		Checks: Checks(r),
		Flags:  append([]string(nil), r.Warnings...),
	}
	if r.Foundation != nil {
		rv.FoundationID = r.Foundation.ID
		rv.FoundationName = r.Foundation.Name
	}
	return rv
}

// All reviews every match, keeping the ranking order.
func All(results []matching.Result) []Review {
	out := make([]Review, 0, len(results))
	for _, r := range results {
		out = append(out, Of(r))
	}
	return out
}

// NextStep is the applicant-facing hint shown next to a match.
func NextStep(r matching.Result) string {
	if r.Score >= readyScore {
		return "Open the foundation and adapt the draft."
	}
	return "Check the criteria and complete the application before moving on."
}
