package matching

import (
	"github.com/spigell/grant-matcher/internal/applicant"
)

// Messages holds every reason and warning text the engine can emit. Texts
// that take arguments are fmt format strings.
type Messages struct {
	TargetGroup       string
	CategoryMatch     string
	DescriptionFit    string
	Geography         string
	RegionalGeography string
	AgeWithin         string
	AgeOutside        string
	IncomeWithin      string
	IncomeAbove       string
	AmountWithin      string
	AmountAbove       string
	DocumentsPresent  string
	// MissingDocumentList receives the comma separated missing tags.
	MissingDocumentList string
	// MissingDocuments is appended once whenever any required document is missing.
	MissingDocuments string
	// KeywordBoost receives the comma separated matched keywords.
	KeywordBoost string
}

// Policy is the set of tables that drive scoring. Swap it with WithPolicy to
// tune or localize the engine.
type Policy struct {
	CategoryKeywords map[applicant.NeedCategory][]string
	GroupAliases     map[applicant.ApplicantType][]string
	UrgencyBonus     map[applicant.Urgency]int
	Messages         Messages
}

var (
	categoryKeywords = map[applicant.NeedCategory][]string{
		applicant.Dental:         {"tooth", "teeth", "dental", "implant", "denture", "bite"},
		applicant.Glasses:        {"glasses", "vision", "eyesight", "lenses"},
		applicant.Housing:        {"rent", "housing", "accommodation", "home"},
		applicant.Studies:        {"study", "student", "education", "course"},
		applicant.Research:       {"research", "research project", "study", "data", "method"},
		applicant.GeneralSupport: {"finances", "support", "grant", "needy"},
	}

	groupAliases = map[applicant.ApplicantType][]string{
		applicant.Needy:      {"needy", "private-individual", "senior"},
		applicant.Senior:     {"senior", "pensioner", "needy"},
		applicant.Student:    {"student"},
		applicant.Researcher: {"researcher"},
	}

	urgencyBonus = map[applicant.Urgency]int{
		applicant.Low:      0,
		applicant.Medium:   2,
		applicant.High:     4,
		applicant.Critical: 6,
	}

	defaultMessages = Messages{
		TargetGroup:         "Right target group for the foundation.",
		CategoryMatch:       "The foundation's purpose matches the need well.",
		DescriptionFit:      "The description suggests the foundation may fit the need.",
		Geography:           "Geography matches.",
		RegionalGeography:   "Regional support may be possible.",
		AgeWithin:           "Age requirements appear to fit.",
		AgeOutside:          "Age is outside the usual target group.",
		IncomeWithin:        "Income level appears to be within the criteria.",
		IncomeAbove:         "Income level may be above the foundation's limit.",
		AmountWithin:        "The amount is close to the foundation's usual level.",
		AmountAbove:         "The amount is higher than the foundation's usual range.",
		DocumentsPresent:    "Required documents appear to be available.",
		MissingDocumentList: "Missing documents: %s.",
		MissingDocuments:    MissingDocumentsWarning,
		KeywordBoost:        "AI interpretation found relevant keywords: %s.",
	}
)

// MissingDocumentsWarning is added to the warnings whenever a foundation
// requires documents the applicant does not have.
const MissingDocumentsWarning = "Some documents are missing for the application to be strong."

// DefaultPolicy returns a fresh copy of the built-in tables.
func DefaultPolicy() Policy {
	return Policy{
		CategoryKeywords: copyTable(categoryKeywords),
		GroupAliases:     copyTable(groupAliases),
		UrgencyBonus:     copyBonus(urgencyBonus),
		Messages:         defaultMessages,
	}
}

// Keywords returns the fallback keywords of a need category.
func (p Policy) Keywords(need applicant.NeedCategory) []string {
	return p.CategoryKeywords[need]
}

// Aliases returns the target groups accepted for an applicant type. Unknown
// types alias only to themselves.
func (p Policy) Aliases(t applicant.ApplicantType) []string {
	if aliases, ok := p.GroupAliases[t]; ok {
		return aliases
	}
	return []string{string(t)}
}

func copyTable[K comparable](in map[K][]string) map[K][]string {
	out := make(map[K][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func copyBonus(in map[applicant.Urgency]int) map[applicant.Urgency]int {
	out := make(map[applicant.Urgency]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
