// Package applicant holds the validated profile of a person applying for support.
package applicant

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ApplicantType classifies who is applying.
type ApplicantType string

const (
	Needy      ApplicantType = "needy"
	Senior     ApplicantType = "senior"
	Student    ApplicantType = "student"
	Researcher ApplicantType = "researcher"
)

// NeedCategory is the kind of support requested.
type NeedCategory string

const (
	Dental         NeedCategory = "dental"
	Glasses        NeedCategory = "glasses"
	Housing        NeedCategory = "housing"
	Studies        NeedCategory = "studies"
	Research       NeedCategory = "research"
	GeneralSupport NeedCategory = "general-support"
)

// Urgency of the request.
type Urgency string

const (
	Low      Urgency = "Low"
	Medium   Urgency = "Medium"
	High     Urgency = "High"
	Critical Urgency = "Critical"
)

// Document tags derived from the profile flags.
const (
	DocQuote              = "quote"
	DocInvoice            = "invoice"
	DocMedicalCertificate = "medical_certificate"
	DocResearchSummary    = "research_summary"
)

const (
	MinAge               = 16
	MaxAge               = 120
	minNameLength        = 2
	minEmailLength       = 5
	minMunicipality      = 2
	minDescriptionLength = 20
)

var ErrConsentRequired = errors.New("consent is required to process the application")

var (
	applicantTypes = []ApplicantType{Needy, Senior, Student, Researcher}
	needCategories = []NeedCategory{Dental, Glasses, Housing, Studies, Research, GeneralSupport}
	urgencies      = []Urgency{Low, Medium, High, Critical}
)

// ApplicantTypes lists the supported applicant types in display order.
func ApplicantTypes() []ApplicantType {
	return append([]ApplicantType(nil), applicantTypes...)
}

// NeedCategories lists the supported need categories in display order.
func NeedCategories() []NeedCategory {
	return append([]NeedCategory(nil), needCategories...)
}

// Urgencies lists urgency levels from lowest to highest.
func Urgencies() []Urgency {
	return append([]Urgency(nil), urgencies...)
}

// ParseApplicantType matches s case-insensitively against the known types.
func ParseApplicantType(s string) (ApplicantType, bool) {
	s = normalize(s)
	for _, t := range applicantTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// ParseNeedCategory matches s case-insensitively against the known categories.
// Underscores are accepted in place of dashes.
func ParseNeedCategory(s string) (NeedCategory, bool) {
	s = strings.ReplaceAll(normalize(s), "_", "-")
	for _, c := range needCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// ParseUrgency matches s case-insensitively and returns the canonical level.
func ParseUrgency(s string) (Urgency, bool) {
	s = normalize(s)
	for _, u := range urgencies {
		if strings.ToLower(string(u)) == s {
			return u, true
		}
	}
	return "", false
}

// Input is the raw, unvalidated shape of an application as it arrives from a
// profile file, an interactive form or an HTTP body. File and body keys are
// the same snake_case names.
type Input struct {
	FullName              string `mapstructure:"full_name" json:"full_name"`
	Email                 string `mapstructure:"email" json:"email"`
	Municipality          string `mapstructure:"municipality" json:"municipality"`
	Age                   int    `mapstructure:"age" json:"age"`
	ApplicantType         string `mapstructure:"applicant_type" json:"applicant_type"`
	NeedCategory          string `mapstructure:"need_category" json:"need_category"`
	RequestedAmount       int    `mapstructure:"requested_amount" json:"requested_amount"`
	MonthlyIncome         int    `mapstructure:"monthly_income" json:"monthly_income"`
	Urgency               string `mapstructure:"urgency" json:"urgency"`
	Description           string `mapstructure:"description" json:"description"`
	HasQuote              bool   `mapstructure:"has_quote" json:"has_quote"`
	HasInvoice            bool   `mapstructure:"has_invoice" json:"has_invoice"`
	HasMedicalCertificate bool   `mapstructure:"has_medical_certificate" json:"has_medical_certificate"`
	HasResearchSummary    bool   `mapstructure:"has_research_summary" json:"has_research_summary"`
	Consent               bool   `mapstructure:"consent" json:"consent"`
}

// Profile is a validated application. Build it with New.
type Profile struct {
	FullName              string
	Email                 string
	Municipality          string
	Age                   int
	Type                  ApplicantType
	Need                  NeedCategory
	RequestedAmount       int
	MonthlyIncome         int
	Urgency               Urgency
	Description           string
	HasQuote              bool
	HasInvoice            bool
	HasMedicalCertificate bool
	HasResearchSummary    bool
	Consent               bool
}

// New validates in and returns the resulting profile. Every violated rule is
// reported in the returned ValidationErrors.
func New(in Input) (Profile, error) {
	var errs ValidationErrors

	p := Profile{
		FullName:              strings.TrimSpace(in.FullName),
		Email:                 strings.TrimSpace(in.Email),
		Municipality:          strings.TrimSpace(in.Municipality),
		Age:                   in.Age,
		RequestedAmount:       in.RequestedAmount,
		MonthlyIncome:         in.MonthlyIncome,
		Description:           strings.TrimSpace(in.Description),
		HasQuote:              in.HasQuote,
		HasInvoice:            in.HasInvoice,
		HasMedicalCertificate: in.HasMedicalCertificate,
		HasResearchSummary:    in.HasResearchSummary,
		Consent:               in.Consent,
	}

	if utf8.RuneCountInString(p.FullName) < minNameLength {
		errs = errs.add("full_name", "must be at least 2 characters")
	}
	if !strings.Contains(p.Email, "@") || utf8.RuneCountInString(p.Email) < minEmailLength {
		errs = errs.add("email", "must be a valid email address")
	}
	if utf8.RuneCountInString(p.Municipality) < minMunicipality {
		errs = errs.add("municipality", "must be at least 2 characters")
	}
	if p.Age < MinAge || p.Age > MaxAge {
		errs = errs.add("age", "must be between 16 and 120")
	}

	var ok bool
	if p.Type, ok = ParseApplicantType(in.ApplicantType); !ok {
		errs = errs.add("applicant_type", "unknown applicant type "+quote(in.ApplicantType))
	}
	if p.Need, ok = ParseNeedCategory(in.NeedCategory); !ok {
		errs = errs.add("need_category", "unknown need category "+quote(in.NeedCategory))
	}
	if p.Urgency, ok = ParseUrgency(in.Urgency); !ok {
		errs = errs.add("urgency", "unknown urgency "+quote(in.Urgency))
	}

	if p.RequestedAmount < 0 {
		errs = errs.add("requested_amount", "must not be negative")
	}
	if p.MonthlyIncome < 0 {
		errs = errs.add("monthly_income", "must not be negative")
	}
	if utf8.RuneCountInString(p.Description) < minDescriptionLength {
		errs = errs.add("description", "must be at least 20 characters")
	}

	if len(errs) > 0 {
		return Profile{}, errs
	}

	return p, nil
}

// Documents returns the tags of the documents the applicant has, always in
// the order quote, invoice, medical_certificate, research_summary.
func (p Profile) Documents() []string {
	docs := make([]string, 0, 4)
	if p.HasQuote {
		docs = append(docs, DocQuote)
	}
	if p.HasInvoice {
		docs = append(docs, DocInvoice)
	}
	if p.HasMedicalCertificate {
		docs = append(docs, DocMedicalCertificate)
	}
	if p.HasResearchSummary {
		docs = append(docs, DocResearchSummary)
	}
	return docs
}

// HasDocument reports whether the applicant holds the document with the given tag.
func (p Profile) HasDocument(tag string) bool {
	tag = normalize(tag)
	for _, doc := range p.Documents() {
		if doc == tag {
			return true
		}
	}
	return false
}

// RequireConsent returns ErrConsentRequired unless the applicant consented to processing.
func (p Profile) RequireConsent() error {
	if !p.Consent {
		return ErrConsentRequired
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func quote(s string) string {
	return "\"" + strings.TrimSpace(s) + "\""
}
