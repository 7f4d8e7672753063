// Package foundation describes grant-giving organizations and loads their catalog.
package foundation

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// Nationwide in a geography list means the foundation accepts applicants from anywhere.
	Nationwide = "nationwide"
	// Regional marks foundations that may support applicants in a wider region.
	Regional = "regional"

	DefaultAgeMin = 0
	DefaultAgeMax = 120
)

// Foundation is one catalog entry. Entries are read-only once loaded.
type Foundation struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Notes             string   `json:"notes"`
	TargetGroups      []string `json:"target_groups"`
	Categories        []string `json:"categories"`
	Geographies       []string `json:"geographies"`
	AgeMin            int      `json:"age_min"`
	AgeMax            int      `json:"age_max"`
	MonthlyIncomeCap  *int     `json:"monthly_income_cap,omitempty"`
	TypicalAmountMin  int      `json:"typical_amount_min"`
	TypicalAmountMax  int      `json:"typical_amount_max"`
	RequiredDocuments []string `json:"required_documents"`
	ApplicationURL    string   `json:"application_url"`
}

// UnmarshalJSON applies the catalog defaults for absent age bounds.
func (f *Foundation) UnmarshalJSON(data []byte) error {
	type plain Foundation
	decoded := plain{AgeMin: DefaultAgeMin, AgeMax: DefaultAgeMax}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*f = Foundation(decoded)
	return nil
}

// HasIncomeCap reports whether the foundation declares a monthly income limit.
func (f *Foundation) HasIncomeCap() bool {
	return f.MonthlyIncomeCap != nil
}

// ValidationError describes a catalog entry that breaks an invariant.
type ValidationError struct {
	ID      string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("foundation %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("foundation %q %s: %s", e.ID, e.Field, e.Message)
}

// Validate checks the invariants every catalog entry must hold.
func (f *Foundation) Validate() error {
	invalid := func(field, message string) error {
		return &ValidationError{ID: f.ID, Field: field, Message: message}
	}

	switch {
	case strings.TrimSpace(f.ID) == "":
		return invalid("id", "must not be empty")
	case strings.TrimSpace(f.Name) == "":
		return invalid("name", "must not be empty")
	case strings.TrimSpace(f.ApplicationURL) == "":
		return invalid("application_url", "must not be empty")
	case f.AgeMin < 0 || f.AgeMax < 0:
		return invalid("age", "bounds must not be negative")
	case f.AgeMin > f.AgeMax:
		return invalid("age", fmt.Sprintf("age_min %d is greater than age_max %d", f.AgeMin, f.AgeMax))
	case f.TypicalAmountMin < 0 || f.TypicalAmountMax < 0:
		return invalid("typical_amount", "bounds must not be negative")
	case f.TypicalAmountMax > 0 && f.TypicalAmountMin > f.TypicalAmountMax:
		return invalid("typical_amount", fmt.Sprintf("typical_amount_min %d is greater than typical_amount_max %d", f.TypicalAmountMin, f.TypicalAmountMax))
	case f.MonthlyIncomeCap != nil && *f.MonthlyIncomeCap < 0:
		return invalid("monthly_income_cap", "must not be negative")
	}

	return nil
}
