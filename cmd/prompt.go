package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/spigell/grant-matcher/internal/applicant"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var errNoConsent = errors.New("consent was not given")

func promptText(label string, minLen int) (string, error) {
	p := promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			if len([]rune(strings.TrimSpace(s))) < minLen {
				return fmt.Errorf("at least %d characters", minLen)
			}
			return nil
		},
	}
	return p.Run()
}

func promptInt(label string, lo, hi int) (int, error) {
	p := promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return errors.New("a whole number is required")
			}
			if n < lo || n > hi {
				return fmt.Errorf("must be between %d and %d", lo, hi)
			}
			return nil
		},
	}

	raw, err := p.Run()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(raw))
}

func promptSelect[T ~string](label string, items []T) (string, error) {
	values := make([]string, 0, len(items))
	for _, item := range items {
		values = append(values, string(item))
	}

	s := promptui.Select{Label: label, Items: values}
	_, value, err := s.Run()
	return value, err
}

func promptYesNo(label string) (bool, error) {
	s := promptui.Select{Label: label, Items: []string{PromptYes, PromptNo}}
	_, value, err := s.Run()
	if err != nil {
		return false, err
	}
	return value == PromptYes, nil
}

// promptProfile asks for every profile field in the order of the paper form.
func promptProfile() (applicant.Input, error) {
	var (
		in  applicant.Input
		err error
	)

	if in.FullName, err = promptText("Full name", 2); err != nil {
		return in, err
	}
	if in.Email, err = promptText("Email", 5); err != nil {
		return in, err
	}
	if in.Municipality, err = promptText("Municipality", 2); err != nil {
		return in, err
	}
	if in.Age, err = promptInt("Age", applicant.MinAge, applicant.MaxAge); err != nil {
		return in, err
	}
	if in.ApplicantType, err = promptSelect("Applicant type", applicant.ApplicantTypes()); err != nil {
		return in, err
	}
	if in.NeedCategory, err = promptSelect("Need category", applicant.NeedCategories()); err != nil {
		return in, err
	}
	if in.RequestedAmount, err = promptInt("Requested amount", 0, 10_000_000); err != nil {
		return in, err
	}
	if in.MonthlyIncome, err = promptInt("Monthly income", 0, 10_000_000); err != nil {
		return in, err
	}
	if in.Urgency, err = promptSelect("Urgency", applicant.Urgencies()); err != nil {
		return in, err
	}
	if in.Description, err = promptText("Describe the need", 20); err != nil {
		return in, err
	}

	documents := []struct {
		label string
		dst   *bool
	}{
		{"Do you have a quote?", &in.HasQuote},
		{"Do you have an invoice?", &in.HasInvoice},
		{"Do you have a medical certificate?", &in.HasMedicalCertificate},
		{"Do you have a research summary?", &in.HasResearchSummary},
	}
	for _, doc := range documents {
		if *doc.dst, err = promptYesNo(doc.label); err != nil {
			return in, err
		}
	}

	if in.Consent, err = promptYesNo("Do you consent to your data being processed for this application?"); err != nil {
		return in, err
	}
	if !in.Consent {
		return in, errNoConsent
	}

	return in, nil
}
