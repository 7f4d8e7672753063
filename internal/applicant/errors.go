package applicant

import (
	"fmt"
	"strings"
)

// ValidationError describes a single rejected profile field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every field rejected while building a profile.
type ValidationErrors []*ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		parts = append(parts, err.Error())
	}
	return "invalid applicant profile: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual field errors to errors.As.
func (errs ValidationErrors) Unwrap() []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		out = append(out, err)
	}
	return out
}

// Fields maps each rejected field to its message.
func (errs ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(errs))
	for _, err := range errs {
		out[err.Field] = err.Message
	}
	return out
}

func (errs ValidationErrors) add(field, message string) ValidationErrors {
	return append(errs, &ValidationError{Field: field, Message: message})
}
