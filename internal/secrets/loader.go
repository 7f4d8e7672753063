// Package secrets resolves provider credentials from files, config values
// or the environment.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotConfigured is returned when no source holds the secret.
var ErrNotConfigured = errors.New("not configured")

// Source lists where a secret may live, in order of precedence.
type Source struct {
	// Name gives error messages context, e.g. "gemini api key".
	Name string
	// File is read first. An empty or unreadable file is an error.
	File string
	// Value is an inline value from the config file.
	Value string
	// Env names a variable consulted last.
	Env string
}

// Load returns the trimmed secret from the first source that is set.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		return fromFile(name, file)
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
		return "", fmt.Errorf("%s is %w (%s is empty)", name, ErrNotConfigured, env)
	}

	return "", fmt.Errorf("%s is %w", name, ErrNotConfigured)
}

func fromFile(name, file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
	}

	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", fmt.Errorf("%s file %q is empty", name, file)
	}
	return secret, nil
}
