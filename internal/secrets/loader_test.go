package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write secret file: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeFile(t, "  from-file \n")

	got, err := Load(Source{Name: "api key", File: path, Value: "inline"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-file" {
		t.Fatalf("expected file secret to win, got %q", got)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeFile(t, "   ")

	_, err := Load(Source{Name: "api key", File: path, Value: "inline"})
	if err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty file error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(Source{File: filepath.Join(t.TempDir(), "nope")})
	if err == nil || !strings.Contains(err.Error(), "reading secret") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestLoadInlineValue(t *testing.T) {
	t.Setenv("GRANT_MATCHER_TEST_KEY", "from-env")

	got, err := Load(Source{Value: " inline ", Env: "GRANT_MATCHER_TEST_KEY"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "inline" {
		t.Fatalf("expected inline secret to win over env, got %q", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GRANT_MATCHER_TEST_KEY", " from-env ")

	got, err := Load(Source{Name: "gemini api key", Env: "GRANT_MATCHER_TEST_KEY"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-env" {
		t.Fatalf("unexpected secret %q", got)
	}
}

func TestLoadNotConfigured(t *testing.T) {
	t.Setenv("GRANT_MATCHER_TEST_KEY", "")

	_, err := Load(Source{Name: "gemini api key", Env: "GRANT_MATCHER_TEST_KEY"})
	if !errors.Is(err, ErrNotConfigured) || !strings.Contains(err.Error(), "gemini api key is not configured") {
		t.Fatalf("expected not configured error, got %v", err)
	}

	_, err = Load(Source{})
	if err == nil || err.Error() != "secret is not configured" {
		t.Fatalf("unexpected error: %v", err)
	}
}
