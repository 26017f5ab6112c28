package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type mapStore map[string]string

func (m mapStore) Name() string { return "map" }

func (m mapStore) Lookup(key string) (string, error) { return m[key], nil }

type failingStore struct{}

func (failingStore) Name() string { return "broken" }

func (failingStore) Lookup(string) (string, error) { return "", errors.New("boom") }

func TestResolverPrefersStoreOverEnvironment(t *testing.T) {
	envReads := 0
	r := &Resolver{
		Key:    "OPENAI_API_KEY",
		Stores: []Store{mapStore{"OPENAI_API_KEY": "from-store"}},
		Getenv: func(string) string {
			envReads++
			return "from-env"
		},
		Prompt: func(string) (string, error) {
			t.Fatal("prompt must not be called")
			return "", nil
		},
	}

	cred, err := r.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cred.Value() != "from-store" {
		t.Fatalf("expected store value, got %q", cred.Value())
	}

	if envReads != 0 {
		t.Fatalf("environment must not be read, got %d reads", envReads)
	}
}

func TestResolverFallsBackToEnvironment(t *testing.T) {
	r := &Resolver{
		Key:    "OPENAI_API_KEY",
		Stores: []Store{mapStore{}, failingStore{}},
		Getenv: func(key string) string {
			if key == "OPENAI_API_KEY" {
				return "  from-env \n"
			}
			return ""
		},
	}

	cred, err := r.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cred.Value() != "from-env" {
		t.Fatalf("expected env value, got %q", cred.Value())
	}
}

func TestResolverPromptsLast(t *testing.T) {
	prompted := ""
	r := &Resolver{
		Key:    "OPENAI_API_KEY",
		Getenv: func(string) string { return "" },
		Prompt: func(label string) (string, error) {
			prompted = label
			return "typed", nil
		},
	}

	cred, err := r.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cred.Value() != "typed" || prompted != "OPENAI_API_KEY" {
		t.Fatalf("unexpected prompt result %q (label %q)", cred.Value(), prompted)
	}
}

func TestResolverFailsClosedWithoutSources(t *testing.T) {
	r := &Resolver{
		Key:    "ADMIN_PASSWORD",
		Getenv: func(string) string { return "" },
	}

	cred, err := r.Resolve()
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	if !cred.IsZero() {
		t.Fatalf("expected zero credential")
	}
}

func TestResolverEmptyPromptIsNotConfigured(t *testing.T) {
	r := &Resolver{
		Key:    "OPENAI_API_KEY",
		Getenv: func(string) string { return "" },
		Prompt: func(string) (string, error) { return "   ", nil },
	}

	if _, err := r.Resolve(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secrets.toml")
	if err := os.WriteFile(path, []byte("OPENAI_API_KEY = \"sk-file\"\n"), 0o600); err != nil {
		t.Fatalf("write secrets: %v", err)
	}

	store := &FileStore{Path: path}
	value, err := store.Lookup("OPENAI_API_KEY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "sk-file" {
		t.Fatalf("expected sk-file, got %q", value)
	}

	missing := &FileStore{Path: filepath.Join(dir, "absent.toml")}
	if value, err := missing.Lookup("OPENAI_API_KEY"); err != nil || value != "" {
		t.Fatalf("expected empty lookup for missing file, got %q, %v", value, err)
	}
}

func TestDirStore(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "OPENAI_API_KEY"), []byte("sk-dir\n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "EMPTY"), nil, 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}

	store := &DirStore{Dir: dir}

	tests := []struct {
		key    string
		expect string
	}{
		{key: "OPENAI_API_KEY", expect: "sk-dir"},
		{key: "EMPTY", expect: ""},
		{key: "ABSENT", expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			value, err := store.Lookup(tt.key)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if value != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, value)
			}
		})
	}
}

func TestCredentialIsMasked(t *testing.T) {
	cred := NewCredential("sk-secret")

	if strings.Contains(cred.String(), "sk-secret") {
		t.Fatalf("credential leaked through String: %q", cred.String())
	}

	text, _ := cred.MarshalText()
	if strings.Contains(string(text), "sk-secret") {
		t.Fatalf("credential leaked through MarshalText: %q", text)
	}

	if got := Redact("bad key sk-secret provided", cred.Value()); got != "bad key [redacted] provided" {
		t.Fatalf("unexpected redaction: %q", got)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Load(Source{Name: "token", File: empty}); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}

	if _, err := Load(Source{Name: "token"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	value, err := Load(Source{Name: "token", Value: " inline "})
	if err != nil || value != "inline" {
		t.Fatalf("expected inline value, got %q, %v", value, err)
	}
}
