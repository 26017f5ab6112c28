package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Store is a deployment-managed secret store addressed by key name.
// A missing key is reported as an empty value, not as an error.
type Store interface {
	Name() string
	Lookup(key string) (string, error)
}

// FileStore reads secrets from a structured file (toml, yaml or json), the way
// hosted deployments mount a secrets.toml next to the application.
type FileStore struct {
	Path string
}

func (s *FileStore) Name() string { return "secrets file" }

func (s *FileStore) Lookup(key string) (string, error) {
	path := strings.TrimSpace(s.Path)
	if path == "" {
		return "", nil
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("reading secrets file %q: %w", path, err)
	}

	// viper lowercases keys, GetString is case-insensitive.
	return strings.TrimSpace(v.GetString(key)), nil
}

// DirStore reads one secret per file from a directory, as container
// orchestrators mount them (for example /run/secrets/OPENAI_API_KEY).
type DirStore struct {
	Dir string
}

func (s *DirStore) Name() string { return "secrets directory" }

func (s *DirStore) Lookup(key string) (string, error) {
	dir := strings.TrimSpace(s.Dir)
	if dir == "" {
		return "", nil
	}

	path := filepath.Join(dir, key)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", nil
	}

	value, err := Load(Source{Name: key, File: path})
	if errors.Is(err, ErrEmpty) {
		return "", nil
	}

	return value, err
}
