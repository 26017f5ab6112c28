package interactions

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrAdminNotConfigured means no admin password is set; access is refused.
	ErrAdminNotConfigured = errors.New("admin password is not configured")
	ErrUnauthorized       = errors.New("incorrect admin password")
)

// Authorize compares the given password with the configured secret in
// constant time. An empty secret never authorizes.
func Authorize(given, secret string) error {
	if secret == "" {
		return ErrAdminNotConfigured
	}

	if subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
		return ErrUnauthorized
	}

	return nil
}

// Export copies the CSV log at src to dst and returns the number of entries.
func Export(src, dst string) (int, error) {
	entries, err := ReadEntries(src)
	if err != nil {
		return 0, err
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open log: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, fmt.Errorf("create export: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return 0, fmt.Errorf("copy log: %w", err)
	}

	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("close export: %w", err)
	}

	return len(entries), nil
}
