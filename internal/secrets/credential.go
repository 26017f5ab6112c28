package secrets

import "strings"

const redacted = "[redacted]"

// Credential holds a resolved secret. It renders masked when printed or logged;
// only Value exposes the secret itself.
type Credential struct {
	value string
}

// NewCredential wraps a raw secret, trimming surrounding whitespace.
func NewCredential(value string) Credential {
	return Credential{value: strings.TrimSpace(value)}
}

// Value returns the raw secret. Callers pass it to transports only.
func (c Credential) Value() string { return c.value }

// IsZero reports whether no secret was resolved.
func (c Credential) IsZero() bool { return c.value == "" }

func (c Credential) String() string {
	if c.IsZero() {
		return ""
	}
	return redacted
}

func (c Credential) GoString() string { return c.String() }

// MarshalText keeps the secret out of JSON and YAML dumps.
func (c Credential) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Redact replaces every occurrence of the secret in s.
func Redact(s string, secret string) string {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, redacted)
}
