package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"
)

var (
	// ErrNotConfigured is returned when no source yields a secret.
	ErrNotConfigured = errors.New("not configured")
	// ErrEmpty is returned when a secret file exists but holds no value.
	ErrEmpty = errors.New("empty")
)

// PromptFunc asks the operator for a secret interactively.
type PromptFunc func(label string) (string, error)

// Resolver looks a secret up by a fixed key name in strict order: every
// configured store, then the process environment, then an interactive prompt.
// The first non-empty value wins and later sources are not consulted.
type Resolver struct {
	Key    string
	Stores []Store
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
	// Prompt is optional. Secrets that must fail closed leave it nil.
	Prompt PromptFunc
	Logger *zap.Logger
}

// Resolve returns the first non-empty secret. ErrNotConfigured means every
// source came up empty and the caller must not proceed.
func (r *Resolver) Resolve() (Credential, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	key := strings.TrimSpace(r.Key)
	if key == "" {
		return Credential{}, errors.New("secret key name is required")
	}

	for _, store := range r.Stores {
		if store == nil {
			continue
		}

		value, err := store.Lookup(key)
		if err != nil {
			logger.Warn("secret store lookup failed",
				zap.String("store", store.Name()),
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}

		if cred := NewCredential(value); !cred.IsZero() {
			logger.Debug("secret resolved", zap.String("key", key), zap.String("source", store.Name()))
			return cred, nil
		}
	}

	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	if cred := NewCredential(getenv(key)); !cred.IsZero() {
		logger.Debug("secret resolved", zap.String("key", key), zap.String("source", "environment"))
		return cred, nil
	}

	if r.Prompt != nil {
		value, err := r.Prompt(key)
		if err != nil {
			return Credential{}, fmt.Errorf("prompting for %s: %w", key, err)
		}

		if cred := NewCredential(value); !cred.IsZero() {
			logger.Debug("secret resolved", zap.String("key", key), zap.String("source", "prompt"))
			return cred, nil
		}
	}

	return Credential{}, fmt.Errorf("%s is %w", key, ErrNotConfigured)
}

// MaskedPrompt reads a secret from the terminal without echoing it.
func MaskedPrompt(label string) (string, error) {
	prompt := promptui.Prompt{
		Label:       label,
		Mask:        '*',
		HideEntered: true,
	}

	return prompt.Run()
}
