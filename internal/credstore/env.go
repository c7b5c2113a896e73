package credstore

import (
	"context"
	"fmt"
	"os"
)

// EnvStore provides read-only access to a credential document held in an
// environment variable (e.g. injected by a CI secret).
type EnvStore struct {
	envKey string
}

// Compile-time check to ensure EnvStore implements Store
var _ Store = (*EnvStore)(nil)

// NewEnvStore creates an EnvStore for the given environment variable.
// The variable does not need to be set yet; Exists reports that.
func NewEnvStore(envKey string) (*EnvStore, error) {
	if envKey == "" {
		return nil, fmt.Errorf("environment key cannot be empty")
	}

	return &EnvStore{
		envKey: envKey,
	}, nil
}

// Exists reports whether the variable is set to a non-empty value.
func (e *EnvStore) Exists(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	return os.Getenv(e.envKey) != ""
}

// Read returns the variable's value. Returns error if empty.
func (e *EnvStore) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value := os.Getenv(e.envKey)
	if value == "" {
		return nil, fmt.Errorf("environment variable %s is empty", e.envKey)
	}
	return []byte(value), nil
}

// Write is not supported for environment variables.
func (e *EnvStore) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fmt.Errorf("environment variable %s: %w", e.envKey, ErrReadOnly)
}

// Location returns an env:// style identifier.
func (e *EnvStore) Location() string {
	return "env://" + e.envKey
}
