package credstore

import (
	"context"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringStore keeps a credential document in OS-native secure storage.
// Uses macOS Keychain, Windows Credential Manager, or Linux Secret Service.
type KeyringStore struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringStore implements Store
var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore using the given service and user identifiers.
func NewKeyringStore(service, user string) (*KeyringStore, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringStore{
		service: service,
		user:    user,
	}, nil
}

// Exists reports whether a non-empty secret is stored for service and user.
func (k *KeyringStore) Exists(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	secret, err := keyring.Get(k.service, k.user)
	return err == nil && secret != ""
}

// Read returns the secret from the system keyring. Returns error if not found or empty.
func (k *KeyringStore) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	secret, err := keyring.Get(k.service, k.user)
	if err != nil {
		return nil, err
	}

	if secret == "" {
		return nil, fmt.Errorf("empty secret in keyring for service %s, user %s", k.service, k.user)
	}

	return []byte(secret), nil
}

// Write persists data to the system keyring, overwriting any existing value.
func (k *KeyringStore) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return keyring.Set(k.service, k.user, string(data))
}

// Location returns a keyring:// style identifier.
func (k *KeyringStore) Location() string {
	return "keyring://" + k.service + "/" + k.user
}
