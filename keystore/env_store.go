package keystore

import (
	"context"
	"fmt"
	"os"
)

// DefaultEnvVar is the environment variable EnvStore reads when none is
// configured.
const DefaultEnvVar = "STORED_KEY"

// EnvStore is a read-only store backed by environment variables, each
// holding one serialized StoredKey export string. It lets a service boot
// its signing key from a secret manager without touching disk.
type EnvStore struct {
	vars []string
}

// NewEnvStore creates a store reading the given environment variables.
// With no arguments it reads DefaultEnvVar.
func NewEnvStore(vars ...string) *EnvStore {
	if len(vars) == 0 {
		vars = []string{DefaultEnvVar}
	}
	return &EnvStore{vars: vars}
}

func (s *EnvStore) load() ([]StoredKey, error) {
	var keys []StoredKey
	for _, name := range s.vars {
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		key, err := DecodeStoredKey(value)
		if err != nil {
			return nil, fmt.Errorf("invalid stored key in $%s: %w", name, err)
		}
		keys = append(keys, *key)
	}
	return keys, nil
}

// ListKeyIDs returns the key ids found in the configured variables.
func (s *EnvStore) ListKeyIDs(ctx context.Context) ([]string, error) {
	keys, err := s.load()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, key.KeyID)
	}
	return ids, nil
}

// Load returns the key with the given id, or the first configured key when
// keyID is empty.
func (s *EnvStore) Load(ctx context.Context, keyID string) (*StoredKey, error) {
	keys, err := s.load()
	if err != nil {
		return nil, err
	}

	if keyID == "" {
		if len(keys) == 0 {
			return nil, nil
		}
		return &keys[0], nil
	}

	for i := range keys {
		if keys[i].KeyID == keyID {
			return &keys[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, keyID)
}

// Save is not supported; the environment is read-only.
func (s *EnvStore) Save(ctx context.Context, key *StoredKey) error {
	return fmt.Errorf("%w: cannot save to environment", ErrReadOnlyStore)
}

// Clear is not supported; the environment is read-only.
func (s *EnvStore) Clear(ctx context.Context, keyID string) error {
	return fmt.Errorf("%w: cannot clear environment", ErrReadOnlyStore)
}

var _ Store = (*EnvStore)(nil)
