// Package keystore manages DID key material: the portable StoredKey record,
// pluggable persistence backends, and the KeyManager that owns one DID's
// keys across generation, import, signing, and export.
package keystore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wow-sven/nuwa-sub012/crypto"
)

// Sentinel errors surfaced by stores and the KeyManager.
var (
	// ErrKeyNotFound is returned when looking up a key id the store does
	// not hold.
	ErrKeyNotFound = errors.New("key not found")

	// ErrKeyExists is returned when a generate or import would overwrite
	// an existing key id.
	ErrKeyExists = errors.New("key id already exists")

	// ErrDIDNotInitialized is returned when an operation requires a bound
	// DID and none is set or derivable.
	ErrDIDNotInitialized = errors.New("DID not initialized")

	// ErrKeyPairInconsistent is returned when an imported private/public
	// pair fails the sign-and-verify probe.
	ErrKeyPairInconsistent = errors.New("private and public key do not form a consistent pair")

	// ErrReadOnlyStore is returned by stores that cannot persist changes.
	ErrReadOnlyStore = errors.New("store is read-only")
)

// StoredKey is the portable record for one key pair. Both key fields are
// multibase-encoded; the public key carries its multicodec prefix.
type StoredKey struct {
	KeyID               string         `json:"keyId"`
	KeyType             crypto.KeyType `json:"keyType"`
	PublicKeyMultibase  string         `json:"publicKeyMultibase"`
	PrivateKeyMultibase string         `json:"privateKeyMultibase"`
}

// KeyInfo is the public subset of a StoredKey, safe to hand to callers that
// must not see private material.
type KeyInfo struct {
	KeyID              string         `json:"keyId"`
	KeyType            crypto.KeyType `json:"keyType"`
	PublicKeyMultibase string         `json:"publicKeyMultibase"`
}

// Store is the persistence contract for key material. Implementations must
// surface storage failures to the caller rather than swallow them.
//
// Load with an empty keyID returns the first available key, a convenience
// for single-key flows. Clear with an empty keyID removes every key.
type Store interface {
	ListKeyIDs(ctx context.Context) ([]string, error)
	Load(ctx context.Context, keyID string) (*StoredKey, error)
	Save(ctx context.Context, key *StoredKey) error
	Clear(ctx context.Context, keyID string) error
}

// MemoryStore keeps keys in process memory. Safe for concurrent use.
// Listing preserves insertion order so "first available key" is stable.
type MemoryStore struct {
	mu    sync.RWMutex
	keys  map[string]StoredKey
	order []string
}

// NewMemoryStore creates an empty in-memory key store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]StoredKey)}
}

// ListKeyIDs returns the stored key ids in insertion order.
func (s *MemoryStore) ListKeyIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids, nil
}

// Load returns the key with the given id, or the first available key when
// keyID is empty. Returns nil without error when the store is empty and no
// id was requested.
func (s *MemoryStore) Load(ctx context.Context, keyID string) (*StoredKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if keyID == "" {
		if len(s.order) == 0 {
			return nil, nil
		}
		keyID = s.order[0]
	}

	key, ok := s.keys[keyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, keyID)
	}
	return &key, nil
}

// Save stores the key record, replacing any existing record with the same id.
func (s *MemoryStore) Save(ctx context.Context, key *StoredKey) error {
	if key == nil || key.KeyID == "" {
		return fmt.Errorf("stored key must have a key id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key.KeyID]; !ok {
		s.order = append(s.order, key.KeyID)
	}
	s.keys[key.KeyID] = *key
	return nil
}

// Clear removes the key with the given id, or every key when keyID is empty.
func (s *MemoryStore) Clear(ctx context.Context, keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keyID == "" {
		s.keys = make(map[string]StoredKey)
		s.order = nil
		return nil
	}

	delete(s.keys, keyID)
	for i, id := range s.order {
		if id == keyID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
