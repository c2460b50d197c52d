package keystore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wow-sven/nuwa-sub012/crypto"
	"github.com/wow-sven/nuwa-sub012/identity"
	"github.com/wow-sven/nuwa-sub012/multibase"
)

// Manager owns the keys of exactly one DID on top of a Store. Key creation
// is serialized internally so two concurrent GenerateKey calls can never
// race a check-then-write into the same key id.
type Manager struct {
	store Store

	mu  sync.Mutex
	did string
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDID binds the manager to a DID at construction time.
func WithDID(did string) ManagerOption {
	return func(m *Manager) {
		m.did = did
	}
}

// NewManager creates a key manager over the given store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{store: store}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewManagerFromString builds a manager around an in-memory store seeded
// with one key restored from its export string.
func NewManagerFromString(serialized string) (*Manager, error) {
	key, err := DecodeStoredKey(serialized)
	if err != nil {
		return nil, err
	}

	store := NewMemoryStore()
	if err := store.Save(context.Background(), key); err != nil {
		return nil, err
	}

	did, err := identity.DIDFromKeyID(key.KeyID)
	if err != nil {
		return nil, fmt.Errorf("stored key has invalid key id: %w", err)
	}

	return NewManager(store, WithDID(did)), nil
}

// SetDID binds the manager to a DID. Rebinding to a different DID once keys
// are managed under the first one is rejected.
func (m *Manager) SetDID(did string) error {
	if _, err := identity.Parse(did); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.did != "" && m.did != did {
		return fmt.Errorf("manager already bound to %s", m.did)
	}
	m.did = did
	return nil
}

// DID returns the bound DID, deriving it from the first stored key when the
// manager was not explicitly bound. Fails with ErrDIDNotInitialized when
// neither source is available.
func (m *Manager) DID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.didLocked(ctx)
}

func (m *Manager) didLocked(ctx context.Context) (string, error) {
	if m.did != "" {
		return m.did, nil
	}

	key, err := m.store.Load(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to load key for DID derivation: %w", err)
	}
	if key == nil {
		return "", ErrDIDNotInitialized
	}

	did, err := identity.DIDFromKeyID(key.KeyID)
	if err != nil {
		return "", fmt.Errorf("stored key has invalid key id: %w", err)
	}
	m.did = did
	return did, nil
}

// GenerateKey creates a fresh key pair under the bound DID and persists it.
// An empty fragment gets a timestamp-based default; an empty key type
// defaults to Ed25519. Colliding with an existing key id fails with
// ErrKeyExists rather than silently overwriting.
func (m *Manager) GenerateKey(ctx context.Context, fragment string, keyType crypto.KeyType) (*StoredKey, error) {
	if keyType == "" {
		keyType = crypto.KeyTypeEd25519
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	did, err := m.didLocked(ctx)
	if err != nil {
		return nil, err
	}

	if fragment == "" {
		fragment = fmt.Sprintf("key-%d", time.Now().UnixNano())
	}
	keyID := did + "#" + fragment

	if err := m.ensureAbsentLocked(ctx, keyID); err != nil {
		return nil, err
	}

	pair, err := crypto.GenerateKeyPair(keyType)
	if err != nil {
		return nil, err
	}

	key, err := storedKeyFromPair(keyID, pair)
	if err != nil {
		return nil, err
	}

	if err := m.store.Save(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to persist generated key: %w", err)
	}
	return key, nil
}

// ImportKey persists an externally produced StoredKey. The key's embedded
// DID must match the bound DID when one is set; otherwise it binds the
// manager.
func (m *Manager) ImportKey(ctx context.Context, key *StoredKey) error {
	if key == nil {
		return fmt.Errorf("stored key is nil")
	}

	did, err := identity.DIDFromKeyID(key.KeyID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.did != "" && m.did != did {
		return fmt.Errorf("key %s belongs to %s, manager is bound to %s", key.KeyID, did, m.did)
	}

	if err := m.ensureAbsentLocked(ctx, key.KeyID); err != nil {
		return err
	}
	if err := m.store.Save(ctx, key); err != nil {
		return fmt.Errorf("failed to persist imported key: %w", err)
	}
	m.did = did
	return nil
}

// ImportKeyPair validates a raw key pair with a sign-and-verify probe
// before persisting it under the bound DID. A pair that does not verify
// fails with ErrKeyPairInconsistent.
func (m *Manager) ImportKeyPair(ctx context.Context, fragment string, pair *crypto.KeyPair) (*StoredKey, error) {
	if pair == nil {
		return nil, fmt.Errorf("key pair is nil")
	}
	if fragment == "" {
		return nil, fmt.Errorf("fragment is required")
	}

	ok, err := crypto.VerifyKeyPair(pair.Type, pair.PrivateKey, pair.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("key pair validation failed: %w", err)
	}
	if !ok {
		return nil, ErrKeyPairInconsistent
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	did, err := m.didLocked(ctx)
	if err != nil {
		return nil, err
	}
	keyID := did + "#" + fragment

	if err := m.ensureAbsentLocked(ctx, keyID); err != nil {
		return nil, err
	}

	key, err := storedKeyFromPair(keyID, pair)
	if err != nil {
		return nil, err
	}

	if err := m.store.Save(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to persist imported key pair: %w", err)
	}
	return key, nil
}

// SignWithKeyID signs data with the named key. Unknown key ids fail with
// ErrKeyNotFound.
func (m *Manager) SignWithKeyID(ctx context.Context, data []byte, keyID string) ([]byte, error) {
	key, err := m.store.Load(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, ErrKeyNotFound
	}

	_, priv, err := multibase.Decode(key.PrivateKeyMultibase)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key for %s: %w", key.KeyID, err)
	}

	return crypto.Sign(key.KeyType, priv, data)
}

// CanSignWithKeyID reports whether the store holds a key usable for signing
// under the given id.
func (m *Manager) CanSignWithKeyID(ctx context.Context, keyID string) bool {
	key, err := m.store.Load(ctx, keyID)
	return err == nil && key != nil && key.PrivateKeyMultibase != ""
}

// GetKeyInfo returns the public description of a stored key.
func (m *Manager) GetKeyInfo(ctx context.Context, keyID string) (*KeyInfo, error) {
	key, err := m.store.Load(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, ErrKeyNotFound
	}
	return &KeyInfo{
		KeyID:              key.KeyID,
		KeyType:            key.KeyType,
		PublicKeyMultibase: key.PublicKeyMultibase,
	}, nil
}

// ListKeyIDs lists the ids of every stored key.
func (m *Manager) ListKeyIDs(ctx context.Context) ([]string, error) {
	return m.store.ListKeyIDs(ctx)
}

// DeleteKey removes one key from the store.
func (m *Manager) DeleteKey(ctx context.Context, keyID string) error {
	if keyID == "" {
		return fmt.Errorf("key id is required")
	}
	return m.store.Clear(ctx, keyID)
}

// Clear removes every key from the store.
func (m *Manager) Clear(ctx context.Context) error {
	return m.store.Clear(ctx, "")
}

// ExportKeyToString serializes one stored key into its portable export
// string.
func (m *Manager) ExportKeyToString(ctx context.Context, keyID string) (string, error) {
	key, err := m.store.Load(ctx, keyID)
	if err != nil {
		return "", err
	}
	if key == nil {
		return "", ErrKeyNotFound
	}
	return EncodeStoredKey(key)
}

// ImportKeyFromString restores a key from its export string and persists it.
func (m *Manager) ImportKeyFromString(ctx context.Context, serialized string) (*StoredKey, error) {
	key, err := DecodeStoredKey(serialized)
	if err != nil {
		return nil, err
	}
	if err := m.ImportKey(ctx, key); err != nil {
		return nil, err
	}
	return key, nil
}

// FindKeyWithRelationship returns the id of the first stored key whose
// verification method is referenced by the named relationship in the given
// document. Callers use this to pick an authentication key for signing.
func (m *Manager) FindKeyWithRelationship(ctx context.Context, doc *identity.Document, rel identity.VerificationRelationship) (string, error) {
	ids, err := m.store.ListKeyIDs(ctx)
	if err != nil {
		return "", err
	}

	for _, id := range ids {
		if doc.HasRelationship(rel, id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no stored key carries %s in %s", ErrKeyNotFound, rel, doc.ID)
}

// ensureAbsentLocked fails with ErrKeyExists when the store already holds
// the key id. Callers hold m.mu, which closes the check-then-write window.
func (m *Manager) ensureAbsentLocked(ctx context.Context, keyID string) error {
	existing, err := m.store.Load(ctx, keyID)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to check for existing key: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", ErrKeyExists, keyID)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

func storedKeyFromPair(keyID string, pair *crypto.KeyPair) (*StoredKey, error) {
	pub, err := multibase.EncodePublicKey(pair.Type, pair.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encode public key: %w", err)
	}
	priv, err := multibase.Encode(multibase.Base58BTC, pair.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encode private key: %w", err)
	}
	return &StoredKey{
		KeyID:               keyID,
		KeyType:             pair.Type,
		PublicKeyMultibase:  pub,
		PrivateKeyMultibase: priv,
	}, nil
}
