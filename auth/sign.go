package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wow-sven/nuwa-sub012/identity"
	"github.com/wow-sven/nuwa-sub012/keystore"
	"github.com/wow-sven/nuwa-sub012/multibase"
)

// nonceBytes is the entropy of a generated nonce; 16 bytes makes collision
// within a TTL window negligible.
const nonceBytes = 16

// SignOption tunes CreateSignature.
type SignOption func(*signConfig)

type signConfig struct {
	now func() time.Time
}

// WithSigningClock replaces the timestamp source, for deterministic tests.
func WithSigningClock(now func() time.Time) SignOption {
	return func(c *signConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// CreateSignature signs a payload with one of the key manager's keys and
// wraps it in a SignedObject. An empty keyID selects the manager's first
// available key. The payload may be any JSON-serializable value.
func CreateSignature(ctx context.Context, payload any, km *keystore.Manager, keyID string, opts ...SignOption) (*SignedObject, error) {
	cfg := &signConfig{now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}

	if keyID == "" {
		ids, err := km.ListKeyIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list signing keys: %w", err)
		}
		if len(ids) == 0 {
			return nil, keystore.ErrKeyNotFound
		}
		keyID = ids[0]
	}

	signerDID, err := identity.DIDFromKeyID(keyID)
	if err != nil {
		return nil, err
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize payload: %w", err)
	}

	nonce, err := newNonce()
	if err != nil {
		return nil, err
	}

	obj := &SignedObject{
		Payload:   payloadJSON,
		Nonce:     nonce,
		Timestamp: cfg.now().Unix(),
	}

	signingInput, err := obj.signingBytes()
	if err != nil {
		return nil, err
	}

	sig, err := km.SignWithKeyID(ctx, signingInput, keyID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign payload with %s: %w", keyID, err)
	}

	value, err := multibase.Encode(multibase.Base58BTC, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signature: %w", err)
	}

	obj.Signature = Signature{
		SignerDID: signerDID,
		KeyID:     keyID,
		Value:     value,
	}
	return obj, nil
}

func newNonce() (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
