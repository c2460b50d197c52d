package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wow-sven/nuwa-sub012/crypto"
	"github.com/wow-sven/nuwa-sub012/identity"
	"github.com/wow-sven/nuwa-sub012/multibase"
	"github.com/wow-sven/nuwa-sub012/nonce"
	"github.com/wow-sven/nuwa-sub012/vdr"
)

// DefaultMaxClockSkew bounds how far a signed timestamp may drift from the
// verifier's clock.
const DefaultMaxClockSkew = 5 * time.Minute

// VerifyOption tunes VerifyAuthHeader.
type VerifyOption func(*verifyConfig)

type verifyConfig struct {
	maxClockSkew  time.Duration
	domain        string
	relationships []identity.VerificationRelationship
	nonceTTL      time.Duration
	now           func() time.Time
}

// WithMaxClockSkew overrides the freshness window.
func WithMaxClockSkew(skew time.Duration) VerifyOption {
	return func(c *verifyConfig) {
		if skew > 0 {
			c.maxClockSkew = skew
		}
	}
}

// WithDomainSeparator tags the nonce registration so the same signature
// cannot be replayed into a different protocol context.
func WithDomainSeparator(domain string) VerifyOption {
	return func(c *verifyConfig) {
		if domain != "" {
			c.domain = domain
		}
	}
}

// WithRequiredRelationships sets the verification relationships the signing
// key must carry. Defaults to authentication; callers gating privileged
// operations add capabilityInvocation.
func WithRequiredRelationships(rels ...identity.VerificationRelationship) VerifyOption {
	return func(c *verifyConfig) {
		if len(rels) > 0 {
			c.relationships = rels
		}
	}
}

// WithNonceTTL overrides how long a consumed nonce stays on record.
func WithNonceTTL(ttl time.Duration) VerifyOption {
	return func(c *verifyConfig) {
		if ttl > 0 {
			c.nonceTTL = ttl
		}
	}
}

// WithVerificationClock replaces the verifier's time source, for
// deterministic tests.
func WithVerificationClock(now func() time.Time) VerifyOption {
	return func(c *verifyConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// VerifyAuthHeader runs the DIDAuth v1 verification pipeline over a header
// value. Every failure path returns a discriminated VerifyResult; nothing
// in this pipeline panics on adversarial input.
//
// The nonce is registered only after the signature and capability checks
// pass, so forged traffic cannot exhaust the nonce store.
func VerifyAuthHeader(ctx context.Context, header string, registry *vdr.Registry, store nonce.Store, opts ...VerifyOption) VerifyResult {
	cfg := &verifyConfig{
		maxClockSkew:  DefaultMaxClockSkew,
		domain:        DefaultDomainSeparator,
		relationships: []identity.VerificationRelationship{identity.RelationshipAuthentication},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.nonceTTL == 0 {
		// A replayed header older than the skew window is already
		// rejected as expired, so the record only needs to outlive it.
		cfg.nonceTTL = 2 * cfg.maxClockSkew
	}

	obj, err := DecodeAuthHeader(header)
	if err != nil {
		return failure(ErrorKindMalformedHeader, err.Error())
	}

	doc, err := registry.ResolveDID(ctx, obj.Signature.SignerDID)
	if err != nil {
		if errors.Is(err, vdr.ErrUnsupportedMethod) {
			return failure(ErrorKindUnsupportedMethod, err.Error())
		}
		return failure(ErrorKindResolutionFailed, err.Error())
	}
	if doc == nil {
		return failure(ErrorKindDIDNotFound, fmt.Sprintf("%s did not resolve", obj.Signature.SignerDID))
	}

	vm := doc.FindVerificationMethod(obj.Signature.KeyID)
	if vm == nil {
		return failure(ErrorKindKeyNotFound, fmt.Sprintf("%s is not in the document for %s", obj.Signature.KeyID, doc.ID))
	}

	for _, rel := range cfg.relationships {
		if !doc.HasRelationship(rel, vm.ID) {
			return failure(ErrorKindInsufficientCapability, fmt.Sprintf("%s lacks the %s relationship", vm.ID, rel))
		}
	}

	// Freshness first: it is cheap and trims expired traffic before the
	// signature check.
	// Bounds-check in whole seconds. Subtracting or converting an
	// unchecked timestamp to a Duration can overflow int64 and let an
	// extreme value slip past the window.
	nowSec := cfg.now().Unix()
	skewSec := int64(cfg.maxClockSkew / time.Second)
	if obj.Timestamp < nowSec-skewSec || obj.Timestamp > nowSec+skewSec {
		return failure(ErrorKindExpired, fmt.Sprintf("timestamp %d is outside the %s skew window", obj.Timestamp, cfg.maxClockSkew))
	}

	keyType, publicKey, err := multibase.DecodePublicKey(vm.PublicKeyMultibase)
	if err != nil {
		return failure(ErrorKindInvalidSignature, fmt.Sprintf("verification method %s has an undecodable key: %v", vm.ID, err))
	}

	_, sig, err := multibase.Decode(obj.Signature.Value)
	if err != nil {
		return failure(ErrorKindInvalidSignature, fmt.Sprintf("signature value is not valid multibase: %v", err))
	}

	signingInput, err := obj.signingBytes()
	if err != nil {
		return failure(ErrorKindMalformedHeader, err.Error())
	}

	if !crypto.Verify(keyType, publicKey, signingInput, sig) {
		return failure(ErrorKindInvalidSignature, "signature does not match the canonical payload")
	}

	fresh, err := store.TryStoreNonce(ctx, obj.Signature.SignerDID, cfg.domain, obj.Nonce, cfg.nonceTTL)
	if err != nil {
		return failure(ErrorKindStorageError, err.Error())
	}
	if !fresh {
		return failure(ErrorKindReplayDetected, fmt.Sprintf("nonce %s was already consumed", obj.Nonce))
	}

	return VerifyResult{OK: true, Object: obj}
}
