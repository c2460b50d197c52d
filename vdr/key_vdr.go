package vdr

import (
	"context"
	"fmt"
	"strings"

	"github.com/wow-sven/nuwa-sub012/crypto"
	"github.com/wow-sven/nuwa-sub012/identity"
	"github.com/wow-sven/nuwa-sub012/multibase"
)

const keyMethod = "key"

// KeyVDR resolves did:key identifiers. The whole DID Document is derived
// offline from the multibase-encoded public key embedded in the
// identifier, so resolution never touches the network and a did:key can
// never be "not found", only malformed.
type KeyVDR struct{}

// NewKeyVDR creates a did:key resolver.
func NewKeyVDR() *KeyVDR {
	return &KeyVDR{}
}

// Method returns "key".
func (v *KeyVDR) Method() string {
	return keyMethod
}

// Resolve derives the DID Document from the identifier. A structurally
// invalid did:key resolves negatively rather than erroring, since no
// registry exists where it could be looked up.
func (v *KeyVDR) Resolve(ctx context.Context, did string) (*identity.Document, error) {
	parsed, err := identity.Parse(did)
	if err != nil {
		return nil, err
	}
	if parsed.Method != keyMethod {
		return nil, fmt.Errorf("%w: expected did:key, got did:%s", ErrUnsupportedMethod, parsed.Method)
	}

	keyType, raw, err := multibase.DecodePublicKey(parsed.Identifier)
	if err != nil {
		return nil, nil
	}
	if err := crypto.ValidatePublicKey(keyType, raw); err != nil {
		return nil, nil
	}

	return documentForKey(did, parsed.Identifier, keyType), nil
}

// Exists reports whether the identifier encodes a valid public key.
func (v *KeyVDR) Exists(ctx context.Context, did string) (bool, error) {
	doc, err := v.Resolve(ctx, did)
	if err != nil {
		return false, err
	}
	return doc != nil, nil
}

// Create derives the did:key identifier and document for a public key.
// Nothing is registered anywhere; the document is a pure function of the
// key.
func (v *KeyVDR) Create(ctx context.Context, req *CreateRequest) (*CreateResult, error) {
	if req == nil || req.PublicKeyMultibase == "" {
		return &CreateResult{Success: false, Error: "publicKeyMultibase is required"}, nil
	}

	keyType, raw, err := multibase.DecodePublicKey(req.PublicKeyMultibase)
	if err != nil {
		return &CreateResult{Success: false, Error: err.Error()}, nil
	}
	if err := crypto.ValidatePublicKey(keyType, raw); err != nil {
		return &CreateResult{Success: false, Error: err.Error()}, nil
	}

	did := identity.Prefix + keyMethod + ":" + req.PublicKeyMultibase
	return &CreateResult{
		Success:  true,
		Document: documentForKey(did, req.PublicKeyMultibase, keyType),
	}, nil
}

// documentForKey builds the canonical did:key document: one verification
// method referenced by every relationship, with the fragment equal to the
// multibase key itself.
func documentForKey(did, encodedKey string, keyType crypto.KeyType) *identity.Document {
	vmID := did + "#" + encodedKey
	return &identity.Document{
		Context: []string{
			"https://www.w3.org/ns/did/v1",
			"https://w3id.org/security/suites/ed25519-2020/v1",
		},
		ID: did,
		VerificationMethod: []identity.VerificationMethod{{
			ID:                 vmID,
			Type:               string(keyType),
			Controller:         did,
			PublicKeyMultibase: encodedKey,
		}},
		Authentication:       []string{vmID},
		AssertionMethod:      []string{vmID},
		CapabilityInvocation: []string{vmID},
		CapabilityDelegation: []string{vmID},
	}
}

// DIDForPublicKey returns the did:key identifier for a raw public key.
func DIDForPublicKey(keyType crypto.KeyType, raw []byte) (string, error) {
	encoded, err := multibase.EncodePublicKey(keyType, raw)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(encoded, "z") {
		return "", fmt.Errorf("unexpected multibase prefix for did:key: %s", encoded)
	}
	return identity.Prefix + keyMethod + ":" + encoded, nil
}

var _ VDR = (*KeyVDR)(nil)
