// Package auth implements DIDAuth v1: a signed-request protocol that
// binds an application payload to a DID-controlled key with nonce-based
// replay protection and timestamp freshness.
//
// A caller signs a payload through its key manager, transports the
// resulting SignedObject as an HTTP header, and the verifier replays the
// pipeline: resolve the signer's DID Document, locate the key, check its
// verification relationship, verify the signature over the canonical
// envelope, check freshness, and register the nonce.
package auth

import "encoding/json"

// Scheme is the authorization scheme prefix of a DIDAuth v1 header value.
const Scheme = "DIDAuthV1"

// DefaultDomainSeparator tags nonces so a signature cannot be replayed
// across protocol contexts.
const DefaultDomainSeparator = "DIDAuthV1"

// Signature identifies the signing key and carries the multibase-encoded
// signature bytes.
type Signature struct {
	SignerDID string `json:"signer_did"`
	KeyID     string `json:"key_id"`
	Value     string `json:"value"`
}

// SignedObject is one signed request: the application payload plus the
// envelope fields covered by the signature. Created once per signing call,
// immutable afterward, and consumed successfully exactly once before the
// nonce store rejects it as a replay.
type SignedObject struct {
	Payload   json.RawMessage `json:"payload"`
	Signature Signature       `json:"signature"`
	Nonce     string          `json:"nonce"`
	Timestamp int64           `json:"timestamp"`
}

// signingEnvelope is the structure whose canonical JSON forms the signed
// bytes. The signature block itself is never part of the signing input.
type signingEnvelope struct {
	Payload   json.RawMessage `json:"payload"`
	Nonce     string          `json:"nonce"`
	Timestamp int64           `json:"timestamp"`
}

// signingBytes recomputes the canonical bytes covered by the signature.
func (o *SignedObject) signingBytes() ([]byte, error) {
	return CanonicalJSON(signingEnvelope{
		Payload:   o.Payload,
		Nonce:     o.Nonce,
		Timestamp: o.Timestamp,
	})
}
