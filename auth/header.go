package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wow-sven/nuwa-sub012/identity"
)

// EncodeAuthHeader renders a SignedObject as an HTTP header value:
// "DIDAuthV1 <base64url(JSON)>".
func EncodeAuthHeader(obj *SignedObject) (string, error) {
	if obj == nil {
		return "", fmt.Errorf("signed object is nil")
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("failed to serialize signed object: %w", err)
	}

	return Scheme + " " + base64.URLEncoding.EncodeToString(data), nil
}

// DecodeAuthHeader parses a DIDAuth v1 header value back into a
// SignedObject, checking the scheme tag and the structural completeness of
// the envelope.
func DecodeAuthHeader(header string) (*SignedObject, error) {
	scheme, encoded, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || scheme != Scheme {
		return nil, fmt.Errorf("header does not carry the %s scheme", Scheme)
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		// Accept the unpadded form as well; some clients strip padding.
		data, err = base64.RawURLEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("header payload is not valid base64url: %w", err)
		}
	}

	var obj SignedObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("header payload is not a signed object: %w", err)
	}

	if obj.Signature.SignerDID == "" || obj.Signature.KeyID == "" || obj.Signature.Value == "" {
		return nil, fmt.Errorf("signed object is missing signature fields")
	}
	if _, err := identity.Parse(obj.Signature.SignerDID); err != nil {
		return nil, fmt.Errorf("signer DID is malformed: %w", err)
	}
	if obj.Nonce == "" {
		return nil, fmt.Errorf("signed object is missing its nonce")
	}
	if obj.Timestamp == 0 {
		return nil, fmt.Errorf("signed object is missing its timestamp")
	}

	return &obj, nil
}
