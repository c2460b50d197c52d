// Package identity provides the core DID domain model: DID identifier
// parsing, the DID Document structure with its verification methods and
// relationship grants, and structural validation of resolved documents.
package identity

import (
	"fmt"
	"strings"
)

// Prefix is the scheme prefix every DID string starts with.
const Prefix = "did:"

// DID is a parsed decentralized identifier of the form
// did:<method>:<method-specific-id>.
type DID struct {
	Method     string
	Identifier string
}

// Parse splits a DID string into its method and method-specific identifier.
//
// Returns an error if the string does not follow the did:<method>:<id> form.
func Parse(s string) (DID, error) {
	if !strings.HasPrefix(s, Prefix) {
		return DID{}, fmt.Errorf("invalid DID %q: must start with %q", s, Prefix)
	}

	rest := strings.TrimPrefix(s, Prefix)
	method, identifier, found := strings.Cut(rest, ":")
	if !found || method == "" || identifier == "" {
		return DID{}, fmt.Errorf("invalid DID %q: expected did:<method>:<identifier>", s)
	}

	return DID{Method: method, Identifier: identifier}, nil
}

// MethodOf extracts the method segment of a DID string without fully
// validating the identifier part.
func MethodOf(s string) (string, error) {
	did, err := Parse(s)
	if err != nil {
		return "", err
	}
	return did.Method, nil
}

// String returns the canonical textual form of the DID.
func (d DID) String() string {
	return Prefix + d.Method + ":" + d.Identifier
}

// DIDFromKeyID extracts the DID part of a key identifier of the form
// <did>#<fragment>.
func DIDFromKeyID(keyID string) (string, error) {
	didPart, _, found := strings.Cut(keyID, "#")
	if !found || didPart == "" {
		return "", fmt.Errorf("invalid key id %q: expected <did>#<fragment>", keyID)
	}
	if _, err := Parse(didPart); err != nil {
		return "", err
	}
	return didPart, nil
}

// FragmentFromKeyID extracts the fragment part of a key identifier of the
// form <did>#<fragment>.
func FragmentFromKeyID(keyID string) (string, error) {
	_, fragment, found := strings.Cut(keyID, "#")
	if !found || fragment == "" {
		return "", fmt.Errorf("invalid key id %q: missing fragment", keyID)
	}
	return fragment, nil
}
