// Package scope implements the capability mini-language that constrains
// which on-chain function a session key may invoke. A scope is
// address::module::function where each segment is a literal or the
// wildcard *; address literals must be lowercase hex (0x...) or a
// bech32-style string such as rooch1....
//
// The package supplies format checking and the primitive matcher only;
// combining grants into a policy (OR across the grant list) belongs to the
// caller, with MatchAny as the building block.
package scope

import (
	"regexp"
	"strings"
)

// Wildcard matches any value in its segment.
const Wildcard = "*"

const separator = "::"

var (
	hexAddressPattern    = regexp.MustCompile(`^0x[0-9a-f]+$`)
	bech32AddressPattern = regexp.MustCompile(`^[a-z]{1,16}1[02-9ac-hj-np-z]{6,}$`)
)

// Scope is a parsed capability 3-tuple. A pure value type; two scopes with
// the same segments are interchangeable.
type Scope struct {
	Address  string
	Module   string
	Function string
}

// Parse splits and validates a scope string.
func Parse(s string) (Scope, bool) {
	parts := strings.Split(s, separator)
	if len(parts) != 3 {
		return Scope{}, false
	}

	scope := Scope{Address: parts[0], Module: parts[1], Function: parts[2]}
	if !validAddressSegment(scope.Address) {
		return Scope{}, false
	}
	if !validTokenSegment(scope.Module) || !validTokenSegment(scope.Function) {
		return Scope{}, false
	}
	return scope, true
}

// String returns the canonical textual form of the scope.
func (s Scope) String() string {
	return s.Address + separator + s.Module + separator + s.Function
}

// Matches reports whether a requested call falls under this scope,
// segment-wise equality-or-wildcard.
func (s Scope) Matches(address, module, function string) bool {
	return segmentMatches(s.Address, address) &&
		segmentMatches(s.Module, module) &&
		segmentMatches(s.Function, function)
}

func segmentMatches(granted, requested string) bool {
	return granted == Wildcard || granted == requested
}

// ValidateScopeFormat reports whether the string is a well-formed scope.
func ValidateScopeFormat(s string) bool {
	_, ok := Parse(s)
	return ok
}

// ValidationResult partitions a scope list into valid and invalid entries.
type ValidationResult struct {
	Valid         bool
	InvalidScopes []string
}

// ValidateScopes checks every scope string in the input and reports the
// invalid ones. Valid is true only when the whole list is well-formed.
func ValidateScopes(scopes []string) ValidationResult {
	result := ValidationResult{Valid: true}
	for _, s := range scopes {
		if !ValidateScopeFormat(s) {
			result.Valid = false
			result.InvalidScopes = append(result.InvalidScopes, s)
		}
	}
	return result
}

// MatchAny reports whether the requested call matches at least one granted
// scope. Malformed grants never match.
func MatchAny(grants []string, address, module, function string) bool {
	for _, grant := range grants {
		scope, ok := Parse(grant)
		if !ok {
			continue
		}
		if scope.Matches(address, module, function) {
			return true
		}
	}
	return false
}

func validAddressSegment(s string) bool {
	if s == Wildcard {
		return true
	}
	return hexAddressPattern.MatchString(s) || bech32AddressPattern.MatchString(s)
}

func validTokenSegment(s string) bool {
	if s == Wildcard {
		return true
	}
	return s != "" && !strings.Contains(s, ":")
}
