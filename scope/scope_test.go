package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Scope
		ok    bool
	}{
		{
			name:  "hex address literal",
			input: "0x1::defi::swap",
			want:  Scope{Address: "0x1", Module: "defi", Function: "swap"},
			ok:    true,
		},
		{
			name:  "full wildcard",
			input: "*::*::*",
			want:  Scope{Address: "*", Module: "*", Function: "*"},
			ok:    true,
		},
		{
			name:  "bech32 address literal",
			input: "rooch1qgqlnx6876qhjz3dug0z9pc7lkwttrzdkfj2hd::payment::transfer",
			want: Scope{
				Address:  "rooch1qgqlnx6876qhjz3dug0z9pc7lkwttrzdkfj2hd",
				Module:   "payment",
				Function: "transfer",
			},
			ok: true,
		},
		{
			name:  "wildcard address literal modules",
			input: "*::defi::*",
			want:  Scope{Address: "*", Module: "defi", Function: "*"},
			ok:    true,
		},
		{name: "two segments", input: "0x1::defi", ok: false},
		{name: "four segments", input: "0x1::defi::swap::extra", ok: false},
		{name: "empty string", input: "", ok: false},
		{name: "empty module", input: "0x1::::swap", ok: false},
		{name: "bare address", input: "0x1", ok: false},
		{name: "address not hex or bech32", input: "alice::defi::swap", ok: false},
		{name: "hex prefix only", input: "0x::defi::swap", ok: false},
		{name: "hex with bad digit", input: "0xZZ::defi::swap", ok: false},
		{name: "hex is lowercase only", input: "0xAB::defi::swap", ok: false},
		{name: "single colon separators", input: "0x1:defi:swap", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
				assert.Equal(t, tt.input, got.String())
			}
		})
	}
}

func TestValidateScopeFormat(t *testing.T) {
	assert.True(t, ValidateScopeFormat("0x1::defi::swap"))
	assert.True(t, ValidateScopeFormat("*::*::*"))
	assert.False(t, ValidateScopeFormat("0x1::defi"))
	assert.False(t, ValidateScopeFormat(""))
}

func TestValidateScopes(t *testing.T) {
	result := ValidateScopes([]string{"0x1::defi::swap", "*::*::*"})
	assert.True(t, result.Valid)
	assert.Empty(t, result.InvalidScopes)

	result = ValidateScopes([]string{"0x1::defi::swap", "0x1::defi", "broken"})
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"0x1::defi", "broken"}, result.InvalidScopes)

	result = ValidateScopes(nil)
	assert.True(t, result.Valid)
}

func TestScopeMatches(t *testing.T) {
	tests := []struct {
		name    string
		grant   string
		address string
		module  string
		fn      string
		want    bool
	}{
		{"exact match", "0x1::defi::swap", "0x1", "defi", "swap", true},
		{"full wildcard matches anything", "*::*::*", "0x2", "payment", "transfer", true},
		{"function wildcard", "0x1::defi::*", "0x1", "defi", "stake", true},
		{"address mismatch", "0x1::defi::swap", "0x2", "defi", "swap", false},
		{"module mismatch", "0x1::defi::swap", "0x1", "payment", "swap", false},
		{"function mismatch", "0x1::defi::swap", "0x1", "defi", "stake", false},
		{"wildcard is not a prefix", "0x1::defi::s*", "0x1", "defi", "swap", false},
		{"case sensitive", "0x1::defi::swap", "0x1", "Defi", "swap", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, ok := Parse(tt.grant)
			require.True(t, ok)
			assert.Equal(t, tt.want, scope.Matches(tt.address, tt.module, tt.fn))
		})
	}
}

func TestMatchAny(t *testing.T) {
	grants := []string{
		"0x1::defi::swap",
		"0x2::payment::*",
	}

	assert.True(t, MatchAny(grants, "0x1", "defi", "swap"))
	assert.True(t, MatchAny(grants, "0x2", "payment", "transfer"))
	assert.False(t, MatchAny(grants, "0x1", "defi", "stake"))
	assert.False(t, MatchAny(nil, "0x1", "defi", "swap"))

	// Malformed grants are skipped, not treated as wildcards.
	assert.False(t, MatchAny([]string{"broken", "0x1::defi"}, "0x1", "defi", "swap"))
	assert.True(t, MatchAny([]string{"broken", "*::*::*"}, "0x1", "defi", "swap"))
}
