package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantMethod string
		wantID     string
		wantErr    bool
	}{
		{name: "did key", input: "did:key:z6MkhaXgBZDvotDkL5257faiztiGiC2QtKLGpbnnEGta2doK", wantMethod: "key", wantID: "z6MkhaXgBZDvotDkL5257faiztiGiC2QtKLGpbnnEGta2doK"},
		{name: "did rooch", input: "did:rooch:0x42", wantMethod: "rooch", wantID: "0x42"},
		{name: "identifier with colons", input: "did:example:ns:alice", wantMethod: "example", wantID: "ns:alice"},
		{name: "missing prefix", input: "key:z6Mk", wantErr: true},
		{name: "missing identifier", input: "did:key", wantErr: true},
		{name: "empty method", input: "did::abc", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			did, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMethod, did.Method)
			assert.Equal(t, tt.wantID, did.Identifier)
			assert.Equal(t, tt.input, did.String())
		})
	}
}

func TestKeyIDHelpers(t *testing.T) {
	did, err := DIDFromKeyID("did:example:alice#key-1")
	require.NoError(t, err)
	assert.Equal(t, "did:example:alice", did)

	fragment, err := FragmentFromKeyID("did:example:alice#key-1")
	require.NoError(t, err)
	assert.Equal(t, "key-1", fragment)

	_, err = DIDFromKeyID("did:example:alice")
	assert.Error(t, err)

	_, err = FragmentFromKeyID("did:example:alice#")
	assert.Error(t, err)

	_, err = DIDFromKeyID("not-a-did#key-1")
	assert.Error(t, err)
}

func validDocument() *Document {
	return &Document{
		ID: "did:example:alice",
		VerificationMethod: []VerificationMethod{{
			ID:                 "did:example:alice#key-1",
			Type:               "Ed25519VerificationKey2020",
			Controller:         "did:example:alice",
			PublicKeyMultibase: "z6MkhaXg",
		}},
		Authentication:  []string{"did:example:alice#key-1"},
		AssertionMethod: []string{"did:example:alice#key-1"},
	}
}

func TestDocumentValidate(t *testing.T) {
	doc := validDocument()
	require.NoError(t, doc.Validate())

	t.Run("dangling relationship reference", func(t *testing.T) {
		doc := validDocument()
		doc.CapabilityInvocation = []string{"did:example:alice#missing"}
		err := doc.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "capabilityInvocation")
	})

	t.Run("invalid document id", func(t *testing.T) {
		doc := validDocument()
		doc.ID = "example:alice"
		assert.Error(t, doc.Validate())
	})

	t.Run("verification method without key", func(t *testing.T) {
		doc := validDocument()
		doc.VerificationMethod[0].PublicKeyMultibase = ""
		assert.Error(t, doc.Validate())
	})
}

func TestDocumentLookups(t *testing.T) {
	doc := validDocument()

	vm := doc.FindVerificationMethod("did:example:alice#key-1")
	require.NotNil(t, vm)
	assert.Equal(t, "did:example:alice", vm.Controller)

	assert.Nil(t, doc.FindVerificationMethod("did:example:alice#key-2"))

	assert.True(t, doc.HasRelationship(RelationshipAuthentication, "did:example:alice#key-1"))
	assert.True(t, doc.HasRelationship(RelationshipAssertionMethod, "did:example:alice#key-1"))
	assert.False(t, doc.HasRelationship(RelationshipCapabilityInvocation, "did:example:alice#key-1"))
	assert.False(t, doc.HasRelationship(RelationshipAuthentication, "did:example:alice#key-2"))
}
