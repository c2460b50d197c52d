package vdr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wow-sven/nuwa-sub012/crypto"
	"github.com/wow-sven/nuwa-sub012/identity"
	"github.com/wow-sven/nuwa-sub012/multibase"
)

func newKeyDID(t *testing.T, keyType crypto.KeyType) (string, *crypto.KeyPair) {
	t.Helper()
	pair, err := crypto.GenerateKeyPair(keyType)
	require.NoError(t, err)
	did, err := DIDForPublicKey(keyType, pair.PublicKey)
	require.NoError(t, err)
	return did, pair
}

func TestKeyVDRResolve(t *testing.T) {
	ctx := context.Background()
	v := NewKeyVDR()

	for _, keyType := range []crypto.KeyType{crypto.KeyTypeEd25519, crypto.KeyTypeSecp256k1} {
		t.Run(string(keyType), func(t *testing.T) {
			did, pair := newKeyDID(t, keyType)

			doc, err := v.Resolve(ctx, did)
			require.NoError(t, err)
			require.NotNil(t, doc)
			assert.Equal(t, did, doc.ID)
			require.NoError(t, doc.Validate())

			require.Len(t, doc.VerificationMethod, 1)
			vm := doc.VerificationMethod[0]
			assert.Equal(t, string(keyType), vm.Type)

			gotType, raw, err := multibase.DecodePublicKey(vm.PublicKeyMultibase)
			require.NoError(t, err)
			assert.Equal(t, keyType, gotType)
			assert.Equal(t, pair.PublicKey, raw)

			// did:key grants every relationship to its single key.
			for _, rel := range []identity.VerificationRelationship{
				identity.RelationshipAuthentication,
				identity.RelationshipAssertionMethod,
				identity.RelationshipCapabilityInvocation,
				identity.RelationshipCapabilityDelegation,
			} {
				assert.True(t, doc.HasRelationship(rel, vm.ID))
			}
		})
	}
}

func TestKeyVDRResolveMalformed(t *testing.T) {
	ctx := context.Background()
	v := NewKeyVDR()

	// Garbage identifier resolves negatively, not as an error.
	doc, err := v.Resolve(ctx, "did:key:zzzznotakey")
	require.NoError(t, err)
	assert.Nil(t, doc)

	exists, err := v.Exists(ctx, "did:key:zzzznotakey")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = v.Resolve(ctx, "did:web:example.com")
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestKeyVDRCreate(t *testing.T) {
	ctx := context.Background()
	v := NewKeyVDR()

	pair, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
	require.NoError(t, err)
	encoded, err := multibase.EncodePublicKey(crypto.KeyTypeEd25519, pair.PublicKey)
	require.NoError(t, err)

	result, err := v.Create(ctx, &CreateRequest{PublicKeyMultibase: encoded})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "did:key:"+encoded, result.Document.ID)

	result, err = v.Create(ctx, &CreateRequest{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}
