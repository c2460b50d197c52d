package keystore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wow-sven/nuwa-sub012/crypto"
	"github.com/wow-sven/nuwa-sub012/identity"
)

const testDID = "did:example:alice"

func TestGenerateKeyRequiresDID(t *testing.T) {
	km := NewManager(NewMemoryStore())

	_, err := km.GenerateKey(context.Background(), "key-1", crypto.KeyTypeEd25519)
	assert.ErrorIs(t, err, ErrDIDNotInitialized)
}

func TestGenerateKey(t *testing.T) {
	ctx := context.Background()
	km := NewManager(NewMemoryStore(), WithDID(testDID))

	key, err := km.GenerateKey(ctx, "key-1", crypto.KeyTypeEd25519)
	require.NoError(t, err)
	assert.Equal(t, testDID+"#key-1", key.KeyID)
	assert.Equal(t, crypto.KeyTypeEd25519, key.KeyType)
	assert.NotEmpty(t, key.PublicKeyMultibase)
	assert.NotEmpty(t, key.PrivateKeyMultibase)

	// Fragment collision must fail, never overwrite.
	_, err = km.GenerateKey(ctx, "key-1", crypto.KeyTypeEd25519)
	assert.ErrorIs(t, err, ErrKeyExists)

	// Default fragment and key type.
	key, err = km.GenerateKey(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, crypto.KeyTypeEd25519, key.KeyType)
	assert.Contains(t, key.KeyID, testDID+"#key-")
}

func TestGenerateKeyConcurrentFragments(t *testing.T) {
	ctx := context.Background()
	km := NewManager(NewMemoryStore(), WithDID(testDID))

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = km.GenerateKey(ctx, "session", crypto.KeyTypeEd25519)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrKeyExists)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent generate may win the fragment")
}

func TestDIDDerivedFromStoredKey(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, testKey(t, testDID+"#key-1")))

	km := NewManager(store)
	did, err := km.DID(ctx)
	require.NoError(t, err)
	assert.Equal(t, testDID, did)
}

func TestImportKey(t *testing.T) {
	ctx := context.Background()
	km := NewManager(NewMemoryStore())

	key := testKey(t, testDID+"#imported")
	require.NoError(t, km.ImportKey(ctx, key))

	// Import binds the DID.
	did, err := km.DID(ctx)
	require.NoError(t, err)
	assert.Equal(t, testDID, did)

	// A key under a different DID is rejected once bound.
	foreign := testKey(t, "did:example:bob#key-1")
	err = km.ImportKey(ctx, foreign)
	assert.Error(t, err)

	// Re-importing the same id is a collision.
	assert.ErrorIs(t, km.ImportKey(ctx, key), ErrKeyExists)
}

func TestImportKeyPairValidatesConsistency(t *testing.T) {
	ctx := context.Background()
	km := NewManager(NewMemoryStore(), WithDID(testDID))

	pair, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
	require.NoError(t, err)

	key, err := km.ImportKeyPair(ctx, "imported", pair)
	require.NoError(t, err)
	assert.Equal(t, testDID+"#imported", key.KeyID)

	// Mismatched halves must be rejected before anything is persisted.
	other, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
	require.NoError(t, err)
	corrupt := &crypto.KeyPair{
		Type:       crypto.KeyTypeEd25519,
		PublicKey:  other.PublicKey,
		PrivateKey: pair.PrivateKey,
	}
	_, err = km.ImportKeyPair(ctx, "corrupt", corrupt)
	assert.ErrorIs(t, err, ErrKeyPairInconsistent)

	_, err = km.GetKeyInfo(ctx, testDID+"#corrupt")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestSignWithKeyID(t *testing.T) {
	ctx := context.Background()
	km := NewManager(NewMemoryStore(), WithDID(testDID))

	key, err := km.GenerateKey(ctx, "signing", crypto.KeyTypeSecp256k1)
	require.NoError(t, err)

	data := []byte("payload to sign")
	sig, err := km.SignWithKeyID(ctx, data, key.KeyID)
	require.NoError(t, err)
	assert.NotEmpty(t, sig)

	assert.True(t, km.CanSignWithKeyID(ctx, key.KeyID))
	assert.False(t, km.CanSignWithKeyID(ctx, testDID+"#missing"))

	_, err = km.SignWithKeyID(ctx, data, testDID+"#missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestGetKeyInfoStripsPrivateMaterial(t *testing.T) {
	ctx := context.Background()
	km := NewManager(NewMemoryStore(), WithDID(testDID))

	key, err := km.GenerateKey(ctx, "key-1", crypto.KeyTypeEd25519)
	require.NoError(t, err)

	info, err := km.GetKeyInfo(ctx, key.KeyID)
	require.NoError(t, err)
	assert.Equal(t, key.KeyID, info.KeyID)
	assert.Equal(t, key.PublicKeyMultibase, info.PublicKeyMultibase)
}

func TestExportImportString(t *testing.T) {
	ctx := context.Background()
	km := NewManager(NewMemoryStore(), WithDID(testDID))

	key, err := km.GenerateKey(ctx, "portable", crypto.KeyTypeEd25519)
	require.NoError(t, err)

	exported, err := km.ExportKeyToString(ctx, key.KeyID)
	require.NoError(t, err)

	restored, err := NewManagerFromString(exported)
	require.NoError(t, err)

	did, err := restored.DID(ctx)
	require.NoError(t, err)
	assert.Equal(t, testDID, did)

	loaded, err := restored.GetKeyInfo(ctx, key.KeyID)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKeyMultibase, loaded.PublicKeyMultibase)
}

func TestFindKeyWithRelationship(t *testing.T) {
	ctx := context.Background()
	km := NewManager(NewMemoryStore(), WithDID(testDID))

	authKey, err := km.GenerateKey(ctx, "auth", crypto.KeyTypeEd25519)
	require.NoError(t, err)
	assertKey, err := km.GenerateKey(ctx, "assert", crypto.KeyTypeEd25519)
	require.NoError(t, err)

	doc := &identity.Document{
		ID: testDID,
		VerificationMethod: []identity.VerificationMethod{
			{ID: authKey.KeyID, Type: string(authKey.KeyType), Controller: testDID, PublicKeyMultibase: authKey.PublicKeyMultibase},
			{ID: assertKey.KeyID, Type: string(assertKey.KeyType), Controller: testDID, PublicKeyMultibase: assertKey.PublicKeyMultibase},
		},
		Authentication:  []string{authKey.KeyID},
		AssertionMethod: []string{assertKey.KeyID},
	}

	found, err := km.FindKeyWithRelationship(ctx, doc, identity.RelationshipAuthentication)
	require.NoError(t, err)
	assert.Equal(t, authKey.KeyID, found)

	_, err = km.FindKeyWithRelationship(ctx, doc, identity.RelationshipCapabilityInvocation)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	km := NewManager(NewMemoryStore(), WithDID(testDID))

	key, err := km.GenerateKey(ctx, "key-1", crypto.KeyTypeEd25519)
	require.NoError(t, err)
	_, err = km.GenerateKey(ctx, "key-2", crypto.KeyTypeEd25519)
	require.NoError(t, err)

	require.NoError(t, km.DeleteKey(ctx, key.KeyID))
	ids, err := km.ListKeyIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	require.NoError(t, km.Clear(ctx))
	ids, err = km.ListKeyIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
