package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	message := []byte(`{"operation":"transfer","amount":10}`)

	for _, keyType := range []KeyType{KeyTypeEd25519, KeyTypeSecp256k1} {
		t.Run(string(keyType), func(t *testing.T) {
			pair, err := GenerateKeyPair(keyType)
			require.NoError(t, err)

			sig, err := Sign(keyType, pair.PrivateKey, message)
			require.NoError(t, err)
			assert.True(t, Verify(keyType, pair.PublicKey, message, sig))

			tampered := append([]byte(nil), message...)
			tampered[len(tampered)-2] = '1'
			assert.False(t, Verify(keyType, pair.PublicKey, tampered, sig))

			other, err := GenerateKeyPair(keyType)
			require.NoError(t, err)
			assert.False(t, Verify(keyType, other.PublicKey, message, sig))
		})
	}
}

func TestVerifyRejectsMalformedInput(t *testing.T) {
	pair, err := GenerateKeyPair(KeyTypeSecp256k1)
	require.NoError(t, err)

	message := []byte("probe")
	sig, err := Sign(KeyTypeSecp256k1, pair.PrivateKey, message)
	require.NoError(t, err)

	assert.False(t, Verify(KeyTypeSecp256k1, pair.PublicKey[:10], message, sig))
	assert.False(t, Verify(KeyTypeSecp256k1, pair.PublicKey, nil, sig))
	assert.False(t, Verify(KeyTypeSecp256k1, pair.PublicKey, message, sig[:20]))
	assert.False(t, Verify("UnknownKeyType2099", pair.PublicKey, message, sig))
}

func TestVerifySecp256k1WithoutRecoveryByte(t *testing.T) {
	pair, err := GenerateKeyPair(KeyTypeSecp256k1)
	require.NoError(t, err)

	message := []byte("probe")
	sig, err := Sign(KeyTypeSecp256k1, pair.PrivateKey, message)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	// The bare [R || S] form must verify as well.
	assert.True(t, Verify(KeyTypeSecp256k1, pair.PublicKey, message, sig[:64]))
}

func TestDerivePublicKey(t *testing.T) {
	for _, keyType := range []KeyType{KeyTypeEd25519, KeyTypeSecp256k1} {
		t.Run(string(keyType), func(t *testing.T) {
			pair, err := GenerateKeyPair(keyType)
			require.NoError(t, err)

			derived, err := DerivePublicKey(keyType, pair.PrivateKey)
			require.NoError(t, err)
			assert.Equal(t, pair.PublicKey, derived)
		})
	}
}

func TestVerifyKeyPair(t *testing.T) {
	pair, err := GenerateKeyPair(KeyTypeEd25519)
	require.NoError(t, err)

	ok, err := VerifyKeyPair(KeyTypeEd25519, pair.PrivateKey, pair.PublicKey)
	require.NoError(t, err)
	assert.True(t, ok)

	other, err := GenerateKeyPair(KeyTypeEd25519)
	require.NoError(t, err)

	ok, err = VerifyKeyPair(KeyTypeEd25519, pair.PrivateKey, other.PublicKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidatePublicKey(t *testing.T) {
	edPair, err := GenerateKeyPair(KeyTypeEd25519)
	require.NoError(t, err)
	assert.NoError(t, ValidatePublicKey(KeyTypeEd25519, edPair.PublicKey))
	assert.Error(t, ValidatePublicKey(KeyTypeEd25519, edPair.PublicKey[:16]))

	secpPair, err := GenerateKeyPair(KeyTypeSecp256k1)
	require.NoError(t, err)
	assert.NoError(t, ValidatePublicKey(KeyTypeSecp256k1, secpPair.PublicKey))
	assert.Error(t, ValidatePublicKey(KeyTypeSecp256k1, make([]byte, 33)))
}

func TestGenerateKeyPairUnsupportedType(t *testing.T) {
	_, err := GenerateKeyPair("RsaVerificationKey2018")
	assert.Error(t, err)
}
