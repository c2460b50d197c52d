// Package crypto implements the signature suites used by the identity kit:
// Ed25519 and secp256k1 ECDSA. Key material moves through this package as
// raw bytes; encoding to multibase text is the caller's concern.
package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// KeyType identifies a signature suite. Values match the verification
// method type strings used in DID Documents.
type KeyType string

const (
	KeyTypeEd25519   KeyType = "Ed25519VerificationKey2020"
	KeyTypeSecp256k1 KeyType = "EcdsaSecp256k1VerificationKey2019"
)

// KeyPair holds the raw bytes of an asymmetric key pair.
//
// Ed25519 private keys are the 64-byte expanded form; secp256k1 private keys
// are 32 bytes. Public keys are 32 bytes (Ed25519) or 33 bytes compressed
// (secp256k1).
type KeyPair struct {
	Type       KeyType
	PublicKey  []byte
	PrivateKey []byte
}

// GenerateKeyPair creates a fresh key pair of the given type.
func GenerateKeyPair(keyType KeyType) (*KeyPair, error) {
	switch keyType {
	case KeyTypeEd25519:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
		}
		return &KeyPair{Type: keyType, PublicKey: pub, PrivateKey: priv}, nil

	case KeyTypeSecp256k1:
		priv, err := ethcrypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate secp256k1 key: %w", err)
		}
		return &KeyPair{
			Type:       keyType,
			PublicKey:  ethcrypto.CompressPubkey(&priv.PublicKey),
			PrivateKey: ethcrypto.FromECDSA(priv),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported key type: %s", keyType)
	}
}

// Sign signs a message with the given private key.
//
// Ed25519 signs the message directly. Secp256k1 signs the SHA-256 digest of
// the message and returns the 65-byte [R || S || V] signature.
func Sign(keyType KeyType, privateKey, message []byte) ([]byte, error) {
	switch keyType {
	case KeyTypeEd25519:
		if len(privateKey) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("ed25519 private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(privateKey))
		}
		return ed25519.Sign(ed25519.PrivateKey(privateKey), message), nil

	case KeyTypeSecp256k1:
		if len(privateKey) != 32 {
			return nil, fmt.Errorf("secp256k1 private key must be 32 bytes, got %d", len(privateKey))
		}
		priv, err := ethcrypto.ToECDSA(privateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid secp256k1 private key: %w", err)
		}
		hash := sha256.Sum256(message)
		sig, err := ethcrypto.Sign(hash[:], priv)
		if err != nil {
			return nil, fmt.Errorf("secp256k1 signing failed: %w", err)
		}
		return sig, nil

	default:
		return nil, fmt.Errorf("unsupported key type: %s", keyType)
	}
}

// Verify reports whether signature is a valid signature of message under
// the given public key. Malformed input yields false, never an error.
func Verify(keyType KeyType, publicKey, message, signature []byte) bool {
	switch keyType {
	case KeyTypeEd25519:
		if len(publicKey) != ed25519.PublicKeySize {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)

	case KeyTypeSecp256k1:
		return verifySecp256k1(publicKey, message, signature)

	default:
		return false
	}
}

// verifySecp256k1 accepts the 65-byte recoverable form and the bare 64-byte
// [R || S] form. The recoverable form is checked by recovering the signer
// key and comparing its compressed encoding.
func verifySecp256k1(publicKey, message, signature []byte) bool {
	if len(publicKey) != 33 || len(message) == 0 {
		return false
	}

	hash := sha256.Sum256(message)

	if len(signature) == 64 {
		return ethcrypto.VerifySignature(publicKey, hash[:], signature)
	}

	if len(signature) != 65 {
		return false
	}

	recovered, err := ethcrypto.Ecrecover(hash[:], signature)
	if err != nil {
		return false
	}
	recoveredPub, err := ethcrypto.UnmarshalPubkey(recovered)
	if err != nil {
		return false
	}

	return bytes.Equal(ethcrypto.CompressPubkey(recoveredPub), publicKey)
}

// DerivePublicKey recomputes the public key belonging to a private key.
func DerivePublicKey(keyType KeyType, privateKey []byte) ([]byte, error) {
	switch keyType {
	case KeyTypeEd25519:
		if len(privateKey) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("ed25519 private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(privateKey))
		}
		pub := ed25519.PrivateKey(privateKey).Public().(ed25519.PublicKey)
		return []byte(pub), nil

	case KeyTypeSecp256k1:
		if len(privateKey) != 32 {
			return nil, fmt.Errorf("secp256k1 private key must be 32 bytes, got %d", len(privateKey))
		}
		priv := secp256k1.PrivKeyFromBytes(privateKey)
		return priv.PubKey().SerializeCompressed(), nil

	default:
		return nil, fmt.Errorf("unsupported key type: %s", keyType)
	}
}

// ValidatePublicKey checks that the bytes are a structurally valid public
// key for the suite.
func ValidatePublicKey(keyType KeyType, publicKey []byte) error {
	switch keyType {
	case KeyTypeEd25519:
		if len(publicKey) != ed25519.PublicKeySize {
			return fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(publicKey))
		}
		return nil

	case KeyTypeSecp256k1:
		if _, err := btcec.ParsePubKey(publicKey); err != nil {
			return fmt.Errorf("invalid secp256k1 public key: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unsupported key type: %s", keyType)
	}
}

// VerifyKeyPair checks that the supplied private and public key actually
// form a consistent pair by signing a probe message and verifying it. This
// guards imports against silently corrupted key material.
func VerifyKeyPair(keyType KeyType, privateKey, publicKey []byte) (bool, error) {
	probe := make([]byte, 32)
	if _, err := rand.Read(probe); err != nil {
		return false, fmt.Errorf("failed to generate probe message: %w", err)
	}

	sig, err := Sign(keyType, privateKey, probe)
	if err != nil {
		return false, fmt.Errorf("probe signing failed: %w", err)
	}

	return Verify(keyType, publicKey, probe, sig), nil
}
