// Package multibase encodes binary key material as self-describing text.
//
// Three bases are supported: base58btc (prefix 'z'), base64url with padding
// (prefix 'M'), and base16 (prefix 'f'). Decoding accepts exactly these
// prefixes and rejects everything else, so a stored string always declares
// its own encoding.
//
// The package also carries the did:key multicodec helpers: a public key is
// prefixed with its multicodec code (varint) before multibase encoding,
// which makes the resulting string self-describing down to the key type.
package multibase

import (
	"encoding/base64"
	"fmt"

	mb "github.com/multiformats/go-multibase"
	"github.com/multiformats/go-varint"

	"github.com/wow-sven/nuwa-sub012/crypto"
)

// Base identifies one of the supported multibase encodings by its prefix
// character.
type Base = mb.Encoding

// Supported bases. Base64URLPad is handled directly as the url-safe
// alphabet with padding behind the 'M' prefix; the multibase library binds
// 'M' to the standard alphabet, which is not the encoding stored keys use.
const (
	Base58BTC    Base = mb.Base58BTC
	Base64URLPad Base = 'M'
	Base16       Base = mb.Base16
)

// Multicodec codes for public key types, per the multicodec registry.
const (
	MulticodecEd25519Pub   uint64 = 0xed
	MulticodecSecp256k1Pub uint64 = 0xe7
)

// Encode encodes data in the given base, prefixed with the base's
// multibase character.
func Encode(base Base, data []byte) (string, error) {
	switch base {
	case Base64URLPad:
		return string(rune(Base64URLPad)) + base64.URLEncoding.EncodeToString(data), nil
	case Base58BTC, Base16:
	default:
		return "", fmt.Errorf("unsupported multibase encoding: %c", base)
	}

	encoded, err := mb.Encode(base, data)
	if err != nil {
		return "", fmt.Errorf("multibase encoding failed: %w", err)
	}
	return encoded, nil
}

// Decode decodes a multibase string, returning the base it was encoded in
// and the raw bytes. Prefixes outside the supported set are rejected.
func Decode(s string) (Base, []byte, error) {
	if s == "" {
		return 0, nil, fmt.Errorf("empty multibase string")
	}

	if Base(s[0]) == Base64URLPad {
		data, err := base64.URLEncoding.DecodeString(s[1:])
		if err != nil {
			return 0, nil, fmt.Errorf("multibase decoding failed: %w", err)
		}
		return Base64URLPad, data, nil
	}

	base, data, err := mb.Decode(s)
	if err != nil {
		return 0, nil, fmt.Errorf("multibase decoding failed: %w", err)
	}

	switch base {
	case Base58BTC, Base16:
		return base, data, nil
	default:
		return 0, nil, fmt.Errorf("unsupported multibase prefix: %c", s[0])
	}
}

// MulticodecFor returns the multicodec code registered for a key type.
func MulticodecFor(keyType crypto.KeyType) (uint64, error) {
	switch keyType {
	case crypto.KeyTypeEd25519:
		return MulticodecEd25519Pub, nil
	case crypto.KeyTypeSecp256k1:
		return MulticodecSecp256k1Pub, nil
	default:
		return 0, fmt.Errorf("no multicodec for key type %s", keyType)
	}
}

// KeyTypeFor returns the key type registered for a multicodec code.
func KeyTypeFor(code uint64) (crypto.KeyType, error) {
	switch code {
	case MulticodecEd25519Pub:
		return crypto.KeyTypeEd25519, nil
	case MulticodecSecp256k1Pub:
		return crypto.KeyTypeSecp256k1, nil
	default:
		return "", fmt.Errorf("unrecognized key multicodec: 0x%x", code)
	}
}

// EncodePublicKey encodes raw public key bytes as a base58btc multibase
// string with the key type's multicodec prefix. This is the
// publicKeyMultibase form used in DID Documents and did:key identifiers.
func EncodePublicKey(keyType crypto.KeyType, raw []byte) (string, error) {
	code, err := MulticodecFor(keyType)
	if err != nil {
		return "", err
	}

	buf := make([]byte, varint.UvarintSize(code)+len(raw))
	n := varint.PutUvarint(buf, code)
	copy(buf[n:], raw)

	return Encode(Base58BTC, buf)
}

// DecodePublicKey decodes a publicKeyMultibase string back into the key
// type and raw public key bytes.
func DecodePublicKey(s string) (crypto.KeyType, []byte, error) {
	_, data, err := Decode(s)
	if err != nil {
		return "", nil, err
	}

	code, n, err := varint.FromUvarint(data)
	if err != nil {
		return "", nil, fmt.Errorf("invalid multicodec prefix: %w", err)
	}

	keyType, err := KeyTypeFor(code)
	if err != nil {
		return "", nil, err
	}

	return keyType, data[n:], nil
}
