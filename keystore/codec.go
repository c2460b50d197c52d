package keystore

import (
	"encoding/json"
	"fmt"

	"github.com/wow-sven/nuwa-sub012/multibase"
)

// EncodeStoredKey serializes a StoredKey into a single self-describing
// multibase string, suitable for an environment variable or secret store
// value. DecodeStoredKey is the exact inverse: decode(encode(k)) == k for
// every representable StoredKey.
func EncodeStoredKey(key *StoredKey) (string, error) {
	return EncodeStoredKeyAs(key, multibase.Base58BTC)
}

// EncodeStoredKeyAs serializes a StoredKey in a specific multibase
// encoding. Any of the supported bases decodes back to the same record.
func EncodeStoredKeyAs(key *StoredKey, base multibase.Base) (string, error) {
	if key == nil {
		return "", fmt.Errorf("stored key is nil")
	}
	if key.KeyID == "" || key.KeyType == "" {
		return "", fmt.Errorf("stored key must have keyId and keyType")
	}

	data, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("failed to serialize stored key: %w", err)
	}

	return multibase.Encode(base, data)
}

// DecodeStoredKey restores a StoredKey from its export string.
func DecodeStoredKey(s string) (*StoredKey, error) {
	_, data, err := multibase.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid stored key string: %w", err)
	}

	var key StoredKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("failed to parse stored key: %w", err)
	}
	if key.KeyID == "" || key.KeyType == "" {
		return nil, fmt.Errorf("stored key string is missing keyId or keyType")
	}

	return &key, nil
}
