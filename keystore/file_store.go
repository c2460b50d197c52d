package keystore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// filePrefix keys every persisted entry so unrelated files in the same
// directory are ignored by the prefix scan.
const filePrefix = "nuwa-key-"

// FileStore persists one JSON file per key under a directory. File names
// are the fixed prefix plus the base64url-encoded key id, so the directory
// is enumerable with a plain prefix scan.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed key store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("key store directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create key store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) pathFor(keyID string) string {
	name := filePrefix + base64.RawURLEncoding.EncodeToString([]byte(keyID)) + ".json"
	return filepath.Join(s.dir, name)
}

func keyIDFromName(name string) (string, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".json") {
		return "", false
	}
	encoded := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), ".json")
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// ListKeyIDs scans the directory for entries carrying the store prefix.
func (s *FileStore) ListKeyIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan key store directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, ok := keyIDFromName(entry.Name()); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Load reads the key with the given id, or the first available key when
// keyID is empty. Returns nil without error when the store is empty and no
// id was requested.
func (s *FileStore) Load(ctx context.Context, keyID string) (*StoredKey, error) {
	if keyID == "" {
		ids, err := s.ListKeyIDs(ctx)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, nil
		}
		keyID = ids[0]
	}

	data, err := os.ReadFile(s.pathFor(keyID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, keyID)
		}
		return nil, fmt.Errorf("failed to read key %s: %w", keyID, err)
	}

	var key StoredKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("failed to decode key %s: %w", keyID, err)
	}
	return &key, nil
}

// Save writes the key record to its own file with owner-only permissions.
func (s *FileStore) Save(ctx context.Context, key *StoredKey) error {
	if key == nil || key.KeyID == "" {
		return fmt.Errorf("stored key must have a key id")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("failed to encode key %s: %w", key.KeyID, err)
	}
	if err := os.WriteFile(s.pathFor(key.KeyID), data, 0o600); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key.KeyID, err)
	}
	return nil
}

// Clear deletes the key with the given id, or every prefixed entry when
// keyID is empty. Deleting an absent key is not an error.
func (s *FileStore) Clear(ctx context.Context, keyID string) error {
	if keyID != "" {
		if err := os.Remove(s.pathFor(keyID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to delete key %s: %w", keyID, err)
		}
		return nil
	}

	ids, err := s.ListKeyIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := os.Remove(s.pathFor(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to delete key %s: %w", id, err)
		}
	}
	return nil
}

var _ Store = (*FileStore)(nil)
