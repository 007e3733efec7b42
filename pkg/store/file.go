package store

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/meshgraph/pkg/observability"
)

// FileStore keeps one JSON file per key below a directory. File names are
// the SHA-256 of the key, fanned out into 256 subdirectories.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the root directory.
func (s *FileStore) Dir() string { return s.dir }

// fileEntry is the on-disk form. The key is kept so Keys can list entries
// without reversing the hash.
type fileEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get reads key. Corrupt and expired entries are removed and read as misses.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := s.path(key)
	entry, err := readEntry(path)
	if os.IsNotExist(err) {
		observability.Store().OnStoreMiss(ctx, "file")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if entry == nil || expired(entry.ExpiresAt) {
		_ = os.Remove(path)
		observability.Store().OnStoreMiss(ctx, "file")
		return nil, false, nil
	}
	observability.Store().OnStoreHit(ctx, "file")
	return entry.Data, true, nil
}

// Set writes key atomically through a temp file and rename.
func (s *FileStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	raw, err := json.Marshal(fileEntry{Key: key, Data: data, ExpiresAt: expiry(ttl)})
	if err != nil {
		return err
	}

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	observability.Store().OnStoreSet(ctx, "file", len(data))
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	observability.Store().OnStoreDelete(ctx, "file")
	return nil
}

// Keys walks the directory and returns live keys with the given prefix.
func (s *FileStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		entry, err := readEntry(path)
		if err != nil || entry == nil || expired(entry.ExpiresAt) {
			return nil
		}
		if strings.HasPrefix(entry.Key, prefix) {
			keys = append(keys, entry.Key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return keys, nil
}

// Close does nothing for the file store.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(s.dir, hash[:2], hash[2:]+".json")
}

// readEntry returns (nil, nil) for a file that exists but does not decode.
func readEntry(path string) (*fileEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry fileEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, nil
	}
	return &entry, nil
}

var _ Store = (*FileStore)(nil)
