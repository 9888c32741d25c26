// internal/adapters/out/localstore/store.go
package localstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNotConfigured = errors.New("localstore: dir is empty")
)

// FileStore implements cart.Persistence on the local filesystem: one file
// per key under dir. It is the server-side stand-in for browser local
// storage, durable across restarts of this instance and never shared
// across instances.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	d := strings.TrimSpace(dir)
	if d == "" {
		return nil, ErrNotConfigured
	}
	if err := os.MkdirAll(d, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: d}, nil
}

func (s *FileStore) path(key string) string {
	// keys are uuid-based but sanitize anyway
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(s.dir, safe+".json")
}

// Get returns ("", false, nil) for an absent key.
func (s *FileStore) Get(key string) (string, bool, error) {
	if s == nil || s.dir == "" {
		return "", false, ErrNotConfigured
	}
	k := strings.TrimSpace(key)
	if k == "" {
		return "", false, errors.New("localstore: key is empty")
	}

	data, err := os.ReadFile(s.path(k))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Set writes value via a temp file + rename so readers never observe a
// torn snapshot.
func (s *FileStore) Set(key, value string) error {
	if s == nil || s.dir == "" {
		return ErrNotConfigured
	}
	k := strings.TrimSpace(key)
	if k == "" {
		return errors.New("localstore: key is empty")
	}

	dst := s.path(k)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}
