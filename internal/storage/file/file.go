// Package file stores each key as a file inside a directory.
package file

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-faster/errors"

	"github.com/xenking/foodhub-client/internal/storage"
)

var _ storage.KV = (*Store)(nil)

var safeKey = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Store is a storage.KV over a directory on the local disk.
type Store struct {
	dir string
}

// New returns a Store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create store dir %s", dir)
	}
	return &Store{dir: dir}, nil
}

// DefaultDir returns the per-user directory for FoodHub state.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "user config dir")
	}
	return filepath.Join(base, "foodhub", "state"), nil
}

// path maps a key to a file name. Keys outside the safe alphabet are hex
// encoded so they cannot escape the directory.
func (s *Store) path(key string) string {
	name := key
	if !safeKey.MatchString(key) || key == "." || key == ".." {
		name = "x-" + hex.EncodeToString([]byte(key))
	}
	return filepath.Join(s.dir, name+".json")
}

// Get reads the file for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrapf(err, "read %q", key)
	}
	return data, nil
}

// Set writes value atomically: a temp file in the same directory is renamed
// over the target.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.path(key)

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "create temp for %q", key)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "write %q", key)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %q", key)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return errors.Wrapf(err, "rename %q", key)
	}
	return nil
}
