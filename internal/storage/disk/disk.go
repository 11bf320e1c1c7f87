// Package disk implements file.BlobStore on the local filesystem.
package disk

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/tooswasher/storefront/internal/domain/file"
)

var _ file.BlobStore = (*Store)(nil)

// Store writes blobs under a single root directory. Names are expected to be
// opaque (the file service generates UUIDs), so no path sanitization beyond
// Base is applied.
type Store struct {
	root string
}

// New creates the root directory if needed and returns a Store.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload dir")
	}
	return &Store{root: root}, nil
}

// Save writes the reader's content to a new blob and returns its path and
// size.
func (s *Store) Save(_ context.Context, name string, r io.Reader) (string, int64, error) {
	path := filepath.Join(s.root, filepath.Base(name))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, errors.Wrap(err, "create blob")
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, errors.Wrap(err, "write blob")
	}
	return path, size, nil
}

// Open returns a reader over a stored blob.
func (s *Store) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, filepath.Base(name)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, file.ErrNotFound
		}
		return nil, errors.Wrap(err, "open blob")
	}
	return f, nil
}

// Remove deletes a stored blob. Removing a missing blob is not an error.
func (s *Store) Remove(_ context.Context, name string) error {
	err := os.Remove(filepath.Join(s.root, filepath.Base(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "remove blob")
	}
	return nil
}
