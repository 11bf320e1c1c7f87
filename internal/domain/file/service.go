package file

import (
	"context"
	"io"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// MaxUploadSize caps a single upload at 32 MiB.
const MaxUploadSize = 32 << 20

// Service stores uploads as blobs plus a metadata row. The stored name is a
// random UUID with the original extension, so user-supplied names never touch
// the filesystem.
type Service struct {
	files Repository
	blobs BlobStore
}

// NewService creates a file Service with the given metadata and blob stores.
func NewService(files Repository, blobs BlobStore) *Service {
	return &Service{files: files, blobs: blobs}
}

// SaveRequest holds the input for storing an upload.
type SaveRequest struct {
	UserID           int64
	OriginalFilename string
	ContentType      string
	Public           bool
	Content          io.Reader
}

// Save stores the content and records its metadata.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*Upload, error) {
	name := uuid.New().String() + filepath.Ext(req.OriginalFilename)

	limited := io.LimitReader(req.Content, MaxUploadSize+1)
	path, size, err := s.blobs.Save(ctx, name, limited)
	if err != nil {
		return nil, errors.Wrap(err, "save blob")
	}
	if size > MaxUploadSize {
		if rmErr := s.blobs.Remove(ctx, name); rmErr != nil {
			return nil, errors.Wrap(rmErr, "remove oversized blob")
		}
		return nil, ErrTooLarge
	}

	u := &Upload{
		Filename:         name,
		OriginalFilename: req.OriginalFilename,
		ContentType:      req.ContentType,
		Size:             size,
		Path:             path,
		Public:           req.Public,
		UserID:           req.UserID,
	}
	if err := s.files.Create(ctx, u); err != nil {
		if rmErr := s.blobs.Remove(ctx, name); rmErr != nil {
			return nil, errors.Wrap(rmErr, "remove orphaned blob")
		}
		return nil, errors.Wrap(err, "create upload record")
	}
	return u, nil
}

// Open returns the metadata and content of an upload. Private files are
// readable only by their owner or an admin.
func (s *Service) Open(ctx context.Context, id, actorID int64, admin bool) (*Upload, io.ReadCloser, error) {
	u, err := s.files.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !u.Public && u.UserID != actorID && !admin {
		return nil, nil, ErrForbidden
	}

	rc, err := s.blobs.Open(ctx, u.Filename)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open blob")
	}
	return u, rc, nil
}

// ListByUser returns the uploads owned by a user.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Upload, error) {
	return s.files.ListByUser(ctx, userID)
}

// SetPublic toggles public visibility. Only the owner or an admin may change it.
func (s *Service) SetPublic(ctx context.Context, id, actorID int64, admin bool, public bool) (*Upload, error) {
	u, err := s.files.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.UserID != actorID && !admin {
		return nil, ErrForbidden
	}

	u.Public = public
	if err := s.files.Update(ctx, u); err != nil {
		return nil, errors.Wrap(err, "update upload record")
	}
	return u, nil
}

// Delete removes an upload's blob and metadata. Only the owner or an admin
// may delete it.
func (s *Service) Delete(ctx context.Context, id, actorID int64, admin bool) error {
	u, err := s.files.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.UserID != actorID && !admin {
		return ErrForbidden
	}

	if err := s.blobs.Remove(ctx, u.Filename); err != nil {
		return errors.Wrap(err, "remove blob")
	}
	return s.files.Delete(ctx, id)
}
