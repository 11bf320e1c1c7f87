package file

import (
	"context"
	"io"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested upload does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrForbidden is returned when a private file is read by someone other
	// than its owner or an admin.
	ErrForbidden = errors.New("file access denied")
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("file too large")
)

// Upload is metadata for a stored file. Filename is the opaque stored name;
// OriginalFilename is what the uploader called it.
type Upload struct {
	ID               int64
	Filename         string
	OriginalFilename string
	ContentType      string
	Size             int64
	Path             string
	Public           bool
	UserID           int64
	UploadedAt       time.Time
}

// Repository defines persistence operations for upload metadata.
type Repository interface {
	Create(ctx context.Context, u *Upload) error
	GetByID(ctx context.Context, id int64) (*Upload, error)
	ListByUser(ctx context.Context, userID int64) ([]Upload, error)
	Update(ctx context.Context, u *Upload) error
	Delete(ctx context.Context, id int64) error
}

// BlobStore stores file contents, addressed by the stored filename.
type BlobStore interface {
	Save(ctx context.Context, name string, r io.Reader) (path string, size int64, err error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
}
