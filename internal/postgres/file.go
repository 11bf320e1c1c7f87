package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tooswasher/storefront/internal/domain/file"
)

const (
	fileColumns = `id, filename, original_filename, content_type, size, path, public, user_id, uploaded_at`

	createFileSQL = `INSERT INTO file_uploads (filename, original_filename, content_type,
			size, path, public, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uploaded_at`

	getFileByIDSQL = `SELECT ` + fileColumns + ` FROM file_uploads WHERE id = $1`

	listFilesByUserSQL = `SELECT ` + fileColumns + ` FROM file_uploads
		WHERE user_id = $1 ORDER BY uploaded_at DESC, id DESC`

	updateFileSQL = `UPDATE file_uploads SET original_filename = $2, content_type = $3,
			public = $4
		WHERE id = $1`

	deleteFileSQL = `DELETE FROM file_uploads WHERE id = $1`
)

var _ file.Repository = (*FileRepository)(nil)

// FileRepository implements file.Repository backed by PostgreSQL.
type FileRepository struct {
	pool *pgxpool.Pool
}

// NewFileRepository returns a FileRepository that uses the given pool.
func NewFileRepository(pool *pgxpool.Pool) *FileRepository {
	return &FileRepository{pool: pool}
}

// Create persists upload metadata and fills in the generated ID and timestamp.
func (r *FileRepository) Create(ctx context.Context, u *file.Upload) error {
	err := r.pool.QueryRow(ctx, createFileSQL,
		u.Filename, u.OriginalFilename, u.ContentType, u.Size, u.Path, u.Public, u.UserID,
	).Scan(&u.ID, &u.UploadedAt)
	if err != nil {
		return fmt.Errorf("creating file record %q: %w", u.Filename, err)
	}
	return nil
}

// GetByID returns upload metadata by its identifier.
func (r *FileRepository) GetByID(ctx context.Context, id int64) (*file.Upload, error) {
	rows, err := r.pool.Query(ctx, getFileByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting file %d: %w", id, err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanFile)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, file.ErrNotFound
		}
		return nil, fmt.Errorf("getting file %d: %w", id, err)
	}
	return &u, nil
}

// ListByUser returns a user's uploads, newest first.
func (r *FileRepository) ListByUser(ctx context.Context, userID int64) ([]file.Upload, error) {
	rows, err := r.pool.Query(ctx, listFilesByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return pgx.CollectRows(rows, scanFile)
}

// Update replaces the mutable fields of upload metadata.
func (r *FileRepository) Update(ctx context.Context, u *file.Upload) error {
	tag, err := r.pool.Exec(ctx, updateFileSQL, u.ID, u.OriginalFilename, u.ContentType, u.Public)
	if err != nil {
		return fmt.Errorf("updating file %d: %w", u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return file.ErrNotFound
	}
	return nil
}

// Delete removes upload metadata.
func (r *FileRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteFileSQL, id)
	if err != nil {
		return fmt.Errorf("deleting file %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return file.ErrNotFound
	}
	return nil
}

func scanFile(row pgx.CollectableRow) (file.Upload, error) {
	var u file.Upload
	err := row.Scan(
		&u.ID, &u.Filename, &u.OriginalFilename, &u.ContentType,
		&u.Size, &u.Path, &u.Public, &u.UserID, &u.UploadedAt,
	)
	return u, err
}
