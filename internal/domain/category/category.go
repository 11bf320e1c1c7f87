package category

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested category does not exist.
	ErrNotFound = errors.New("category not found")
	// ErrNameTaken is returned when creating or renaming to an existing name.
	ErrNameTaken = errors.New("category name already in use")
)

// Category groups products. ParentID is nil for top-level categories.
type Category struct {
	ID          int64
	Name        string
	Description string
	ParentID    *int64
}

// Repository defines persistence operations for categories.
type Repository interface {
	List(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	GetByName(ctx context.Context, name string) (*Category, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id int64) error
}
