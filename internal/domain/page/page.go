package page

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested page does not exist.
	ErrNotFound = errors.New("page not found")
	// ErrNameTaken is returned when creating or renaming to an existing name.
	ErrNameTaken = errors.New("page name already in use")
)

// Page is a CMS content page. IsInMenu marks pages listed in site navigation.
type Page struct {
	ID       int64
	Name     string
	Body     string
	IsInMenu bool
}

// Repository defines persistence operations for pages.
type Repository interface {
	List(ctx context.Context, menuOnly bool) ([]Page, error)
	GetByID(ctx context.Context, id int64) (*Page, error)
	GetByName(ctx context.Context, name string) (*Page, error)
	Create(ctx context.Context, p *Page) error
	Update(ctx context.Context, p *Page) error
	Delete(ctx context.Context, id int64) error
}
