package option

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested option does not exist.
var ErrNotFound = errors.New("option not found")

// Option is a named site-wide setting.
type Option struct {
	ID    int64
	Name  string
	Value string
}

// Repository defines persistence operations for options. Set creates the
// option or overwrites its value when the name already exists.
type Repository interface {
	List(ctx context.Context) ([]Option, error)
	GetByName(ctx context.Context, name string) (*Option, error)
	Set(ctx context.Context, o *Option) error
	Delete(ctx context.Context, name string) error
}
