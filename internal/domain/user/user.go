package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Role is the access level assigned to an account.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when registering with an existing username.
	ErrUsernameTaken = errors.New("username already in use")
	// ErrEmailTaken is returned when registering or updating to an existing email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInvalidCredentials is returned when authentication fails. The same
	// error covers unknown usernames and wrong passwords so callers cannot
	// probe for account existence.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInactive is returned when an otherwise valid account is deactivated.
	ErrInactive = errors.New("account is inactive")
	// ErrInvalidResetToken is returned for unknown or expired reset tokens.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	// ErrSamePassword is returned when a password change reuses the old password.
	ErrSamePassword = errors.New("new password must differ from the old one")
	// ErrWrongPassword is returned when the old password does not verify.
	ErrWrongPassword = errors.New("old password is incorrect")
	// ErrInvalidRole is returned when a role update uses an unknown role.
	ErrInvalidRole = errors.New("invalid role")
)

// User is an account holder. HashedPassword is a bcrypt hash and never leaves
// the service layer.
type User struct {
	ID                int64
	Username          string
	Email             string
	HashedPassword    string
	Name              string
	LastName          string
	IsActive          bool
	Role              Role
	NationalID        string
	Address           string
	State             string
	City              string
	PhoneNumber       string
	ResetToken        string
	ResetTokenExpires *time.Time
}

// Filter narrows List results. Zero values mean "no restriction".
type Filter struct {
	Role     Role
	Username string // partial, case-insensitive
	Email    string // partial, case-insensitive
	Limit    int
	Offset   int
}

// Repository defines persistence operations for user accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByResetToken(ctx context.Context, token string) (*User, error)
	Update(ctx context.Context, u *User) error
	List(ctx context.Context, f Filter) ([]User, error)
	Delete(ctx context.Context, id int64) error
}
