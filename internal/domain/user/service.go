package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// resetTokenTTL is how long a password reset token stays valid.
const resetTokenTTL = time.Hour

// Service encapsulates account management business logic.
type Service struct {
	users Repository
	now   func() time.Time
}

// NewService creates a user Service backed by the given repository.
func NewService(users Repository) *Service {
	return &Service{users: users, now: time.Now}
}

// RegisterRequest holds the input for creating an account. Role is always
// forced to customer; privileged roles are assigned separately by an admin.
type RegisterRequest struct {
	Username    string
	Email       string
	Password    string
	Name        string
	LastName    string
	NationalID  string
	Address     string
	State       string
	City        string
	PhoneNumber string
}

// Register creates a new customer account with a hashed password.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if existing, err := s.users.GetByUsername(ctx, req.Username); err == nil && existing != nil {
		return nil, ErrUsernameTaken
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "check username")
	}
	if existing, err := s.users.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "check email")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hash,
		Name:           req.Name,
		LastName:       req.LastName,
		IsActive:       true,
		Role:           RoleCustomer,
		NationalID:     req.NationalID,
		Address:        req.Address,
		State:          req.State,
		City:           req.City,
		PhoneNumber:    req.PhoneNumber,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return u, nil
}

// Authenticate verifies a username/password pair and returns the account.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "get user")
	}
	if !CheckPassword(password, u.HashedPassword) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactive
	}
	return u, nil
}

// Get returns an account by ID.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// ProfileUpdate holds optional profile fields. Nil means "leave unchanged".
type ProfileUpdate struct {
	Email       *string
	Name        *string
	LastName    *string
	Address     *string
	State       *string
	City        *string
	PhoneNumber *string
}

// UpdateProfile applies a partial update to the caller's own profile.
func (s *Service) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Email != nil && *upd.Email != u.Email {
		if existing, err := s.users.GetByEmail(ctx, *upd.Email); err == nil && existing != nil {
			return nil, ErrEmailTaken
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, errors.Wrap(err, "check email")
		}
		u.Email = *upd.Email
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Address != nil {
		u.Address = *upd.Address
	}
	if upd.State != nil {
		u.State = *upd.State
	}
	if upd.City != nil {
		u.City = *upd.City
	}
	if upd.PhoneNumber != nil {
		u.PhoneNumber = *upd.PhoneNumber
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, errors.Wrap(err, "update user")
	}
	return u, nil
}

// ChangePassword verifies the old password and replaces it with a new one.
func (s *Service) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CheckPassword(oldPassword, u.HashedPassword) {
		return ErrWrongPassword
	}
	if oldPassword == newPassword {
		return ErrSamePassword
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	u.HashedPassword = hash
	return s.users.Update(ctx, u)
}

// CreateResetToken issues a password reset token for the account with the
// given email. Token delivery is the caller's concern.
func (s *Service) CreateResetToken(ctx context.Context, email string) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	token := uuid.New().String()
	expires := s.now().Add(resetTokenTTL)
	u.ResetToken = token
	u.ResetTokenExpires = &expires
	if err := s.users.Update(ctx, u); err != nil {
		return "", errors.Wrap(err, "store reset token")
	}
	return token, nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	u, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidResetToken
		}
		return errors.Wrap(err, "get user by reset token")
	}
	if u.ResetTokenExpires == nil || u.ResetTokenExpires.Before(s.now()) {
		return ErrInvalidResetToken
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	u.HashedPassword = hash
	u.ResetToken = ""
	u.ResetTokenExpires = nil
	return s.users.Update(ctx, u)
}

// SetRole assigns a role to an account. Admin-only at the route layer.
func (s *Service) SetRole(ctx context.Context, id int64, role Role) (*User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Role = role
	if err := s.users.Update(ctx, u); err != nil {
		return nil, errors.Wrap(err, "update role")
	}
	return u, nil
}

// List returns accounts matching the filter. Admin-only at the route layer.
func (s *Service) List(ctx context.Context, f Filter) ([]User, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 100
	}
	return s.users.List(ctx, f)
}

// Delete removes an account. Admin-only at the route layer.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.users.Delete(ctx, id)
}
