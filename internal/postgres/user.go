package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tooswasher/storefront/internal/domain/user"
)

const (
	userColumns = `id, username, email, hashed_password, name, last_name, is_active, role,
		national_id, address, state, city, phone_number, reset_token, reset_token_expires`

	createUserSQL = `INSERT INTO users (username, email, hashed_password, name, last_name,
			is_active, role, national_id, address, state, city, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	getUserByIDSQL         = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	getUserByUsernameSQL   = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	getUserByEmailSQL      = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	getUserByResetTokenSQL = `SELECT ` + userColumns + ` FROM users WHERE reset_token = $1`

	updateUserSQL = `UPDATE users SET username = $2, email = $3, hashed_password = $4,
			name = $5, last_name = $6, is_active = $7, role = $8, national_id = $9,
			address = $10, state = $11, city = $12, phone_number = $13,
			reset_token = $14, reset_token_expires = $15
		WHERE id = $1`

	deleteUserSQL = `DELETE FROM users WHERE id = $1`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create persists a new account and fills in its generated ID. Username and
// email collisions map to the corresponding domain errors.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	err := r.pool.QueryRow(ctx, createUserSQL,
		u.Username, u.Email, u.HashedPassword, u.Name, u.LastName,
		u.IsActive, string(u.Role), u.NationalID, u.Address, u.State, u.City, u.PhoneNumber,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return uniqueUserError(err)
		}
		return fmt.Errorf("creating user %q: %w", u.Username, err)
	}
	return nil
}

// GetByID returns an account by its identifier.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, getUserByIDSQL, id)
}

// GetByUsername returns an account by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.getOne(ctx, getUserByUsernameSQL, username)
}

// GetByEmail returns an account by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, getUserByEmailSQL, email)
}

// GetByResetToken returns the account holding a password reset token.
func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*user.User, error) {
	return r.getOne(ctx, getUserByResetTokenSQL, token)
}

// Update replaces all mutable fields of an account.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	tag, err := r.pool.Exec(ctx, updateUserSQL,
		u.ID, u.Username, u.Email, u.HashedPassword, u.Name, u.LastName,
		u.IsActive, string(u.Role), u.NationalID, u.Address, u.State, u.City, u.PhoneNumber,
		nullString(u.ResetToken), u.ResetTokenExpires,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return uniqueUserError(err)
		}
		return fmt.Errorf("updating user %d: %w", u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// List returns accounts matching the filter, ordered by ID.
func (r *UserRepository) List(ctx context.Context, f user.Filter) ([]user.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE TRUE`
	args := []any{}
	if f.Role != "" {
		args = append(args, string(f.Role))
		sql += fmt.Sprintf(" AND role = $%d", len(args))
	}
	if f.Username != "" {
		args = append(args, "%"+f.Username+"%")
		sql += fmt.Sprintf(" AND username ILIKE $%d", len(args))
	}
	if f.Email != "" {
		args = append(args, "%"+f.Email+"%")
		sql += fmt.Sprintf(" AND email ILIKE $%d", len(args))
	}
	args = append(args, f.Limit, f.Offset)
	sql += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return pgx.CollectRows(rows, scanUser)
}

// Delete removes an account.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteUserSQL, id)
	if err != nil {
		return fmt.Errorf("deleting user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, sql string, arg any) (*user.User, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var (
		u          user.User
		role       string
		resetToken *string
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.Name, &u.LastName,
		&u.IsActive, &role, &u.NationalID, &u.Address, &u.State, &u.City,
		&u.PhoneNumber, &resetToken, &u.ResetTokenExpires,
	)
	u.Role = user.Role(role)
	if resetToken != nil {
		u.ResetToken = *resetToken
	}
	return u, err
}

// uniqueUserError maps a unique violation to the duplicated field.
func uniqueUserError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "email"):
		return user.ErrEmailTaken
	default:
		return user.ErrUsernameTaken
	}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
