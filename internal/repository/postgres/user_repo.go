package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quillboard/quillboard/internal/auth"
	"github.com/quillboard/quillboard/internal/domain/user"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const (
	qUserInsert = `
INSERT INTO users (username, display_name, password_hash, roles)
VALUES ($1, $2, $3, $4)
RETURNING id, username, display_name, password_hash, roles, created_at, updated_at;`

	qUserByID = `
SELECT id, username, display_name, password_hash, roles, created_at, updated_at
FROM users
WHERE id = $1;`

	qUserByUsername = `
SELECT id, username, display_name, password_hash, roles, created_at, updated_at
FROM users
WHERE username = $1;`

	qUserUpdate = `
UPDATE users
SET display_name  = $2,
    password_hash = $3,
    roles         = $4,
    updated_at    = NOW()
WHERE id = $1
RETURNING id, username, display_name, password_hash, roles, created_at, updated_at;`
)

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.Pool.QueryRow(ctx, qUserInsert, u.Username, u.DisplayName, u.PasswordHash, rolesToStrings(u.Roles))
	if err := scanUser(row, u); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("user insert: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.Pool.QueryRow(ctx, qUserByID, id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.Pool.QueryRow(ctx, qUserByUsername, username), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Update(ctx context.Context, u *user.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.Pool.QueryRow(ctx, qUserUpdate, u.ID, u.DisplayName, u.PasswordHash, rolesToStrings(u.Roles))
	if err := scanUser(row, u); err != nil {
		return fmt.Errorf("user update: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row, out *user.User) error {
	var (
		roles            []string
		created, updated time.Time
	)
	if err := row.Scan(&out.ID, &out.Username, &out.DisplayName, &out.PasswordHash, &roles, &created, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.ErrNotFound
		}
		return fmt.Errorf("scan user: %w", err)
	}
	parsed, err := rolesFromStrings(roles)
	if err != nil {
		return fmt.Errorf("scan user roles: %w", err)
	}
	out.Roles = parsed
	out.CreatedAt = created
	out.UpdatedAt = updated
	return nil
}

func rolesToStrings(roles []auth.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func rolesFromStrings(values []string) ([]auth.Role, error) {
	out := make([]auth.Role, 0, len(values))
	for _, v := range values {
		r, err := auth.ParseRole(v)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
