package user

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Repo lookups for ids or usernames that do not
// exist. Declared domain-side so services never import a storage package to
// branch on it.
var ErrNotFound = errors.New("user not found")

type Repo interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, u *User) error
}
