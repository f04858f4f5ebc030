package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/quillboard/quillboard/internal/auth"
	"github.com/quillboard/quillboard/internal/domain/user"
)

// ErrInvalidCredentials covers both unknown username and wrong password;
// login must not reveal which one it was.
var ErrInvalidCredentials = errors.New("invalid username or password")

type UsecaseConfig struct {
	AccessTTL time.Duration
	Now       func() time.Time
}

// Usecase issues tokens: once per login against the user store, and once per
// reauth for a session the middleware already vetted.
type Usecase struct {
	users user.Repo
	codec *domainauth.Codec
	cfg   UsecaseConfig
	log   *zap.Logger
}

func NewUsecase(users user.Repo, codec *domainauth.Codec, cfg UsecaseConfig, log *zap.Logger) *Usecase {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{users: users, codec: codec, cfg: cfg, log: log}
}

// Login validates credentials against the user store and issues a fresh
// token. Password comparison is bcrypt's; this package never sees plaintext
// beyond handing it to the comparator.
func (u *Usecase) Login(ctx context.Context, username, password string) (string, error) {
	rec, err := u.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	token, err := u.issue(rec.ID, rec.DisplayName, rec.Roles)
	if err != nil {
		return "", err
	}
	u.log.Info("login", zap.Int64("user_id", rec.ID))
	return token, nil
}

// Reauthenticate reissues a token for the subject with a refreshed validity
// window. The account is re-read from the store so role changes made since
// the last issuance land in the rotated token; a subject that no longer
// exists cannot rotate. Callers must only pass claims that came out of the
// middleware pipeline on this request; reauth is a rotation, not a second
// way past expiry or revocation checks.
func (u *Usecase) Reauthenticate(ctx context.Context, cl *domainauth.Claims) (string, error) {
	rec, err := u.users.GetByID(ctx, cl.Sub)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	token, err := u.issue(rec.ID, rec.DisplayName, rec.Roles)
	if err != nil {
		return "", err
	}
	u.log.Info("reauth", zap.Int64("user_id", rec.ID))
	return token, nil
}

// SetRoles replaces a user's role set. Outstanding tokens keep the roles
// embedded at issuance; the change takes effect on the next login or reauth.
func (u *Usecase) SetRoles(ctx context.Context, userID int64, roles []domainauth.Role) error {
	rec, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	rec.Roles = roles
	if err := u.users.Update(ctx, rec); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	u.log.Info("roles changed", zap.Int64("user_id", userID), zap.Int("roles", len(roles)))
	return nil
}

func (u *Usecase) issue(sub int64, name string, roles []domainauth.Role) (string, error) {
	jti, err := domainauth.NewJTI()
	if err != nil {
		return "", fmt.Errorf("generate jti: %w", err)
	}
	now := u.cfg.Now()
	cl := domainauth.Claims{
		Sub:   sub,
		Name:  name,
		Roles: roles,
		JTI:   jti,
		Iat:   now.Unix(),
		Exp:   now.Add(u.cfg.AccessTTL).Unix(),
	}
	token, err := u.codec.Sign(cl)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
