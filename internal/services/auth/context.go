package auth

import (
	"context"

	domainauth "github.com/quillboard/quillboard/internal/auth"
)

type ctxKey int

const (
	identityKey ctxKey = iota
	claimsKey
)

// IdentityFromContext returns the authenticated identity injected by the
// middleware. This is the only view application handlers get; the full
// claims stay private to this package.
func IdentityFromContext(ctx context.Context) (domainauth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domainauth.Identity)
	return id, ok
}

func withIdentity(ctx context.Context, id domainauth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// The verified claims are stashed for the reauth handler, which needs the
// role set to reissue an equivalent token. Unexported on purpose.
func claimsFromContext(ctx context.Context) (*domainauth.Claims, bool) {
	cl, ok := ctx.Value(claimsKey).(*domainauth.Claims)
	return cl, ok
}

func withClaims(ctx context.Context, cl *domainauth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, cl)
}
