package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/quillboard/quillboard/internal/auth"
	"github.com/quillboard/quillboard/internal/obs"
	"github.com/quillboard/quillboard/internal/revocation"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCodec(t *testing.T) *domainauth.Codec {
	t.Helper()
	codec, err := domainauth.NewCodec([]byte("test-secret"))
	require.NoError(t, err)
	return codec
}

func newTestMiddleware(t *testing.T, reg *revocation.Registry) (*Middleware, *obs.AuthMetrics) {
	t.Helper()
	metrics := obs.NewAuthMetrics(prometheus.NewRegistry())
	mw := NewMiddleware(newTestCodec(t), reg, metrics, nil).
		WithClock(func() time.Time { return testNow })
	return mw, metrics
}

func signToken(t *testing.T, codec *domainauth.Codec, cl domainauth.Claims) string {
	t.Helper()
	token, err := codec.Sign(cl)
	require.NoError(t, err)
	return token
}

func validClaims(sub int64, roles ...domainauth.Role) domainauth.Claims {
	return domainauth.Claims{
		Sub:   sub,
		Name:  "joe",
		Roles: roles,
		JTI:   "jti-1",
		Iat:   testNow.Add(-time.Minute).Unix(),
		Exp:   testNow.Add(15 * time.Minute).Unix(),
	}
}

// okHandler records whether it ran and echoes the injected identity.
func okHandler(t *testing.T, ran *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*ran = true
		id, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		writeJSON(w, http.StatusOK, map[string]any{"user_id": id.UserID, "username": id.Username})
	})
}

func guardedRequest(mw *Middleware, required domainauth.Role, handler http.Handler, authorization ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	for _, v := range authorization {
		req.Header.Add("Authorization", v)
	}
	rec := httptest.NewRecorder()
	mw.Require(required)(handler).ServeHTTP(rec, req)
	return rec
}

func errorTag(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestRequireMissingToken(t *testing.T) {
	mw, _ := newTestMiddleware(t, revocation.NewRegistry())
	codec := newTestCodec(t)
	token := signToken(t, codec, validClaims(1, domainauth.RoleUnprivileged))

	cases := []struct {
		name    string
		headers []string
	}{
		{"no header", nil},
		{"wrong scheme", []string{"Basic dXNlcjpwYXNz"}},
		{"bare scheme", []string{"Bearer "}},
		{"scheme only no space", []string{"Bearer"}},
		{"two headers", []string{"Bearer " + token, "Bearer " + token}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ran := false
			rec := guardedRequest(mw, domainauth.RoleUnprivileged, okHandler(t, &ran), tc.headers...)
			assert.False(t, ran)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "missing token", errorTag(t, rec))
		})
	}
}

func TestRequireIllegalToken(t *testing.T) {
	mw, _ := newTestMiddleware(t, revocation.NewRegistry())
	codec := newTestCodec(t)
	good := signToken(t, codec, validClaims(1, domainauth.RoleUnprivileged))

	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	// Malformed garbage and a valid-shaped token with a forged signature
	// must be indistinguishable in the response.
	var bodies []string
	for _, token := range []string{"garbage", tampered} {
		ran := false
		rec := guardedRequest(mw, domainauth.RoleUnprivileged, okHandler(t, &ran), "Bearer "+token)
		assert.False(t, ran)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "illegal token", errorTag(t, rec))
		bodies = append(bodies, rec.Body.String())
	}
	assert.Equal(t, bodies[0], bodies[1])
}

func TestRequireExpiredToken(t *testing.T) {
	mw, _ := newTestMiddleware(t, revocation.NewRegistry())
	codec := newTestCodec(t)

	cl := validClaims(1, domainauth.RoleUnprivileged)
	cl.Exp = testNow.Add(-time.Second).Unix()
	token := signToken(t, codec, cl)

	ran := false
	rec := guardedRequest(mw, domainauth.RoleUnprivileged, okHandler(t, &ran), "Bearer "+token)
	assert.False(t, ran)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "expired token", errorTag(t, rec))
}

func TestRequireRevokedMasksBanStatus(t *testing.T) {
	reg := revocation.NewRegistry()
	reg.Ban(1)
	mw, _ := newTestMiddleware(t, reg)
	codec := newTestCodec(t)
	token := signToken(t, codec, validClaims(1, domainauth.RoleUnprivileged))

	ran := false
	rec := guardedRequest(mw, domainauth.RoleUnprivileged, okHandler(t, &ran), "Bearer "+token)
	assert.False(t, ran)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad request", errorTag(t, rec))
	assert.NotContains(t, rec.Body.String(), "ban")
}

func TestRequireInsufficientRights(t *testing.T) {
	mw, _ := newTestMiddleware(t, revocation.NewRegistry())
	codec := newTestCodec(t)

	// Moderator-only roles never satisfy an admin gate; no rank promotion.
	token := signToken(t, codec, validClaims(1, domainauth.RoleModerator))

	ran := false
	rec := guardedRequest(mw, domainauth.RoleAdmin, okHandler(t, &ran), "Bearer "+token)
	assert.False(t, ran)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "not authorized", errorTag(t, rec))
	assert.Contains(t, rec.Body.String(), "does not have that role")
}

func TestRequireSuccess(t *testing.T) {
	mw, metrics := newTestMiddleware(t, revocation.NewRegistry())
	codec := newTestCodec(t)
	token := signToken(t, codec, validClaims(7, domainauth.RoleUnprivileged, domainauth.RoleModerator))

	ran := false
	rec := guardedRequest(mw, domainauth.RoleModerator, okHandler(t, &ran), "Bearer "+token)
	require.True(t, ran)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":7`)
	assert.Contains(t, rec.Body.String(), `"username":"joe"`)

	allowed := metrics.Decisions.WithLabelValues(obs.OutcomeAllowed)
	assert.Equal(t, 1.0, testutil.ToFloat64(allowed))
}

func TestCheckOrderSignatureBeforeExpiry(t *testing.T) {
	mw, _ := newTestMiddleware(t, revocation.NewRegistry())
	codec := newTestCodec(t)

	cl := validClaims(1, domainauth.RoleUnprivileged)
	cl.Exp = testNow.Add(-time.Hour).Unix()
	expired := signToken(t, codec, cl)
	parts := strings.Split(expired, ".")
	tamperedAndExpired := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	ran := false
	rec := guardedRequest(mw, domainauth.RoleUnprivileged, okHandler(t, &ran), "Bearer "+tamperedAndExpired)
	assert.Equal(t, "illegal token", errorTag(t, rec))
}

func TestCheckOrderExpiryBeforeRevocation(t *testing.T) {
	reg := revocation.NewRegistry()
	reg.Ban(1)
	mw, _ := newTestMiddleware(t, reg)
	codec := newTestCodec(t)

	cl := validClaims(1, domainauth.RoleUnprivileged)
	cl.Exp = testNow.Add(-time.Hour).Unix()
	token := signToken(t, codec, cl)

	ran := false
	rec := guardedRequest(mw, domainauth.RoleUnprivileged, okHandler(t, &ran), "Bearer "+token)
	assert.Equal(t, "expired token", errorTag(t, rec))
}

func TestCheckOrderRevocationBeforeRole(t *testing.T) {
	reg := revocation.NewRegistry()
	reg.Ban(1)
	mw, _ := newTestMiddleware(t, reg)
	codec := newTestCodec(t)

	// Banned and lacking the role: the masked revocation answer wins, so the
	// response leaks nothing about the account's capabilities either.
	token := signToken(t, codec, validClaims(1, domainauth.RoleUnprivileged))

	ran := false
	rec := guardedRequest(mw, domainauth.RoleAdmin, okHandler(t, &ran), "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad request", errorTag(t, rec))
}

func TestBanTakesEffectForSubsequentRequests(t *testing.T) {
	reg := revocation.NewRegistry()
	mw, _ := newTestMiddleware(t, reg)
	codec := newTestCodec(t)
	token := signToken(t, codec, validClaims(5, domainauth.RoleUnprivileged))

	ran := false
	rec := guardedRequest(mw, domainauth.RoleUnprivileged, okHandler(t, &ran), "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	reg.Ban(5)

	ran = false
	rec = guardedRequest(mw, domainauth.RoleUnprivileged, okHandler(t, &ran), "Bearer "+token)
	assert.False(t, ran)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	reg.Unban(5)

	ran = false
	rec = guardedRequest(mw, domainauth.RoleUnprivileged, okHandler(t, &ran), "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
}
