package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	domainauth "github.com/quillboard/quillboard/internal/auth"
	"github.com/quillboard/quillboard/internal/obs"
	"github.com/quillboard/quillboard/internal/revocation"
)

// Middleware guards routes that declare a required capability. Routes left
// unwrapped are anonymous. All collaborators are injected; the middleware
// holds no process-global state.
type Middleware struct {
	codec    *domainauth.Codec
	registry *revocation.Registry
	metrics  *obs.AuthMetrics
	log      *zap.Logger
	now      func() time.Time
}

func NewMiddleware(codec *domainauth.Codec, registry *revocation.Registry, metrics *obs.AuthMetrics, log *zap.Logger) *Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &Middleware{
		codec:    codec,
		registry: registry,
		metrics:  metrics,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source; tests only.
func (m *Middleware) WithClock(now func() time.Time) *Middleware {
	cp := *m
	cp.now = now
	return &cp
}

// Require returns a wrapper enforcing the full pipeline for the given role.
// Check order is fixed: token presence, signature, expiry, revocation, role.
// Earlier checks are cheaper and more fundamental; in particular no role
// information is ever evaluated for a token that did not verify.
func (m *Middleware) Require(required domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cl, id, rej := m.evaluate(r, required)
			if rej != nil {
				m.reject(w, r, rej)
				return
			}

			m.metrics.Observe(obs.OutcomeAllowed)
			ctx := withIdentity(r.Context(), id)
			ctx = withClaims(ctx, cl)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m *Middleware) evaluate(r *http.Request, required domainauth.Role) (*domainauth.Claims, domainauth.Identity, *Rejection) {
	raw, ok := bearerToken(r)
	if !ok {
		return nil, domainauth.Identity{}, &Rejection{Kind: RejectMissingToken}
	}

	cl, err := m.codec.Verify(raw)
	if err != nil {
		return nil, domainauth.Identity{}, &Rejection{Kind: RejectIllegalToken, detail: err}
	}

	if cl.Exp < m.now().Unix() {
		return nil, domainauth.Identity{}, &Rejection{Kind: RejectExpiredToken}
	}

	if m.registry.IsBanned(cl.Sub) {
		// Outwardly a plain bad request; the log keeps the truth.
		return nil, domainauth.Identity{}, &Rejection{Kind: RejectRevoked}
	}

	id, err := domainauth.Authorize(cl, required)
	if err != nil {
		return nil, domainauth.Identity{}, &Rejection{
			Kind:   RejectInsufficientRights,
			Reason: "user does not have that role",
			detail: err,
		}
	}

	return cl, id, nil
}

// bearerToken extracts the raw token. Absence, a non-bearer scheme, and
// multiple Authorization headers all count as "no usable token".
func bearerToken(r *http.Request) (string, bool) {
	values := r.Header.Values("Authorization")
	if len(values) != 1 {
		return "", false
	}
	const prefix = "Bearer "
	v := values[0]
	if len(v) <= len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(v[len(prefix):])
	return token, token != ""
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, rej *Rejection) {
	log := obs.WithTrace(r.Context(), m.log)
	fields := []zap.Field{
		zap.String("outcome", rej.Outcome()),
		zap.String("path", r.URL.Path),
	}
	if rej.detail != nil {
		fields = append(fields, zap.Error(rej.detail))
	}
	log.Info("request rejected", fields...)

	m.metrics.Observe(rej.Outcome())
	writeRejection(w, rej)
}

func writeRejection(w http.ResponseWriter, rej *Rejection) {
	body := map[string]string{"error": rej.Tag()}
	if rej.Reason != "" {
		body["reason"] = rej.Reason
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rej.Status())
	_ = json.NewEncoder(w).Encode(body)
}
