package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	domainauth "github.com/quillboard/quillboard/internal/auth"
	"github.com/quillboard/quillboard/internal/domain/user"
	"github.com/quillboard/quillboard/internal/revocation"
)

// Controller exposes the auth core's HTTP surface: login, reauth, identity
// readback, and the admin ban endpoints. Everything else the application
// serves hangs its own handlers behind Middleware.Require.
type Controller struct {
	uc   *Usecase
	bans *revocation.Service
	mw   *Middleware
	log  *zap.Logger
}

func NewController(uc *Usecase, bans *revocation.Service, mw *Middleware, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{uc: uc, bans: bans, mw: mw, log: log}
}

func (c *Controller) Register(r *mux.Router) {
	r.HandleFunc("/api/auth/login", c.login).Methods(http.MethodPost)

	authed := c.mw.Require(domainauth.RoleUnprivileged)
	r.Handle("/api/auth/reauth", authed(http.HandlerFunc(c.reauth))).Methods(http.MethodGet)
	r.Handle("/api/auth/me", authed(http.HandlerFunc(c.me))).Methods(http.MethodGet)

	admin := c.mw.Require(domainauth.RoleAdmin)
	r.Handle("/api/admin/users/{id:[0-9]+}/ban", admin(http.HandlerFunc(c.ban))).Methods(http.MethodPost)
	r.Handle("/api/admin/users/{id:[0-9]+}/unban", admin(http.HandlerFunc(c.unban))).Methods(http.MethodPost)
	r.Handle("/api/admin/users/{id:[0-9]+}/roles", admin(http.HandlerFunc(c.setRoles))).Methods(http.MethodPut)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (c *Controller) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	token, err := c.uc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		c.log.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (c *Controller) reauth(w http.ResponseWriter, r *http.Request) {
	cl, ok := claimsFromContext(r.Context())
	if !ok {
		// Unreachable behind the guard; treated as a wiring bug.
		c.log.Error("reauth without verified claims in context")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	token, err := c.uc.Reauthenticate(r.Context(), cl)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			// Subject deleted since issuance; the session cannot rotate.
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		c.log.Error("reauth failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (c *Controller) me(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		c.log.Error("me without identity in context")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":  id.UserID,
		"username": id.Username,
	})
}

func (c *Controller) ban(w http.ResponseWriter, r *http.Request) {
	c.setBanned(w, r, true)
}

func (c *Controller) unban(w http.ResponseWriter, r *http.Request) {
	c.setBanned(w, r, false)
}

func (c *Controller) setBanned(w http.ResponseWriter, r *http.Request, banned bool) {
	userID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	if banned {
		err = c.bans.Ban(r.Context(), userID)
	} else {
		err = c.bans.Unban(r.Context(), userID)
	}
	if err != nil {
		c.log.Error("revocation update failed", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rolesRequest struct {
	Roles []string `json:"roles"`
}

func (c *Controller) setRoles(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	var req rolesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Roles) == 0 {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	roles := make([]domainauth.Role, 0, len(req.Roles))
	for _, s := range req.Roles {
		role, err := domainauth.ParseRole(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad request")
			return
		}
		roles = append(roles, role)
	}

	if err := c.uc.SetRoles(r.Context(), userID, roles); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		c.log.Error("role change failed", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, tag string) {
	writeJSON(w, status, map[string]string{"error": tag})
}
