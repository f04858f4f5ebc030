package auth

import (
	"net/http"

	"github.com/quillboard/quillboard/internal/obs"
)

// RejectKind is a terminal outcome of the authentication pipeline. The
// outward tag set is deliberately coarser than what the server logs:
// malformed and signature-invalid tokens share one tag, and a revoked
// identity surfaces as a generic bad request so the endpoint never confirms
// ban status.
type RejectKind int

const (
	RejectMissingToken RejectKind = iota
	RejectIllegalToken
	RejectExpiredToken
	RejectRevoked
	RejectInsufficientRights
	RejectInternal
)

type Rejection struct {
	Kind   RejectKind
	Reason string // client-visible supplement, only for role failures
	detail error  // server-side diagnostic, never sent to the client
}

func (r *Rejection) Status() int {
	switch r.Kind {
	case RejectMissingToken, RejectIllegalToken, RejectExpiredToken:
		return http.StatusUnauthorized
	case RejectRevoked:
		return http.StatusBadRequest
	case RejectInsufficientRights:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Tag is the stable client-visible error string.
func (r *Rejection) Tag() string {
	switch r.Kind {
	case RejectMissingToken:
		return "missing token"
	case RejectIllegalToken:
		return "illegal token"
	case RejectExpiredToken:
		return "expired token"
	case RejectRevoked:
		return "bad request"
	case RejectInsufficientRights:
		return "not authorized"
	default:
		return "internal server error"
	}
}

// Outcome is the metrics label for this rejection.
func (r *Rejection) Outcome() string {
	switch r.Kind {
	case RejectMissingToken:
		return obs.OutcomeMissingToken
	case RejectIllegalToken:
		return obs.OutcomeIllegalToken
	case RejectExpiredToken:
		return obs.OutcomeExpiredToken
	case RejectRevoked:
		return obs.OutcomeRevoked
	case RejectInsufficientRights:
		return obs.OutcomeInsufficientRights
	default:
		return obs.OutcomeInternalError
	}
}
