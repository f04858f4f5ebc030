package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Auth decision outcomes, matching the middleware's terminal states.
const (
	OutcomeAllowed            = "allowed"
	OutcomeMissingToken       = "missing_token"
	OutcomeIllegalToken       = "illegal_token"
	OutcomeExpiredToken       = "expired_token"
	OutcomeRevoked            = "revoked"
	OutcomeInsufficientRights = "insufficient_rights"
	OutcomeInternalError      = "internal_error"
)

type AuthMetrics struct {
	Decisions *prometheus.CounterVec
}

func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &AuthMetrics{
		Decisions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "quillboard",
			Subsystem: "auth",
			Name:      "decisions_total",
			Help:      "Authentication middleware terminal decisions by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *AuthMetrics) Observe(outcome string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(outcome).Inc()
}
