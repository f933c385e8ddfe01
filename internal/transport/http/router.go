// Package http wires the auth flows, the route guard, and the operator
// endpoints onto a chi router.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campusgate/internal/audit"
	"campusgate/internal/authstate"
	"campusgate/internal/identity"
	"campusgate/internal/platform/metrics"
	"campusgate/pkg/platform/middleware/requestid"
	"campusgate/pkg/platform/middleware/requesttime"
	"campusgate/pkg/platform/middleware/tracing"
)

// Deps carries everything the router needs.
type Deps struct {
	Machine  *authstate.Machine
	Provider identity.Provider
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Audit    *audit.MemorySink
	Health   func() error
}

// NewRouter builds the full route tree.
func NewRouter(d Deps) http.Handler {
	h := &handler{
		machine:  d.Machine,
		provider: d.Provider,
		metrics:  d.Metrics,
		logger:   d.Logger,
		auditLog: d.Audit,
		health:   d.Health,
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(tracing.Middleware)
	r.Use(chimw.Recoverer)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/parent-login", h.parentLogin)
		r.Post("/teacher-login", h.teacherLogin)
		r.Post("/signup", h.signup)
		r.Post("/logout", h.logout)
		r.Post("/verify-admin", h.verifyAdmin)
		r.Post("/password-reset", h.passwordReset)
		r.Post("/password-reset/verify", h.passwordResetVerify)
		r.Post("/password-reset/confirm", h.passwordResetConfirm)
		r.Post("/resend-verification", h.resendVerification)
		r.Post("/confirm-email", h.confirmEmail)
		r.Get("/state", h.state)
	})

	r.Get("/guard/decision", h.guardDecision)

	// Demo protected views exercising the guard middleware.
	r.Group(func(r chi.Router) {
		r.Use(h.protect(false))
		r.Get("/dashboard", h.dashboard)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.protect(true))
		r.Get("/parent", h.parentHome)
	})

	r.Get("/healthz", h.healthz)
	r.Get("/audit/recent", h.auditRecent)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
