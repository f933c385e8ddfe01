package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	UsersCreated        prometheus.Counter
	LoginsSucceeded     prometheus.Counter
	LoginsFailed        prometheus.Counter
	AdminCodesIssued    prometheus.Counter
	AdminCodesVerified  prometheus.Counter
	AdminCodesRejected  prometheus.Counter
	SessionsRevoked     prometheus.Counter
	GuardRedirects      prometheus.Counter
	VerifyCodeDuration  prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusgate_users_created_total",
			Help: "Total number of admin accounts created",
		}),
		LoginsSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusgate_logins_succeeded_total",
			Help: "Total number of successful logins across all flows",
		}),
		LoginsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusgate_logins_failed_total",
			Help: "Total number of failed login attempts",
		}),
		AdminCodesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusgate_admin_codes_issued_total",
			Help: "Total number of admin verification codes generated",
		}),
		AdminCodesVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusgate_admin_codes_verified_total",
			Help: "Total number of admin verification codes accepted",
		}),
		AdminCodesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusgate_admin_codes_rejected_total",
			Help: "Total number of admin verification codes rejected",
		}),
		SessionsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusgate_sessions_revoked_total",
			Help: "Total number of session tokens revoked at sign-out",
		}),
		GuardRedirects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusgate_guard_redirects_total",
			Help: "Total number of navigations redirected by the route guard",
		}),
		VerifyCodeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "campusgate_verify_code_duration_ms",
			Help:    "Latency of admin verification code checks in milliseconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}),
	}
}
