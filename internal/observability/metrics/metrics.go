package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "issuedesk_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "issuedesk_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	issuesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "issuedesk_issues_created_total",
		Help: "Issues created, by source (widget or dashboard)",
	}, []string{"source"})

	registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "issuedesk_registrations_total",
		Help: "Registration attempts by result",
	}, []string{"result"})

	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "issuedesk_logins_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	authorizationDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "issuedesk_authorization_denials_total",
		Help: "Team access checks that were refused",
	}, []string{"reason"})

	revocationsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "issuedesk_revocations_purged_total",
		Help: "Expired token revocations removed from the in-memory store",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveIssueCreated counts a newly stored issue.
func ObserveIssueCreated(source string) {
	issuesCreated.WithLabelValues(source).Inc()
}

// ObserveRegistration counts a registration attempt.
func ObserveRegistration(result string) {
	registrations.WithLabelValues(result).Inc()
}

// ObserveLogin counts a login attempt.
func ObserveLogin(result string) {
	logins.WithLabelValues(result).Inc()
}

// ObserveAuthorizationDenied counts a refused team access check.
func ObserveAuthorizationDenied(reason string) {
	authorizationDenials.WithLabelValues(reason).Inc()
}

// ObserveRevocationsPurged adds purged revocation entries.
func ObserveRevocationsPurged(count int) {
	if count <= 0 {
		return
	}
	revocationsPurged.Add(float64(count))
}
