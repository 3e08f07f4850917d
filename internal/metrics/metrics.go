// Package metrics defines the Prometheus metrics exported on /metrics.
// Metrics register with the default registry at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "neurocalm"

// HTTPRequestDuration measures handler latency.
// Labels:
//   - method: HTTP method
//   - status: response status code
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "status"},
)

var SignupsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of accounts created.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials" or "unknown_user"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// OTPSentTotal counts one-time codes handed to the mailer.
// Labels:
//   - purpose: "signup" or "reset"
//   - result: "sent" or "failed"
var OTPSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_sent_total",
		Help:      "Total number of one-time codes sent, by purpose and result.",
	},
	[]string{"purpose", "result"},
)

// OTPVerificationsTotal counts code checks.
// Labels:
//   - purpose: "signup" or "reset"
//   - result: "ok", "mismatch", "expired", "missing" or "locked"
var OTPVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_verifications_total",
		Help:      "Total number of one-time code verifications, by purpose and result.",
	},
	[]string{"purpose", "result"},
)

// AssessmentPagesTotal counts persisted questionnaire pages.
// Labels:
//   - test_type: "Dass-21" or "Dass-42"
//   - scale: "depression", "anxiety" or "stress"
//   - severity: the interpreted band
var AssessmentPagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assessment_pages_total",
		Help:      "Total number of questionnaire pages recorded.",
	},
	[]string{"test_type", "scale", "severity"},
)

// AssessmentRejectedTotal counts pages submitted out of order.
var AssessmentRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assessment_rejected_total",
		Help:      "Total number of questionnaire pages submitted out of order.",
	},
	[]string{"test_type", "scale"},
)

// DuplicateSubmissionsTotal counts page submissions suppressed as duplicates.
var DuplicateSubmissionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicate_submissions_total",
		Help:      "Total number of identical page submissions ignored.",
	},
)

// RateLimitedTotal counts requests rejected by the rate limiter.
var RateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
)

var ExpiredSessionsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "expired_sessions_deleted_total",
		Help:      "Total number of expired sessions removed by cleanup.",
	},
)
