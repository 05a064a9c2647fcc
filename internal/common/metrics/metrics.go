// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FormSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_form_submissions_total",
			Help: "Total number of form submissions by outcome",
		},
		[]string{"form", "outcome"},
	)

	FormSubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_form_submission_duration_seconds",
			Help:    "Duration of form submission handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"form"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_upstream_requests_total",
			Help: "Total number of CRM API requests by operation and status class",
		},
		[]string{"operation", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_upstream_request_duration_seconds",
			Help:    "Duration of CRM API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_notifications_total",
			Help: "Total number of notification dispatch attempts by template and result",
		},
		[]string{"channel", "template", "result"},
	)

	FailureLogWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_failure_log_writes_total",
			Help: "Total number of delivery-failure records written",
		},
		[]string{"backend", "result"},
	)
)

// StatusClass buckets an HTTP status into 2xx, 4xx, 5xx or "error" when
// no response was received.
func StatusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
