// Package metrics registers the Prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsSubmitted counts leave requests accepted for filing.
	RequestsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leavedesk_requests_submitted_total",
		Help: "Leave requests successfully submitted.",
	})

	// RequestTransitions counts accept/decline transitions by target state.
	RequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leavedesk_request_transitions_total",
		Help: "Leave request state transitions by target state.",
	}, []string{"state"})

	// EmailsSent counts notification emails delivered.
	EmailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leavedesk_emails_sent_total",
		Help: "Notification emails delivered.",
	})

	// EmailFailures counts notification emails abandoned after retries.
	EmailFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leavedesk_email_failures_total",
		Help: "Notification emails abandoned after exhausting retries.",
	})

	// EmailsDropped counts notifications dropped because the queue was full.
	EmailsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leavedesk_emails_dropped_total",
		Help: "Notifications dropped due to a full dispatch queue.",
	})
)
