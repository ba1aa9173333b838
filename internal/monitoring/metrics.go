// Package monitoring exposes Prometheus collectors for the ticket flow.
// Collectors are registered via promauto at init; the /metrics endpoint is
// mounted by the router.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets successfully issued",
		},
	)

	issueFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_issue_failures_total",
			Help: "Failed ticket issuance attempts by reason",
		},
		[]string{"reason"},
	)

	scanValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_validations_total",
			Help: "Scan validation outcomes",
		},
		[]string{"result"},
	)

	sessionLogins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_logins_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// TrackTicketIssued counts a successful issuance.
func TrackTicketIssued() {
	ticketsIssued.Inc()
}

// TrackIssueFailure counts a failed issuance.  Reasons: validation,
// sold_out, reference_exhausted, storage.
func TrackIssueFailure(reason string) {
	issueFailures.WithLabelValues(reason).Inc()
}

// TrackScan counts a scan validation outcome ("valid" or "invalid").
func TrackScan(result string) {
	scanValidations.WithLabelValues(result).Inc()
}

// TrackLogin counts a login attempt ("ok" or "rejected").
func TrackLogin(outcome string) {
	sessionLogins.WithLabelValues(outcome).Inc()
}
