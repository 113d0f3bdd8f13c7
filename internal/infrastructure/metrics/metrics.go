// Package metrics exposes Prometheus counters for reconciliation activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters recorded during reconciliation runs. All
// methods are nil-safe so callers without a metrics pipeline can pass nil.
type Metrics struct {
	TicketsOpened        *prometheus.CounterVec
	TicketsVerified      *prometheus.CounterVec
	TicketsReopened      *prometheus.CounterVec
	TicketsClosed        *prometheus.CounterVec
	TicketsUnverified    *prometheus.CounterVec
	NotificationsCreated *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		TicketsOpened: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "argus_tickets_opened_total",
			Help: "Total number of tickets opened",
		}, []string{"scan"}),
		TicketsVerified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "argus_tickets_verified_total",
			Help: "Total number of open tickets re-verified",
		}, []string{"scan"}),
		TicketsReopened: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "argus_tickets_reopened_total",
			Help: "Total number of tickets reopened inside the reopen window",
		}, []string{"scan"}),
		TicketsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "argus_tickets_closed_total",
			Help: "Total number of tickets closed",
		}, []string{"scan"}),
		TicketsUnverified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "argus_tickets_unverified_total",
			Help: "Total number of false-positive tickets left open as unverified",
		}, []string{"scan"}),
		NotificationsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "argus_notifications_created_total",
			Help: "Total number of pending notifications created",
		}, []string{"scan"}),
	}
}

func (m *Metrics) IncOpened(scan string) {
	if m != nil {
		m.TicketsOpened.WithLabelValues(scan).Inc()
	}
}

func (m *Metrics) IncVerified(scan string) {
	if m != nil {
		m.TicketsVerified.WithLabelValues(scan).Inc()
	}
}

func (m *Metrics) IncReopened(scan string) {
	if m != nil {
		m.TicketsReopened.WithLabelValues(scan).Inc()
	}
}

func (m *Metrics) IncClosed(scan string) {
	if m != nil {
		m.TicketsClosed.WithLabelValues(scan).Inc()
	}
}

func (m *Metrics) IncUnverified(scan string) {
	if m != nil {
		m.TicketsUnverified.WithLabelValues(scan).Inc()
	}
}

func (m *Metrics) IncNotification(scan string) {
	if m != nil {
		m.NotificationsCreated.WithLabelValues(scan).Inc()
	}
}
