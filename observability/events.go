package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	transfers *prometheus.CounterVec
	requests  *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured pool events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "corelend",
				Subsystem: "events",
				Name:      "token_transfers_total",
				Help:      "Count of bToken/dToken/backstop-token transfers segmented by asset.",
			}, []string{"asset"}),
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "corelend",
				Subsystem: "events",
				Name:      "requests_total",
				Help:      "Count of submitted pool requests segmented by request type and outcome.",
			}, []string{"request_type", "outcome"}),
		}
		prometheus.MustRegister(eventRegistry.transfers, eventRegistry.requests)
	})
	return eventRegistry
}

// RecordTransfer increments the transfer counter for the supplied asset ticker.
func (m *eventMetrics) RecordTransfer(asset string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(strings.ToUpper(asset))
	if normalized == "" {
		normalized = "UNKNOWN"
	}
	m.transfers.WithLabelValues(normalized).Inc()
}

// RecordRequest increments the submitted-request counter for the given pool
// request type (supply, withdraw, borrow, repay, ...) and outcome.
func (m *eventMetrics) RecordRequest(requestType string, err error) {
	if m == nil {
		return
	}
	requestType = strings.TrimSpace(strings.ToLower(requestType))
	if requestType == "" {
		requestType = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.requests.WithLabelValues(requestType, outcome).Inc()
}
