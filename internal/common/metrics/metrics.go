package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_store_operations_total",
			Help: "Total number of store operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "notify_store_operation_duration_seconds",
			Help: "Duration of store operations in seconds",
		},
		[]string{"operation"},
	)

	PollerFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_poller_fetches_total",
			Help: "Total number of poller-initiated fetches by outcome",
		},
		[]string{"outcome"},
	)

	UnreadCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notify_unread_count",
			Help: "Current client-side unread notification count",
		},
	)
)
