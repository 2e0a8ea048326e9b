package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomly",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	reservationOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomly",
			Name:      "reservation_operations_total",
			Help:      "Reservation create/edit/delete operations by result.",
		},
		[]string{"operation", "result"},
	)

	notifyDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomly",
			Name:      "notify_deliveries_total",
			Help:      "Notification delivery attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, reservationOps, notifyDeliveries)
	})
}

// IncHTTP increments the counter for an endpoint/status pair.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

// IncReservationOp counts one reservation operation outcome.
func IncReservationOp(operation, result string) {
	reservationOps.WithLabelValues(operation, result).Inc()
}

// IncNotifyDelivery counts one notification delivery outcome.
func IncNotifyDelivery(outcome string) {
	notifyDeliveries.WithLabelValues(outcome).Inc()
}
