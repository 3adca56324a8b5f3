package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentOrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_orders_created_total",
			Help: "Total number of gateway orders created",
		},
		[]string{"provider", "channel", "outcome"},
	)

	paymentVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verifications_total",
			Help: "Total number of interactive payment verifications",
		},
		[]string{"provider", "outcome"},
	)

	webhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhooks_total",
			Help: "Total number of gateway webhooks received",
		},
		[]string{"provider", "outcome"},
	)

	gatewayCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_call_duration_seconds",
			Help:    "Duration of outbound gateway API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	reconcilerSweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_transactions_total",
			Help: "Total transactions touched by reconciler sweeps",
		},
		[]string{"result"},
	)

	posSubscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pos_stream_subscribers",
			Help: "Number of live POS stream subscribers",
		},
		[]string{"theater"},
	)

	printQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "print_queue_depth",
			Help: "Number of buffered print jobs per theater",
		},
		[]string{"theater"},
	)
)

// RecordOrderCreated records a gateway order creation attempt.
func RecordOrderCreated(provider, channel, outcome string) {
	paymentOrdersTotal.WithLabelValues(provider, channel, outcome).Inc()
}

// RecordVerification records an interactive verification outcome.
func RecordVerification(provider, outcome string) {
	paymentVerificationsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordWebhook records a webhook processing outcome.
func RecordWebhook(provider, outcome string) {
	webhooksTotal.WithLabelValues(provider, outcome).Inc()
}

// ObserveGatewayCall records the duration of one outbound gateway call.
func ObserveGatewayCall(provider, operation string, start time.Time) {
	gatewayCallDuration.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
}

// RecordReconcilerResult records one reconciled transaction by result.
func RecordReconcilerResult(result string) {
	reconcilerSweepsTotal.WithLabelValues(result).Inc()
}

// SetPOSSubscribers sets the live subscriber count for a theater.
func SetPOSSubscribers(theaterID string, n int) {
	posSubscribers.WithLabelValues(theaterID).Set(float64(n))
}

// SetPrintQueueDepth sets the buffered print job count for a theater.
func SetPrintQueueDepth(theaterID string, n int) {
	printQueueDepth.WithLabelValues(theaterID).Set(float64(n))
}
