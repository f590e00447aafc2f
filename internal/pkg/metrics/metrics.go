package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vdmx",
			Name:      "webhook_events_total",
			Help:      "Openpay webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	PaymentRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vdmx",
			Name:      "payment_requests_total",
			Help:      "Payment API requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	WebhookDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vdmx",
			Name:      "webhook_duration_seconds",
			Help:      "Webhook processing duration",
			Buckets: []float64{
				0.01, 0.02, 0.03, 0.05, 0.08, 0.12,
				0.2, 0.3, 0.5, 0.8, 1.2, 2, 3, 5,
			},
		},
	)
)

func init() {
	prometheus.MustRegister(WebhookEventsTotal, PaymentRequestsTotal, WebhookDuration)
}

// Helpers so handlers stay tidy
func IncWebhookOutcome(outcome string) {
	WebhookEventsTotal.WithLabelValues(outcome).Inc()
}

func IncPaymentRequest(endpoint, status string) {
	PaymentRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

func ObserveWebhookDuration(seconds float64) {
	WebhookDuration.Observe(seconds)
}
