package constants

// Static route constants
const (
	APIRoute            = "/api"
	PaymentsRoute       = "/payments"
	FormsRoute          = "/forms"
	OpenpayWebhookRoute = "/webhook/openpay"
	HealthRoute         = "/health"
	MetricsRoute        = "/metrics"
)
