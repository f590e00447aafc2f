package openpay

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}

// Reconciliation actions applied to a payment record for one delivery.
const (
	ActionCreated     = "created"
	ActionUpdated     = "updated"
	ActionDuplicate   = "duplicate"
	ActionIgnored     = "ignored"
	ActionMissingData = "missing_data"
	ActionConflict    = "conflict"
)

// Result describes what a webhook delivery did to the store.
type Result struct {
	Action  string
	Folio   string
	Outcome Outcome
}
