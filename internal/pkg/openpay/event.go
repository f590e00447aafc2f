package openpay

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	apperrors "github.com/vdmx/vdmx-backend/pkg/errors"
)

// Outcome is the closed classification of a webhook event type.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomePaid
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePaid:
		return "paid"
	case OutcomeFailed:
		return "failed"
	default:
		return "ignored"
	}
}

// Transaction is the charge object embedded in an Openpay webhook payload.
// OrderID carries the business folio.
type Transaction struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Method      string          `json:"method"`
	Status      string          `json:"status"`
}

// WebhookEvent is a parsed Openpay notification. VerificationCode is only
// present on the signature-less handshake probe.
type WebhookEvent struct {
	Type             string       `json:"type"`
	EventDate        string       `json:"event_date"`
	VerificationCode string       `json:"verification_code,omitempty"`
	Transaction      *Transaction `json:"transaction,omitempty"`
}

// ParseWebhookEvent decodes a verified raw body. The caller must have run
// signature verification over the same bytes first.
func ParseWebhookEvent(raw []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMalformedPayload, "webhook body is not valid JSON", err)
	}
	ev.Type = strings.TrimSpace(ev.Type)
	return &ev, nil
}

// Classify maps an Openpay event type onto exactly one outcome. Unknown
// types are ignored on purpose: the gateway sends many event families this
// backend does not care about, and all of them must still be acknowledged.
func Classify(eventType string) Outcome {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "charge.succeeded":
		return OutcomePaid
	case "charge.failed", "charge.cancelled", "charge.expired":
		return OutcomeFailed
	default:
		return OutcomeIgnored
	}
}
