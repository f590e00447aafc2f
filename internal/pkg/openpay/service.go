package openpay

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"strings"

	"github.com/vdmx/vdmx-backend/app/models"
	"github.com/vdmx/vdmx-backend/app/repository"
	apperrors "github.com/vdmx/vdmx-backend/pkg/errors"
	"gorm.io/gorm"
)

// Service reconciles Openpay webhook deliveries against the payment store.
// It owns the state transition policy: pending may move to paid or failed,
// terminal states are sticky, duplicates are no-ops.
type Service struct {
	payments repository.PaymentRepository
	events   repository.WebhookEventRepository
}

// NewService creates a reconciliation service from injected repositories.
func NewService(payments repository.PaymentRepository, events repository.WebhookEventRepository) *Service {
	return &Service{payments: payments, events: events}
}

// NewServiceFromDB creates a reconciliation service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	repos := repository.NewRepositories(db)
	return NewService(repos.Payment, repos.WebhookEvent)
}

// RecordEvent persists the delivery for auditing, deduplicated per
// (provider, provider_event_id). Deliveries without a usable event id fall
// back to a payload hash so redelivered bodies still collapse to one row.
func (s *Service) RecordEvent(ctx context.Context, in WebhookEventInput) (bool, *models.WebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		provider = models.PaymentProviderOpenpay
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	created, stored, err := s.events.CreateIfNotExists(event)
	if err != nil {
		return false, nil, apperrors.Wrap(apperrors.CodeStoreError, "webhook event persist failed", err)
	}
	return created, stored, nil
}

// MarkEventProcessed marks an audit row as handled, storing an optional error.
func (s *Service) MarkEventProcessed(ctx context.Context, eventID uint, processingErr error) error {
	_ = ctx
	if eventID == 0 {
		return errors.New("webhook event id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.events.MarkProcessed(eventID, errMsg)
}

// ProcessEvent applies one verified, parsed webhook event to the store.
// Every path that does not need a gateway retry returns a Result; only store
// failures return an error.
func (s *Service) ProcessEvent(ctx context.Context, ev *WebhookEvent) (*Result, error) {
	_ = ctx
	outcome := Classify(ev.Type)
	if outcome == OutcomeIgnored {
		return &Result{Action: ActionIgnored, Outcome: outcome}, nil
	}

	if ev.Transaction == nil || strings.TrimSpace(ev.Transaction.OrderID) == "" {
		// Recognized event without a usable transaction is an upstream
		// data-quality problem, not a caller error. Acknowledge and log.
		log.Printf("openpay: %s event without transaction/order_id, ignoring", ev.Type)
		return &Result{Action: ActionMissingData, Outcome: outcome}, nil
	}

	folio := strings.TrimSpace(ev.Transaction.OrderID)
	target := models.PaymentStatusPaid
	if outcome == OutcomeFailed {
		target = models.PaymentStatusFailed
	}

	payment, err := s.payments.GetByFolio(folio)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeStoreError, "payment lookup failed", err)
		}

		// Lazy creation: a terminal event for a folio that was never
		// pre-registered creates the record directly in its final state.
		payment = &models.Payment{
			Folio:       folio,
			Amount:      ev.Transaction.Amount,
			Description: ev.Transaction.Description,
			ChargeID:    ev.Transaction.ID,
			Status:      target,
		}
		created, err := s.payments.CreateIfAbsent(payment)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStoreError, "payment create failed", err)
		}
		if created {
			return &Result{Action: ActionCreated, Folio: folio, Outcome: outcome}, nil
		}
		// Lost the insert race; payment now holds the concurrent row.
	}

	return s.transition(folio, payment, target, ev.Transaction.ID, outcome)
}

func (s *Service) transition(folio string, payment *models.Payment, target, chargeID string, outcome Outcome) (*Result, error) {
	if payment.Status == target {
		return &Result{Action: ActionDuplicate, Folio: folio, Outcome: outcome}, nil
	}

	if payment.IsTerminal() {
		// Sticky terminal state: the gateway delivered a conflicting final
		// outcome after the record already settled. Keep the stored state
		// and surface the anomaly in logs only.
		log.Printf("openpay: conflicting terminal event for folio %s (stored=%s, delivered=%s)",
			folio, payment.Status, target)
		return &Result{Action: ActionConflict, Folio: folio, Outcome: outcome}, nil
	}

	changed, err := s.payments.TransitionStatus(folio, models.PaymentStatusPending, target, chargeID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreError, "payment update failed", err)
	}
	if changed {
		return &Result{Action: ActionUpdated, Folio: folio, Outcome: outcome}, nil
	}

	// The conditional update matched nothing: a concurrent delivery won the
	// race. Re-read to tell duplicate apart from conflict.
	current, err := s.payments.GetByFolio(folio)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreError, "payment re-read failed", err)
	}
	if current.Status == target {
		return &Result{Action: ActionDuplicate, Folio: folio, Outcome: outcome}, nil
	}
	log.Printf("openpay: conflicting concurrent event for folio %s (stored=%s, delivered=%s)",
		folio, current.Status, target)
	return &Result{Action: ActionConflict, Folio: folio, Outcome: outcome}, nil
}
