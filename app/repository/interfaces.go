package repository

import (
	"github.com/vdmx/vdmx-backend/app/models"
	"gorm.io/gorm"
)

// PaymentRepository defines the interface for payment-related database operations
type PaymentRepository interface {
	Create(payment *models.Payment) error
	// CreateIfAbsent inserts the payment unless its folio already exists.
	// Returns true when a new row was written.
	CreateIfAbsent(payment *models.Payment) (bool, error)
	GetByFolio(folio string) (*models.Payment, error)
	// TransitionStatus atomically moves a folio from fromStatus to toStatus,
	// setting the charge id and refreshing updated_at in the same statement.
	// Returns true when exactly one row changed.
	TransitionStatus(folio, fromStatus, toStatus, chargeID string) (bool, error)
	// AttachCharge associates a gateway charge id without touching status.
	AttachCharge(folio, chargeID string) error
	Count() (int64, error)
}

// QuoteFormRepository defines the interface for quote-form database operations
type QuoteFormRepository interface {
	Create(form *models.QuoteForm) error
	GetByFolio(folio string) (*models.QuoteForm, error)
	List(offset, limit int) ([]models.QuoteForm, error)
	Count() (int64, error)
}

// WebhookEventRepository defines the interface for webhook audit records
type WebhookEventRepository interface {
	// CreateIfNotExists inserts the event unless (provider, provider_event_id)
	// is already stored. Returns created=false for duplicate deliveries.
	CreateIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkProcessed(id uint, processingError string) error
}

// Repositories bundles all repository implementations
type Repositories struct {
	Payment      PaymentRepository
	QuoteForm    QuoteFormRepository
	WebhookEvent WebhookEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Payment:      NewPaymentRepository(db),
		QuoteForm:    NewQuoteFormRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
	}
}
