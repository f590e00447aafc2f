package repository

import (
	"time"

	"github.com/vdmx/vdmx-backend/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create inserts a new payment record
func (r *paymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// CreateIfAbsent inserts the payment unless the folio is already taken.
// The folio unique index plus ON CONFLICT DO NOTHING keeps concurrent
// pre-registrations from racing each other.
func (r *paymentRepository) CreateIfAbsent(payment *models.Payment) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "folio"}},
		DoNothing: true,
	}).Create(payment)
	if tx.Error != nil {
		return false, tx.Error
	}

	created := tx.RowsAffected > 0
	if !created {
		// Load the existing row so callers see current state.
		if err := r.db.Where("folio = ?", payment.Folio).First(payment).Error; err != nil {
			return false, err
		}
	}
	return created, nil
}

// GetByFolio retrieves a payment by its business folio
func (r *paymentRepository) GetByFolio(folio string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("folio = ?", folio).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// TransitionStatus applies the status change as a single conditional UPDATE
// so two concurrent webhook deliveries for the same folio cannot interleave.
func (r *paymentRepository) TransitionStatus(folio, fromStatus, toStatus, chargeID string) (bool, error) {
	updates := map[string]interface{}{
		"status":     toStatus,
		"updated_at": time.Now(),
	}
	if chargeID != "" {
		updates["charge_id"] = chargeID
	}

	tx := r.db.Model(&models.Payment{}).
		Where("folio = ? AND status = ?", folio, fromStatus).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// AttachCharge stores the gateway charge id for a folio
func (r *paymentRepository) AttachCharge(folio, chargeID string) error {
	return r.db.Model(&models.Payment{}).
		Where("folio = ?", folio).
		Updates(map[string]interface{}{
			"charge_id":  chargeID,
			"updated_at": time.Now(),
		}).Error
}

// Count returns the total number of payment records
func (r *paymentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Count(&count).Error
	return count, err
}
