package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"

	PaymentProviderOpenpay = "openpay"
)

// Payment is one checkout record, addressed by its business folio. The folio
// is immutable once created; status is the only field business logic keys on.
type Payment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Folio       string          `gorm:"uniqueIndex;type:varchar(100);not null" json:"folio" validate:"required,max=100"`
	Package     string          `gorm:"type:varchar(100)" json:"package" validate:"max=100"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status      string          `gorm:"type:varchar(20);default:'pending';index" json:"status" validate:"oneof=pending paid failed"`
	ChargeID    string          `gorm:"type:varchar(100);default:null;index" json:"charge_id,omitempty"`
	Description string          `gorm:"type:varchar(255)" json:"description,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// IsTerminal reports whether the payment reached a final state.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusPaid || p.Status == PaymentStatusFailed
}
