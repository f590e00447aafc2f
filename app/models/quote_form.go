package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// QuoteForm is a submitted insurance quoting form. The generated folio links
// the quote to a later payment record.
type QuoteForm struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Folio        string    `gorm:"uniqueIndex;type:varchar(100);not null" json:"folio"`
	Name         string    `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Email        string    `gorm:"type:varchar(200);not null" json:"email" validate:"required,email,max=200"`
	Phone        string    `gorm:"type:varchar(20)" json:"phone" validate:"max=20"`
	VehicleBrand string    `gorm:"type:varchar(100)" json:"vehicle_brand" validate:"max=100"`
	VehicleModel string    `gorm:"type:varchar(100)" json:"vehicle_model" validate:"max=100"`
	VehicleYear  int       `gorm:"type:int" json:"vehicle_year" validate:"omitempty,min=1950,max=2100"`
	PostalCode   string    `gorm:"type:varchar(10)" json:"postal_code" validate:"max=10"`
	PayloadJSON  string    `gorm:"type:text" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (f *QuoteForm) Validate() error {
	v := validator.New()

	return v.Struct(f)
}
