package repository

import (
	"github.com/vdmx/vdmx-backend/app/models"
	"gorm.io/gorm"
)

// quoteFormRepository implements the QuoteFormRepository interface
type quoteFormRepository struct {
	db *gorm.DB
}

// NewQuoteFormRepository creates a new quote form repository instance
func NewQuoteFormRepository(db *gorm.DB) QuoteFormRepository {
	return &quoteFormRepository{db: db}
}

// Create stores a submitted quote form
func (r *quoteFormRepository) Create(form *models.QuoteForm) error {
	return r.db.Create(form).Error
}

// GetByFolio retrieves a quote form by folio
func (r *quoteFormRepository) GetByFolio(folio string) (*models.QuoteForm, error) {
	var form models.QuoteForm
	err := r.db.Where("folio = ?", folio).First(&form).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

// List retrieves quote forms with pagination, newest first
func (r *quoteFormRepository) List(offset, limit int) ([]models.QuoteForm, error) {
	var forms []models.QuoteForm
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&forms).Error
	return forms, err
}

// Count returns the total number of quote forms
func (r *quoteFormRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.QuoteForm{}).Count(&count).Error
	return count, err
}
