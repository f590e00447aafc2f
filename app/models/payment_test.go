package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPaymentValidate(t *testing.T) {
	p := &Payment{
		Folio:  "F-1",
		Amount: decimal.RequireFromString("500.00"),
		Status: PaymentStatusPending,
	}
	assert.NoError(t, p.Validate())

	p.Folio = ""
	assert.Error(t, p.Validate())

	p.Folio = "F-1"
	p.Status = "refunded"
	assert.Error(t, p.Validate())
}

func TestPaymentIsTerminal(t *testing.T) {
	assert.False(t, (&Payment{Status: PaymentStatusPending}).IsTerminal())
	assert.True(t, (&Payment{Status: PaymentStatusPaid}).IsTerminal())
	assert.True(t, (&Payment{Status: PaymentStatusFailed}).IsTerminal())
}
