package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Payment struct {
	ID          int             `gorm:"primary_key" json:"id"`
	InvoiceId   int             `gorm:"index;not null" json:"invoice_id" binding:"required"`
	Invoice     *Invoice        `json:"invoice"`
	CustomerId  int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	Customer    *Customer       `json:"customer"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentDate time.Time       `gorm:"not null" json:"payment_date"`
	Method      PaymentMethod   `gorm:"type:enum('cash','transfer','e-wallet');not null" json:"method" binding:"required"`
	Reference   string          `gorm:"size:100" json:"reference"`
	Status      PaymentStatus   `gorm:"type:enum('success','pending','failed');default:'success'" json:"status"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPayment struct {
	Method    PaymentMethod `json:"method" binding:"required"`
	Reference string        `json:"reference"`
}

// CreatePayment records a payment for the full invoice amount and marks the
// invoice paid in the same transaction. The caller owns the follow-up
// contract: re-enable the customer's PPPoE secret and send the confirmation
// message.
func CreatePayment(ctx context.Context, invoiceId int, input *NewPayment) (*Payment, *Invoice, error) {
	db := config.GetDB()

	if !input.Method.IsValid() {
		return nil, nil, errors.New("invalid payment method")
	}

	invoice, err := GetInvoice(ctx, invoiceId)
	if err != nil {
		return nil, nil, err
	}
	if invoice.Status == InvoiceStatusPaid {
		return nil, nil, errors.New("invoice is already paid")
	}

	// Cash payments arrive without a bank reference; give them one anyway so
	// every receipt is traceable.
	reference := input.Reference
	if reference == "" {
		reference = uuid.NewString()
	}

	payment := Payment{
		InvoiceId:   invoice.ID,
		CustomerId:  invoice.CustomerId,
		Amount:      invoice.Amount,
		PaymentDate: time.Now(),
		Method:      input.Method,
		Reference:   reference,
		Status:      PaymentStatusSuccess,
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	if err := tx.Model(&Invoice{}).
		Where("id = ?", invoice.ID).
		Update("status", InvoiceStatusPaid).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}

	invoice.Status = InvoiceStatusPaid
	return &payment, invoice, nil
}

func ListPayments(ctx context.Context) ([]*Payment, error) {
	db := config.GetDB()
	var payments []*Payment
	if err := db.WithContext(ctx).
		Preload("Customer").
		Preload("Invoice").
		Order("created_at desc").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
