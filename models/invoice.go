package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/config"
	"bitbucket.org/nusalink/ispbilling_backend/utils"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrDuplicatePeriod surfaces the unique (customer_id, period) index when a
// concurrent run slips past the existence check.
var ErrDuplicatePeriod = errors.New("invoice already exists for this period")

const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

// Invoice amounts are whole rupiah and may include arrears carried forward
// from the immediately preceding period (annotated in Notes).
type Invoice struct {
	ID            int             `gorm:"primary_key" json:"id"`
	InvoiceNumber string          `gorm:"size:64;uniqueIndex;not null" json:"invoice_number"`
	CustomerId    int             `gorm:"not null;uniqueIndex:idx_invoices_customer_period" json:"customer_id" binding:"required"`
	Customer      *Customer       `json:"customer"`
	PackageId     int             `gorm:"index;not null" json:"package_id" binding:"required"`
	Package       *Package        `json:"package"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	DueDate       time.Time       `gorm:"index;not null" json:"due_date"`
	Period        string          `gorm:"size:7;not null;uniqueIndex:idx_invoices_customer_period" json:"period"`
	Status        InvoiceStatus   `gorm:"type:enum('unpaid','paid','overdue');default:'unpaid';index" json:"status"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInvoice struct {
	CustomerId int              `json:"customer_id" binding:"required"`
	Amount     *decimal.Decimal `json:"amount"`
	DueDate    *time.Time       `json:"due_date"`
	Period     string           `json:"period" binding:"required"`
	Notes      string           `json:"notes"`
}

type UpdateInvoiceInput struct {
	Amount  decimal.Decimal `json:"amount" binding:"required"`
	DueDate time.Time       `json:"due_date" binding:"required"`
	Notes   string          `json:"notes"`
}

// NextInvoiceNumber composes a unix-millisecond timestamp with the customer
// id so numbers stay unique across concurrent runs.
func NextInvoiceNumber(customerId int) string {
	return fmt.Sprintf("INV-%d-%d", time.Now().UnixMilli(), customerId)
}

// CalculateDueDate preserves the historical billing rule: invoices fall due
// 30 days after the first day of the billed month, regardless of the
// default_invoice_day setting (which only anchors the generation schedule).
func CalculateDueDate(month time.Month, year int, loc *time.Location) time.Time {
	return utils.PeriodStart(month, year, loc).AddDate(0, 0, 30)
}

// CreateInvoice creates a manual invoice for the customer's current package.
func CreateInvoice(ctx context.Context, input *NewInvoice) (*Invoice, error) {
	db := config.GetDB()

	month, year, err := utils.ParsePeriod(input.Period)
	if err != nil {
		return nil, err
	}
	period := utils.FormatPeriod(month, year)

	customer, err := GetCustomer(ctx, input.CustomerId)
	if err != nil {
		return nil, err
	}
	if customer.Package == nil {
		return nil, errors.New("customer has no package")
	}

	exists, err := InvoiceExistsForPeriod(ctx, customer.ID, period)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicatePeriod
	}

	amount := customer.Package.Price
	if input.Amount != nil {
		amount = *input.Amount
	}
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return nil, err
	}
	dueDate := CalculateDueDate(month, year, loc)
	if input.DueDate != nil {
		dueDate = *input.DueDate
	}

	invoice := Invoice{
		InvoiceNumber: NextInvoiceNumber(customer.ID),
		CustomerId:    customer.ID,
		PackageId:     customer.PackageId,
		Amount:        amount,
		DueDate:       dueDate,
		Period:        period,
		Status:        InvoiceStatusUnpaid,
		Notes:         input.Notes,
	}
	if err := db.WithContext(ctx).Create(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// CreateMonthlyInvoice persists an invoice composed by the billing cycle
// engine. The unique (customer_id, period) index is the last line of defense
// against a concurrent duplicate.
func CreateMonthlyInvoice(ctx context.Context, invoice *Invoice) error {
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(invoice).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicatePeriod
		}
		return err
	}
	return nil
}

// UpdateInvoice edits an unpaid invoice; paid invoices are immutable.
func UpdateInvoice(ctx context.Context, id int, input *UpdateInvoiceInput) (*Invoice, error) {
	db := config.GetDB()

	var invoice Invoice
	if err := db.WithContext(ctx).First(&invoice, id).Error; err != nil {
		return nil, err
	}
	if invoice.Status == InvoiceStatusPaid {
		return nil, errors.New("paid invoices cannot be edited")
	}

	invoice.Amount = input.Amount
	invoice.DueDate = input.DueDate
	invoice.Notes = input.Notes

	if err := db.WithContext(ctx).Save(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// DeleteInvoice refuses for paid invoices and invoices with recorded payments.
func DeleteInvoice(ctx context.Context, id int) error {
	db := config.GetDB()

	var invoice Invoice
	if err := db.WithContext(ctx).First(&invoice, id).Error; err != nil {
		return err
	}
	if invoice.Status == InvoiceStatusPaid {
		return errors.New("paid invoices cannot be deleted")
	}

	paymentCount, err := utils.ResourceCountWhere[Payment](ctx, "invoice_id = ?", id)
	if err != nil {
		return err
	}
	if paymentCount > 0 {
		return errors.New("invoice has recorded payments")
	}

	return db.WithContext(ctx).Delete(&Invoice{}, id).Error
}

// BulkDeleteInvoices deletes the given unpaid invoices, refusing the whole
// batch if any of them is already paid.
func BulkDeleteInvoices(ctx context.Context, ids []int) (int64, error) {
	db := config.GetDB()

	paidCount, err := utils.ResourceCountWhere[Invoice](ctx, "id IN ? AND status = ?", ids, InvoiceStatusPaid)
	if err != nil {
		return 0, err
	}
	if paidCount > 0 {
		return 0, errors.New("selection contains paid invoices")
	}

	result := db.WithContext(ctx).
		Where("id IN ? AND status <> ?", ids, InvoiceStatusPaid).
		Delete(&Invoice{})
	return result.RowsAffected, result.Error
}

func GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	db := config.GetDB()
	var invoice Invoice
	if err := db.WithContext(ctx).
		Preload("Customer").
		Preload("Package").
		First(&invoice, id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func ListInvoices(ctx context.Context, status InvoiceStatus, period string) ([]*Invoice, error) {
	db := config.GetDB()
	var invoices []*Invoice
	dbCtx := db.WithContext(ctx).
		Preload("Customer").
		Preload("Package").
		Order("created_at desc")
	if status != "" {
		dbCtx = dbCtx.Where("status = ?", status)
	}
	if period != "" {
		dbCtx = dbCtx.Where("period = ?", period)
	}
	if err := dbCtx.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// InvoiceExistsForPeriod is the idempotence check of the billing cycle
// engine: at most one invoice per (customer, period).
func InvoiceExistsForPeriod(ctx context.Context, customerId int, period string) (bool, error) {
	count, err := utils.ResourceCountWhere[Invoice](ctx, "customer_id = ? AND period = ?", customerId, period)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUnpaidInvoiceForPeriod looks up the arrears candidate for the given
// customer and period. Returns (nil, nil) when the period is clean.
func GetUnpaidInvoiceForPeriod(ctx context.Context, customerId int, period string) (*Invoice, error) {
	db := config.GetDB()
	var invoice Invoice
	err := db.WithContext(ctx).
		Where("customer_id = ? AND period = ? AND status = ?", customerId, period, InvoiceStatusUnpaid).
		First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetOverdueInvoicesWithCustomer selects unpaid invoices strictly older than
// the cutoff, customer preloaded, for the overdue access-control engine.
func GetOverdueInvoicesWithCustomer(ctx context.Context, cutoff time.Time) ([]*Invoice, error) {
	db := config.GetDB()
	var invoices []*Invoice
	if err := db.WithContext(ctx).
		Preload("Customer").
		Where("status = ? AND due_date < ?", InvoiceStatusUnpaid, cutoff).
		Order("due_date asc").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// GetUnpaidInvoicesWithCustomer feeds the reminder broadcast.
func GetUnpaidInvoicesWithCustomer(ctx context.Context) ([]*Invoice, error) {
	db := config.GetDB()
	var invoices []*Invoice
	if err := db.WithContext(ctx).
		Preload("Customer").
		Preload("Package").
		Where("status = ?", InvoiceStatusUnpaid).
		Order("due_date asc").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
