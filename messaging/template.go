package messaging

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/nusalink/ispbilling_backend/utils"
)

// TemplateData carries the values substituted into message templates.
// Supported placeholders: {customer_name}, {invoice_number}, {amount},
// {due_date}, {payment_date}.
type TemplateData struct {
	CustomerName  string
	InvoiceNumber string
	Amount        decimal.Decimal
	DueDate       *time.Time
	PaymentDate   *time.Time
}

const templateDateLayout = "02 January 2006"

// RenderTemplate substitutes the documented single-brace placeholders. The
// stored templates predate this service, so the placeholder syntax is kept
// rather than migrating them to text/template.
func RenderTemplate(template string, data TemplateData) string {
	dueDate := ""
	if data.DueDate != nil {
		dueDate = data.DueDate.Format(templateDateLayout)
	}
	paymentDate := ""
	if data.PaymentDate != nil {
		paymentDate = data.PaymentDate.Format(templateDateLayout)
	}
	replacer := strings.NewReplacer(
		"{customer_name}", data.CustomerName,
		"{invoice_number}", data.InvoiceNumber,
		"{amount}", utils.FormatRupiah(data.Amount),
		"{due_date}", dueDate,
		"{payment_date}", paymentDate,
	)
	return replacer.Replace(template)
}
