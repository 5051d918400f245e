package messaging

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRenderTemplateSubstitutesAllPlaceholders(t *testing.T) {
	dueDate := time.Date(2025, time.August, 31, 0, 0, 0, 0, time.UTC)
	got := RenderTemplate(
		"Halo {customer_name}, tagihan {invoice_number} sebesar Rp {amount} jatuh tempo {due_date}.",
		TemplateData{
			CustomerName:  "Budi Santoso",
			InvoiceNumber: "INV-1722400000000-7",
			Amount:        decimal.NewFromInt(250000),
			DueDate:       &dueDate,
		})

	want := "Halo Budi Santoso, tagihan INV-1722400000000-7 sebesar Rp 250.000 jatuh tempo 31 August 2025."
	if got != want {
		t.Errorf("RenderTemplate = %q, want %q", got, want)
	}
}

func TestRenderTemplatePaymentDate(t *testing.T) {
	paymentDate := time.Date(2025, time.September, 2, 14, 30, 0, 0, time.UTC)
	got := RenderTemplate("Diterima pada {payment_date}", TemplateData{PaymentDate: &paymentDate})
	if got != "Diterima pada 02 September 2025" {
		t.Errorf("RenderTemplate = %q", got)
	}
}

func TestRenderTemplateNilDatesRenderEmpty(t *testing.T) {
	got := RenderTemplate("due={due_date} paid={payment_date}", TemplateData{})
	if got != "due= paid=" {
		t.Errorf("RenderTemplate = %q", got)
	}
}

func TestRenderTemplateLeavesUnknownPlaceholders(t *testing.T) {
	got := RenderTemplate("{customer_name} {unknown}", TemplateData{CustomerName: "Sari"})
	if !strings.Contains(got, "{unknown}") {
		t.Errorf("unknown placeholders must pass through, got %q", got)
	}
}
