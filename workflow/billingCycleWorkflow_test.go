package workflow

import (
	"testing"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/models"
	"github.com/shopspring/decimal"
)

func jakartaLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(models.DefaultTimezone)
	if err != nil {
		t.Fatal(err)
	}
	return loc
}

func testCustomer(price int64) *models.Customer {
	return &models.Customer{
		ID:        7,
		Name:      "Budi Santoso",
		PackageId: 3,
		Package: &models.Package{
			ID:    3,
			Name:  "Home 20M",
			Price: decimal.NewFromInt(price),
		},
	}
}

func TestBuildMonthlyInvoiceWithoutArrears(t *testing.T) {
	loc := jakartaLocation(t)
	customer := testCustomer(250000)

	invoice := buildMonthlyInvoice(customer, nil, time.August, 2025, loc)

	if !invoice.Amount.Equal(decimal.NewFromInt(250000)) {
		t.Errorf("amount = %s, want 250000", invoice.Amount)
	}
	if invoice.Notes != "" {
		t.Errorf("notes should be empty without arrears, got %q", invoice.Notes)
	}
	if invoice.Period != "08-2025" {
		t.Errorf("period = %q, want 08-2025", invoice.Period)
	}
	if invoice.Status != models.InvoiceStatusUnpaid {
		t.Errorf("status = %q, want unpaid", invoice.Status)
	}
	if invoice.CustomerId != 7 || invoice.PackageId != 3 {
		t.Errorf("ids = (%d, %d), want (7, 3)", invoice.CustomerId, invoice.PackageId)
	}
}

func TestBuildMonthlyInvoiceFoldsArrears(t *testing.T) {
	loc := jakartaLocation(t)
	customer := testCustomer(100)
	previous := &models.Invoice{
		ID:     11,
		Period: "07-2025",
		Amount: decimal.NewFromInt(200),
		Status: models.InvoiceStatusUnpaid,
	}

	invoice := buildMonthlyInvoice(customer, previous, time.August, 2025, loc)

	if !invoice.Amount.Equal(decimal.NewFromInt(300)) {
		t.Errorf("amount = %s, want 300 (100 + 200 arrears)", invoice.Amount)
	}
	want := "Termasuk tunggakan bulan 07-2025 sebesar Rp 200"
	if invoice.Notes != want {
		t.Errorf("notes = %q, want %q", invoice.Notes, want)
	}
}

func TestBuildMonthlyInvoiceDueDate(t *testing.T) {
	loc := jakartaLocation(t)
	invoice := buildMonthlyInvoice(testCustomer(250000), nil, time.August, 2025, loc)

	// Due 30 days after the first day of the billed month.
	want := time.Date(2025, time.August, 31, 0, 0, 0, 0, loc)
	if !invoice.DueDate.Equal(want) {
		t.Errorf("due date = %v, want %v", invoice.DueDate, want)
	}
}

func TestBuildMonthlyInvoiceJanuaryArrearsFromDecember(t *testing.T) {
	loc := jakartaLocation(t)
	customer := testCustomer(150000)
	previous := &models.Invoice{
		Period: "12-2024",
		Amount: decimal.NewFromInt(150000),
		Status: models.InvoiceStatusUnpaid,
	}

	invoice := buildMonthlyInvoice(customer, previous, time.January, 2025, loc)

	if invoice.Period != "01-2025" {
		t.Errorf("period = %q, want 01-2025", invoice.Period)
	}
	if !invoice.Amount.Equal(decimal.NewFromInt(300000)) {
		t.Errorf("amount = %s, want 300000", invoice.Amount)
	}
	want := "Termasuk tunggakan bulan 12-2024 sebesar Rp 150.000"
	if invoice.Notes != want {
		t.Errorf("notes = %q, want %q", invoice.Notes, want)
	}
}
