package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/config"
	"bitbucket.org/nusalink/ispbilling_backend/models"
	"bitbucket.org/nusalink/ispbilling_backend/utils"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("ispbilling-backend")

type BillingOutcome string

const (
	BillingOutcomeCreated BillingOutcome = "created"
	BillingOutcomeSkipped BillingOutcome = "skipped_existing"
	BillingOutcomeFailed  BillingOutcome = "failed"
)

type BillingItem struct {
	CustomerId    int            `json:"customer_id"`
	CustomerName  string         `json:"customer_name"`
	InvoiceNumber string         `json:"invoice_number,omitempty"`
	Outcome       BillingOutcome `json:"outcome"`
	Error         string         `json:"error,omitempty"`
}

type BillingRunReport struct {
	Period  string        `json:"period"`
	Created int           `json:"created"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Items   []BillingItem `json:"items"`
}

// GenerateMonthlyInvoices creates one unpaid invoice per active customer for
// the given month, folding in the unpaid amount of the immediately preceding
// period as arrears. Generation is idempotent per (customer, period): rerunning
// for the same month creates nothing new. A failure on one customer is
// recorded and the batch continues; only a failure to list customers at all
// aborts the run.
func GenerateMonthlyInvoices(ctx context.Context, month time.Month, year int) (*BillingRunReport, error) {
	ctx, span := tracer.Start(ctx, "billing.generateMonthlyInvoices")
	defer span.End()

	logger := config.GetLogger()

	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d", month)
	}

	currentPeriod := utils.FormatPeriod(month, year)
	previousPeriod := utils.PreviousPeriod(month, year)

	loc, err := time.LoadLocation(models.DefaultTimezone)
	if err != nil {
		return nil, err
	}

	customers, err := models.GetActiveCustomersWithPackage(ctx)
	if err != nil {
		return nil, err
	}

	report := &BillingRunReport{Period: currentPeriod}
	for _, customer := range customers {
		item := BillingItem{CustomerId: customer.ID, CustomerName: customer.Name}

		exists, err := models.InvoiceExistsForPeriod(ctx, customer.ID, currentPeriod)
		if err != nil {
			config.LogError(logger, "billingCycleWorkflow.go", "GenerateMonthlyInvoices", "InvoiceExistsForPeriod", customer.ID, err)
			item.Outcome = BillingOutcomeFailed
			item.Error = err.Error()
			report.Failed++
			report.Items = append(report.Items, item)
			continue
		}
		if exists {
			item.Outcome = BillingOutcomeSkipped
			report.Skipped++
			report.Items = append(report.Items, item)
			continue
		}

		if customer.Package == nil {
			err := fmt.Errorf("customer %d has no package", customer.ID)
			config.LogError(logger, "billingCycleWorkflow.go", "GenerateMonthlyInvoices", "resolvePackage", customer.ID, err)
			item.Outcome = BillingOutcomeFailed
			item.Error = err.Error()
			report.Failed++
			report.Items = append(report.Items, item)
			continue
		}

		previous, err := models.GetUnpaidInvoiceForPeriod(ctx, customer.ID, previousPeriod)
		if err != nil {
			config.LogError(logger, "billingCycleWorkflow.go", "GenerateMonthlyInvoices", "GetUnpaidInvoiceForPeriod", customer.ID, err)
			item.Outcome = BillingOutcomeFailed
			item.Error = err.Error()
			report.Failed++
			report.Items = append(report.Items, item)
			continue
		}

		invoice := buildMonthlyInvoice(customer, previous, month, year, loc)
		if err := models.CreateMonthlyInvoice(ctx, invoice); err != nil {
			// A concurrent run won the unique (customer, period) race.
			if errors.Is(err, models.ErrDuplicatePeriod) {
				item.Outcome = BillingOutcomeSkipped
				report.Skipped++
				report.Items = append(report.Items, item)
				continue
			}
			config.LogError(logger, "billingCycleWorkflow.go", "GenerateMonthlyInvoices", "CreateMonthlyInvoice", customer.ID, err)
			item.Outcome = BillingOutcomeFailed
			item.Error = err.Error()
			report.Failed++
			report.Items = append(report.Items, item)
			continue
		}

		item.InvoiceNumber = invoice.InvoiceNumber
		item.Outcome = BillingOutcomeCreated
		report.Created++
		report.Items = append(report.Items, item)
	}

	config.LogInfo(logger, "billingCycleWorkflow.go", "GenerateMonthlyInvoices",
		fmt.Sprintf("generated %d invoices for period %s (skipped=%d failed=%d)",
			report.Created, currentPeriod, report.Skipped, report.Failed), nil)
	return report, nil
}

// buildMonthlyInvoice composes the invoice for one customer. Only the unpaid
// invoice of the immediately preceding period is folded in; older arrears are
// assumed to have been folded forward by earlier runs.
func buildMonthlyInvoice(customer *models.Customer, previous *models.Invoice, month time.Month, year int, loc *time.Location) *models.Invoice {
	amount := customer.Package.Price
	notes := ""
	if previous != nil {
		amount = amount.Add(previous.Amount)
		notes = fmt.Sprintf("Termasuk tunggakan bulan %s sebesar Rp %s",
			previous.Period, utils.FormatRupiah(previous.Amount))
	}

	return &models.Invoice{
		InvoiceNumber: models.NextInvoiceNumber(customer.ID),
		CustomerId:    customer.ID,
		PackageId:     customer.PackageId,
		Amount:        amount,
		DueDate:       models.CalculateDueDate(month, year, loc),
		Period:        utils.FormatPeriod(month, year),
		Status:        models.InvoiceStatusUnpaid,
		Notes:         notes,
	}
}
