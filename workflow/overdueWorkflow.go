package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/config"
	"bitbucket.org/nusalink/ispbilling_backend/models"
	"bitbucket.org/nusalink/ispbilling_backend/routeros"
)

type OverdueOutcome string

const (
	OverdueOutcomeDisabled      OverdueOutcome = "disabled"
	OverdueOutcomeSkippedNoUser OverdueOutcome = "skipped_no_pppoe_username"
	OverdueOutcomeSkippedNoAuth OverdueOutcome = "skipped_secret_not_found"
	OverdueOutcomeFailed        OverdueOutcome = "failed"
)

type OverdueItem struct {
	InvoiceId     int            `json:"invoice_id"`
	InvoiceNumber string         `json:"invoice_number"`
	CustomerId    int            `json:"customer_id"`
	PppoeUsername string         `json:"pppoe_username,omitempty"`
	Outcome       OverdueOutcome `json:"outcome"`
	SessionKicked bool           `json:"session_kicked"`
	Error         string         `json:"error,omitempty"`
}

type OverdueRunReport struct {
	Cutoff    time.Time     `json:"cutoff"`
	GraceDays int           `json:"grace_days"`
	Disabled  int           `json:"disabled"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Items     []OverdueItem `json:"items"`
}

// OverdueCutoff computes the disable threshold: midnight of now in loc,
// minus the grace period. Invoices are overdue when dueDate < cutoff
// (strictly before — an invoice due exactly graceDays ago is spared until
// the next day's run).
func OverdueCutoff(now time.Time, graceDays int, loc *time.Location) time.Time {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return midnight.AddDate(0, 0, -graceDays)
}

// DisableOverdueCustomers revokes network access for customers whose unpaid
// invoices are past due beyond the grace period. Intended to run once per
// day. Each customer is processed with its own router session and failures
// are isolated per customer; only settings/database errors abort the run.
func DisableOverdueCustomers(ctx context.Context, now time.Time, connector routeros.Connector) (*OverdueRunReport, error) {
	ctx, span := tracer.Start(ctx, "billing.disableOverdueCustomers")
	defer span.End()

	logger := config.GetLogger()

	setting, err := models.GetSetting(ctx)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(models.DefaultTimezone)
	if err != nil {
		return nil, err
	}

	graceDays := setting.GraceDays()
	cutoff := OverdueCutoff(now, graceDays, loc)
	report := &OverdueRunReport{Cutoff: cutoff, GraceDays: graceDays}

	if !setting.MikrotikConfigured() {
		config.LogInfo(logger, "overdueWorkflow.go", "DisableOverdueCustomers",
			"mikrotik is not configured; skipping overdue check", nil)
		return report, nil
	}

	invoices, err := models.GetOverdueInvoicesWithCustomer(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		config.LogInfo(logger, "overdueWorkflow.go", "DisableOverdueCustomers", "no overdue invoices found", nil)
		return report, nil
	}

	cfg := RouterConfigFromSetting(setting)
	disableOverdueSubscribers(ctx, connector, cfg, invoices, report)

	config.LogInfo(logger, "overdueWorkflow.go", "DisableOverdueCustomers",
		fmt.Sprintf("overdue run finished (disabled=%d skipped=%d failed=%d cutoff=%s)",
			report.Disabled, report.Skipped, report.Failed, cutoff.Format("2006-01-02")), nil)
	return report, nil
}

// disableOverdueSubscribers walks the overdue set. It never touches the
// database, so the disable semantics are testable with a fake connector.
func disableOverdueSubscribers(ctx context.Context, connector routeros.Connector, cfg routeros.Config, invoices []*models.Invoice, report *OverdueRunReport) {
	for _, invoice := range invoices {
		item := disableOneSubscriber(ctx, connector, cfg, invoice)
		switch item.Outcome {
		case OverdueOutcomeDisabled:
			report.Disabled++
		case OverdueOutcomeFailed:
			report.Failed++
		default:
			report.Skipped++
		}
		report.Items = append(report.Items, item)
	}
}

func disableOneSubscriber(ctx context.Context, connector routeros.Connector, cfg routeros.Config, invoice *models.Invoice) OverdueItem {
	logger := config.GetLogger()
	item := OverdueItem{
		InvoiceId:     invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		CustomerId:    invoice.CustomerId,
	}

	if invoice.Customer == nil || invoice.Customer.PppoeUsername == nil || *invoice.Customer.PppoeUsername == "" {
		item.Outcome = OverdueOutcomeSkippedNoUser
		return item
	}
	username := *invoice.Customer.PppoeUsername
	item.PppoeUsername = username

	session, err := connector.Connect(ctx, cfg)
	if err != nil {
		config.LogError(logger, "overdueWorkflow.go", "disableOneSubscriber", "Connect", username, err)
		item.Outcome = OverdueOutcomeFailed
		item.Error = err.Error()
		return item
	}
	defer session.Close()

	secret, err := session.FindSecretByName(ctx, username)
	if err != nil {
		config.LogError(logger, "overdueWorkflow.go", "disableOneSubscriber", "FindSecretByName", username, err)
		item.Outcome = OverdueOutcomeFailed
		item.Error = err.Error()
		return item
	}
	if secret == nil {
		item.Outcome = OverdueOutcomeSkippedNoAuth
		return item
	}

	// A set, not a toggle: re-disabling an already-disabled secret is safe.
	if err := session.SetSecretDisabled(ctx, secret.ID, true); err != nil {
		config.LogError(logger, "overdueWorkflow.go", "disableOneSubscriber", "SetSecretDisabled", username, err)
		item.Outcome = OverdueOutcomeFailed
		item.Error = err.Error()
		return item
	}

	active, err := session.FindActiveByName(ctx, username)
	if err != nil {
		// Secret already disabled; the live session will drop on its own at
		// the next reconnect. Record the kick failure without undoing the run.
		config.LogError(logger, "overdueWorkflow.go", "disableOneSubscriber", "FindActiveByName", username, err)
		item.Outcome = OverdueOutcomeDisabled
		item.Error = err.Error()
		return item
	}
	if active != nil {
		if err := session.RemoveActiveSession(ctx, active.ID); err != nil {
			config.LogError(logger, "overdueWorkflow.go", "disableOneSubscriber", "RemoveActiveSession", username, err)
			item.Outcome = OverdueOutcomeDisabled
			item.Error = err.Error()
			return item
		}
		item.SessionKicked = true
	}

	config.LogInfo(logger, "overdueWorkflow.go", "disableOneSubscriber",
		fmt.Sprintf("disabled pppoe user %s for invoice %s", username, invoice.InvoiceNumber), nil)
	item.Outcome = OverdueOutcomeDisabled
	return item
}

// RouterConfigFromSetting maps stored credentials onto a router session
// config; host/port/user never come from anywhere but the Setting record.
func RouterConfigFromSetting(setting *models.Setting) routeros.Config {
	return routeros.Config{
		Host:     setting.MikrotikHost,
		Port:     setting.MikrotikPort,
		User:     setting.MikrotikUser,
		Password: setting.MikrotikPass,
		Timeout:  routeros.DefaultTimeout,
	}
}
