package workflow

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/nusalink/ispbilling_backend/config"
	"bitbucket.org/nusalink/ispbilling_backend/messaging"
	"bitbucket.org/nusalink/ispbilling_backend/models"
	"bitbucket.org/nusalink/ispbilling_backend/utils"
)

func broadcaster(ctx context.Context) (*messaging.Broadcaster, *models.Setting, error) {
	setting, err := models.GetSetting(ctx)
	if err != nil {
		return nil, nil, err
	}
	provider, err := messaging.NewProviderFromSetting(setting)
	if err != nil {
		return nil, nil, err
	}
	return messaging.NewBroadcaster(provider), setting, nil
}

// BroadcastUnpaidReminders renders the reminder template for every unpaid
// invoice and dispatches the batch. Customers without a usable phone number
// are skipped up front rather than burning a gateway call.
func BroadcastUnpaidReminders(ctx context.Context) (*messaging.BroadcastReport, error) {
	bc, setting, err := broadcaster(ctx)
	if err != nil {
		return nil, err
	}

	invoices, err := models.GetUnpaidInvoicesWithCustomer(ctx)
	if err != nil {
		return nil, err
	}

	template := setting.WaTemplate
	if template == "" {
		template = models.DefaultWaTemplate
	}

	payloads := make([]messaging.Payload, 0, len(invoices))
	for _, invoice := range invoices {
		if invoice.Customer == nil {
			continue
		}
		phone, err := utils.NormalizePhoneNumber(invoice.Customer.Phone, "ID")
		if err != nil {
			config.LogError(config.GetLogger(), "reminderWorkflow.go", "BroadcastUnpaidReminders",
				"NormalizePhoneNumber", invoice.Customer.ID, err)
			continue
		}
		dueDate := invoice.DueDate
		payloads = append(payloads, messaging.Payload{
			Phone: phone,
			Message: messaging.RenderTemplate(template, messaging.TemplateData{
				CustomerName:  invoice.Customer.Name,
				InvoiceNumber: invoice.InvoiceNumber,
				Amount:        invoice.Amount,
				DueDate:       &dueDate,
			}),
		})
	}

	report := bc.SendBulk(ctx, payloads)
	config.LogInfo(config.GetLogger(), "reminderWorkflow.go", "BroadcastUnpaidReminders",
		fmt.Sprintf("reminder broadcast finished (sent=%d failed=%d)", report.Sent, report.Failed), nil)
	return report, nil
}

// SendAnnouncement sends a free-form message to the selected customers.
func SendAnnouncement(ctx context.Context, customerIds []int, message string) (*messaging.BroadcastReport, error) {
	if len(customerIds) == 0 {
		return nil, errors.New("no customers selected")
	}
	if message == "" {
		return nil, errors.New("message is empty")
	}

	bc, _, err := broadcaster(ctx)
	if err != nil {
		return nil, err
	}

	customers, err := models.GetCustomersByIds(ctx, customerIds)
	if err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return nil, errors.New("no matching customers found")
	}

	payloads := make([]messaging.Payload, 0, len(customers))
	for _, customer := range customers {
		phone, err := utils.NormalizePhoneNumber(customer.Phone, "ID")
		if err != nil {
			config.LogError(config.GetLogger(), "reminderWorkflow.go", "SendAnnouncement",
				"NormalizePhoneNumber", customer.ID, err)
			continue
		}
		payloads = append(payloads, messaging.Payload{Phone: phone, Message: message})
	}

	return bc.SendBulk(ctx, payloads), nil
}

// SendPaymentConfirmation notifies a customer that their payment was
// received. Called asynchronously after the payment commits; errors are
// returned for logging but never roll back the payment.
func SendPaymentConfirmation(ctx context.Context, invoice *models.Invoice, payment *models.Payment) error {
	if invoice == nil || invoice.Customer == nil {
		return errors.New("invoice has no customer loaded")
	}

	bc, setting, err := broadcaster(ctx)
	if err != nil {
		return err
	}

	phone, err := utils.NormalizePhoneNumber(invoice.Customer.Phone, "ID")
	if err != nil {
		return err
	}

	template := setting.PaymentConfirmationTemplate
	if template == "" {
		template = models.DefaultPaymentConfirmationTemplate
	}

	paymentDate := payment.PaymentDate
	report := bc.SendBulk(ctx, []messaging.Payload{{
		Phone: phone,
		Message: messaging.RenderTemplate(template, messaging.TemplateData{
			CustomerName:  invoice.Customer.Name,
			InvoiceNumber: invoice.InvoiceNumber,
			Amount:        payment.Amount,
			PaymentDate:   &paymentDate,
		}),
	}})
	if report.Failed > 0 {
		return fmt.Errorf("payment confirmation to %s failed: %s", phone, report.Outcomes[0].Error)
	}
	return nil
}

// SendTestMessage verifies gateway credentials from the settings page.
func SendTestMessage(ctx context.Context, phone string, message string) error {
	bc, _, err := broadcaster(ctx)
	if err != nil {
		return err
	}
	normalized, err := utils.NormalizePhoneNumber(phone, "ID")
	if err != nil {
		return err
	}
	if message == "" {
		message = "Pesan uji coba dari sistem billing."
	}
	report := bc.SendBulk(ctx, []messaging.Payload{{Phone: normalized, Message: message}})
	if report.Failed > 0 {
		return errors.New(report.Outcomes[0].Error)
	}
	return nil
}
