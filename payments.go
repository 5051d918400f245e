package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/config"
	"bitbucket.org/nusalink/ispbilling_backend/models"
	"bitbucket.org/nusalink/ispbilling_backend/utils"
	"bitbucket.org/nusalink/ispbilling_backend/workflow"
	"github.com/gin-gonic/gin"
)

func listPaymentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		payments, err := models.ListPayments(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, payments)
	}
}

func createPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invoiceId, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var input models.NewPayment
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		payment, invoice, err := models.CreatePayment(c.Request.Context(), invoiceId, &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		restoreAccess(c.Request.Context(), invoice)

		// Confirmation is sent off the request path; the payment is already
		// committed and must not fail because the gateway is down.
		go sendConfirmationAsync(invoice, payment)

		c.JSON(http.StatusCreated, gin.H{"payment": payment, "invoice": invoice})
	}
}

// restoreAccess re-enables the customer's PPPoE secret after payment. A
// router failure is logged; the next overdue sweep no longer matches the
// invoice so the subscriber can be enabled by hand from the monitor page.
func restoreAccess(ctx context.Context, invoice *models.Invoice) {
	if invoice.Customer == nil {
		return
	}
	username := utils.DereferencePtr(invoice.Customer.PppoeUsername)
	if username == "" {
		return
	}
	if err := workflow.EnablePppoeUser(ctx, routerConnector, username); err != nil {
		if errors.Is(err, workflow.ErrSecretNotFound) {
			return
		}
		config.LogError(config.GetLogger(), "payments.go", "restoreAccess", "EnablePppoeUser", username, err)
	}
}

func sendConfirmationAsync(invoice *models.Invoice, payment *models.Payment) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := workflow.SendPaymentConfirmation(ctx, invoice, payment); err != nil {
		config.LogError(config.GetLogger(), "payments.go", "sendConfirmationAsync", "SendPaymentConfirmation", invoice.InvoiceNumber, err)
	}
}
