package main

import (
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/config"
	"bitbucket.org/nusalink/ispbilling_backend/models"
	"bitbucket.org/nusalink/ispbilling_backend/utils"
	"bitbucket.org/nusalink/ispbilling_backend/workflow"
	"github.com/gin-gonic/gin"
)

func listInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := models.InvoiceStatus(c.Query("status"))
		if status != "" && !status.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		invoices, err := models.ListInvoices(c.Request.Context(), status, c.Query("period"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, invoices)
	}
}

func getInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		invoice, err := models.GetInvoice(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

func createInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewInvoice
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		invoice, err := models.CreateInvoice(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, invoice)
	}
}

func updateInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var input models.UpdateInvoiceInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		invoice, err := models.UpdateInvoice(c.Request.Context(), id, &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

func deleteInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		if err := models.DeleteInvoice(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}

type bulkDeleteRequest struct {
	Ids []int `json:"ids" binding:"required,min=1"`
}

func bulkDeleteInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bulkDeleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ids are required"})
			return
		}
		deleted, err := models.BulkDeleteInvoices(c.Request.Context(), req.Ids)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	}
}

type generateMonthlyRequest struct {
	Month int `json:"month" binding:"required,min=1,max=12"`
	Year  int `json:"year" binding:"required,min=2000"`
}

func generateMonthlyInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req generateMonthlyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month and year are required"})
			return
		}
		report, err := workflow.GenerateMonthlyInvoices(c.Request.Context(), time.Month(req.Month), req.Year)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func exportInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := models.InvoiceStatus(c.Query("status"))
		if status != "" && !status.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		f, err := models.ExportInvoicesXLSX(c.Request.Context(), status, c.Query("period"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="invoices.xlsx"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := f.Write(c.Writer); err != nil {
			config.LogError(config.GetLogger(), "invoices.go", "exportInvoicesHandler", "Write", nil, err)
		}
	}
}

func broadcastReminderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := workflow.BroadcastUnpaidReminders(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
