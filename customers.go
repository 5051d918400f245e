package main

import (
	"net/http"
	"strconv"

	"bitbucket.org/nusalink/ispbilling_backend/config"
	"bitbucket.org/nusalink/ispbilling_backend/models"
	"bitbucket.org/nusalink/ispbilling_backend/utils"
	"bitbucket.org/nusalink/ispbilling_backend/workflow"
	"github.com/gin-gonic/gin"
)

func listCustomersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := models.CustomerStatus(c.Query("status"))
		if status != "" && !status.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		customers, err := models.ListCustomers(c.Request.Context(), status, c.Query("search"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, customers)
	}
}

func getCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		customer, err := models.GetCustomer(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func createCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCustomer
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		customer, err := models.CreateCustomer(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Router provisioning is best-effort: the record is the source of
		// truth and a missing secret shows up on the monitor page.
		workflow.BestEffortProvision(c.Request.Context(), routerConnector, input.PppoeUsername)

		c.JSON(http.StatusCreated, customer)
	}
}

func updateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var input models.NewCustomer
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		before, err := models.GetCustomer(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
			return
		}
		oldUsername := utils.DereferencePtr(before.PppoeUsername)

		customer, err := models.UpdateCustomer(c.Request.Context(), id, &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if input.PppoeUsername != oldUsername {
			syncSecretRename(c, oldUsername, input.PppoeUsername)
		}

		c.JSON(http.StatusOK, customer)
	}
}

func syncSecretRename(c *gin.Context, oldUsername string, newUsername string) {
	ctx := c.Request.Context()
	switch {
	case newUsername == "":
		if err := workflow.RemovePppoeSecret(ctx, routerConnector, oldUsername); err != nil {
			config.LogError(config.GetLogger(), "customers.go", "syncSecretRename", "RemovePppoeSecret", oldUsername, err)
		}
	case oldUsername == "":
		workflow.BestEffortProvision(ctx, routerConnector, newUsername)
	default:
		if err := workflow.RenamePppoeSecret(ctx, routerConnector, oldUsername, newUsername); err != nil {
			config.LogError(config.GetLogger(), "customers.go", "syncSecretRename", "RenamePppoeSecret", oldUsername, err)
		}
	}
}

func deleteCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		customer, err := models.DeleteCustomer(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if username := utils.DereferencePtr(customer.PppoeUsername); username != "" {
			if err := workflow.RemovePppoeSecret(c.Request.Context(), routerConnector, username); err != nil {
				config.LogError(config.GetLogger(), "customers.go", "deleteCustomerHandler", "RemovePppoeSecret", username, err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}

func exportCustomersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := models.ExportCustomersXLSX(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="customers.xlsx"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := f.Write(c.Writer); err != nil {
			config.LogError(config.GetLogger(), "customers.go", "exportCustomersHandler", "Write", nil, err)
		}
	}
}

func customerImportTemplateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := models.CustomerImportTemplateXLSX()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="customers_template.xlsx"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := f.Write(c.Writer); err != nil {
			config.LogError(config.GetLogger(), "customers.go", "customerImportTemplateHandler", "Write", nil, err)
		}
	}
}

func importCustomersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer src.Close()

		result, err := models.ImportCustomersXLSX(c.Request.Context(), src)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
