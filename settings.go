package main

import (
	"net/http"

	"bitbucket.org/nusalink/ispbilling_backend/models"
	"bitbucket.org/nusalink/ispbilling_backend/utils"
	"bitbucket.org/nusalink/ispbilling_backend/workflow"
	"github.com/gin-gonic/gin"
)

func getSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		setting, err := models.GetSetting(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, setting)
	}
}

func updateSystemSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.SystemSettingsInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		setting, err := models.UpdateSystemSettings(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, setting)
	}
}

func updateTemplateSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.TemplateSettingsInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		setting, err := models.UpdateTemplateSettings(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, setting)
	}
}

func updateIntegrationSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.IntegrationSettingsInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		if input.WhatsappProvider != "" && !input.WhatsappProvider.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid whatsapp provider"})
			return
		}
		setting, err := models.UpdateIntegrationSettings(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, setting)
	}
}

type testMessageRequest struct {
	Phone   string `json:"phone" binding:"required"`
	Message string `json:"message"`
}

func sendTestMessageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req testMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "phone is required"})
			return
		}
		if err := workflow.SendTestMessage(c.Request.Context(), req.Phone, req.Message); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sent": true})
	}
}
