package main

import (
	"net/http"

	"bitbucket.org/nusalink/ispbilling_backend/workflow"
	"github.com/gin-gonic/gin"
)

type broadcastRequest struct {
	CustomerIds []int  `json:"customer_ids" binding:"required,min=1"`
	Message     string `json:"message" binding:"required"`
}

func broadcastAnnouncementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req broadcastRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "customer_ids and message are required"})
			return
		}
		report, err := workflow.SendAnnouncement(c.Request.Context(), req.CustomerIds, req.Message)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
