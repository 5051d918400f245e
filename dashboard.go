package main

import (
	"net/http"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/models"
	"github.com/gin-gonic/gin"
)

func dashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		loc, err := time.LoadLocation(models.DefaultTimezone)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		stats, err := models.GetDashboardStats(c.Request.Context(), time.Now().In(loc))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
