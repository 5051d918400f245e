package main

import (
	"errors"
	"net/http"

	"bitbucket.org/nusalink/ispbilling_backend/workflow"
	"github.com/gin-gonic/gin"
)

func listPppoeUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := workflow.FetchPppoeUsers(c.Request.Context(), routerConnector)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

func enablePppoeUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if err := workflow.EnablePppoeUser(c.Request.Context(), routerConnector, name); err != nil {
			if errors.Is(err, workflow.ErrSecretNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"name": name, "enabled": true})
	}
}

func disablePppoeUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if err := workflow.DisablePppoeUser(c.Request.Context(), routerConnector, name); err != nil {
			if errors.Is(err, workflow.ErrSecretNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"name": name, "enabled": false})
	}
}
