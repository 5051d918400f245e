package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/config"
	"bitbucket.org/nusalink/ispbilling_backend/middlewares"
	"bitbucket.org/nusalink/ispbilling_backend/models"
	"bitbucket.org/nusalink/ispbilling_backend/routeros"
	"bitbucket.org/nusalink/ispbilling_backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// routerConnector is shared by handlers and the scheduler; tests swap in a
// fake through the workflow functions directly.
var routerConnector = routeros.NewRestConnector()

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func registerRoutes(r *gin.Engine) {
	r.POST("/api/auth/login", loginHandler())

	api := r.Group("/api", middlewares.AuthMiddleware())
	admin := api.Group("", middlewares.AdminOnly())

	api.GET("/dashboard", dashboardHandler())

	api.GET("/packages", listPackagesHandler())
	api.GET("/packages/:id", getPackageHandler())
	api.POST("/packages", createPackageHandler())
	api.PUT("/packages/:id", updatePackageHandler())
	admin.DELETE("/packages/:id", deletePackageHandler())

	api.GET("/customers", listCustomersHandler())
	api.GET("/customers/:id", getCustomerHandler())
	api.POST("/customers", createCustomerHandler())
	api.PUT("/customers/:id", updateCustomerHandler())
	admin.DELETE("/customers/:id", deleteCustomerHandler())
	api.GET("/customers/export", exportCustomersHandler())
	api.GET("/customers/import/template", customerImportTemplateHandler())
	api.POST("/customers/import", importCustomersHandler())

	api.GET("/invoices", listInvoicesHandler())
	api.GET("/invoices/export", exportInvoicesHandler())
	api.GET("/invoices/:id", getInvoiceHandler())
	api.POST("/invoices", createInvoiceHandler())
	api.PUT("/invoices/:id", updateInvoiceHandler())
	admin.DELETE("/invoices/:id", deleteInvoiceHandler())
	admin.POST("/invoices/bulk-delete", bulkDeleteInvoicesHandler())
	api.POST("/invoices/generate-monthly", generateMonthlyInvoicesHandler())
	api.POST("/invoices/broadcast-reminder", broadcastReminderHandler())

	api.GET("/payments", listPaymentsHandler())
	api.POST("/invoices/:id/payments", createPaymentHandler())

	api.GET("/pppoe", listPppoeUsersHandler())
	api.POST("/pppoe/:name/enable", enablePppoeUserHandler())
	api.POST("/pppoe/:name/disable", disablePppoeUserHandler())

	api.POST("/broadcast", broadcastAnnouncementHandler())

	api.GET("/settings", getSettingsHandler())
	admin.PUT("/settings/system", updateSystemSettingsHandler())
	admin.PUT("/settings/templates", updateTemplateSettingsHandler())
	admin.PUT("/settings/integrations", updateIntegrationSettingsHandler())
	admin.POST("/settings/test-message", sendTestMessageHandler())

	admin.GET("/users", listUsersHandler())
	admin.POST("/users", createUserHandler())
	admin.DELETE("/users/:id", deleteUserHandler())
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server before the dependencies are ready; app routes
	// return 503 until the database and Redis connections are up.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Header("x-correlation-id", cid)
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	schedulerCtx, cancelScheduler := context.WithCancel(context.Background())
	defer cancelScheduler()
	scheduler, err := startScheduler(schedulerCtx, routerConnector)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "scheduler"}).Panic(err.Error())
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop the scheduler first so no new engine run starts while draining.
	cancelScheduler()
	schedulerStop := scheduler.Stop()
	select {
	case <-schedulerStop.Done():
	case <-time.After(30 * time.Second):
		logger.WithFields(logrus.Fields{"field": "scheduler"}).Warn("scheduler jobs still running at shutdown deadline")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
