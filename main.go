package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aliintelligence/document-filler/config"
	"github.com/aliintelligence/document-filler/handler"
	"github.com/aliintelligence/document-filler/middleware"
	"github.com/aliintelligence/document-filler/model"
	"github.com/aliintelligence/document-filler/pkg/logger"
	"github.com/aliintelligence/document-filler/service"
	"github.com/aliintelligence/document-filler/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Open the database. Without a DSN the store runs on its in-memory
	// mirror only; template and admin management stay unavailable.
	var st *store.Store
	if cfg.Database.DSN != "" {
		db, err := store.Open(cfg.Database.DSN)
		if err != nil {
			slog.Warn("database unavailable, falling back to in-memory store", "error", err)
			st = store.New(nil)
		} else {
			st = store.New(db)
			slog.Info("database connected")
		}
	} else {
		slog.Warn("no database configured, using in-memory store")
		st = store.New(nil)
	}

	// PDF archive storage is optional
	var archiveSvc *service.ArchiveService
	if cfg.Minio.Endpoint != "" {
		archiveSvc, err = service.NewArchiveService(&cfg.Minio)
		if err != nil {
			slog.Error("failed to initialize archive storage", "error", err)
			os.Exit(1)
		}
		if err := archiveSvc.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure archive bucket", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("no archive storage configured, filled and signed PDFs are not retained")
	}

	signNowSvc := service.NewSignNowService(&cfg.SignNow)
	if !signNowSvc.Configured() {
		slog.Warn("signnow API key not configured, documents dispatch as mock")
	}
	smsSvc := service.NewSMSService(&cfg.SMS)
	filler := service.NewPDFFiller()
	dispatchSvc := service.NewDispatchService(st, filler, signNowSvc, smsSvc, archiveSvc, cfg.Templates.Dir)
	poller := service.NewPoller(st, signNowSvc, archiveSvc, 5*time.Minute)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(cfg)
	customerHandler := handler.NewCustomerHandler(st)
	documentHandler := handler.NewDocumentHandler(st, archiveSvc)
	templateHandler := handler.NewTemplateHandler(st, cfg.Templates.Dir)
	adminHandler := handler.NewAdminHandler(st)
	signNowHandler := handler.NewSignNowHandler(st, dispatchSvc, signNowSvc, poller)
	smsHandler := handler.NewSMSHandler(smsSvc)
	exportHandler := handler.NewExportHandler(st)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())                 // Request ID for tracing
	router.Use(middleware.Recovery())                  // Panic recovery
	router.Use(middleware.RequestLogger())             // Access logging
	router.Use(corsMiddleware())                       // CORS
	router.Use(middleware.RateLimit(100, time.Minute)) // Rate limiting: 100 requests per minute

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		protected.GET("/customers", customerHandler.List)
		protected.POST("/customers", customerHandler.Create)
		protected.GET("/customers/:id", customerHandler.Get)
		protected.PUT("/customers/:id", customerHandler.Update)
		protected.DELETE("/customers/:id", customerHandler.Delete)
		protected.GET("/customers/:id/stats", customerHandler.Stats)

		protected.GET("/documents", documentHandler.List)
		protected.GET("/documents/:id", documentHandler.Get)
		protected.PUT("/documents/:id/status", documentHandler.UpdateStatus)
		protected.DELETE("/documents/:id", documentHandler.Delete)
		protected.GET("/documents/:id/events", documentHandler.Events)
		protected.GET("/documents/:id/archive", documentHandler.Archive)
		protected.POST("/documents/check-all", signNowHandler.CheckAll)

		protected.POST("/signnow-upload", signNowHandler.Upload)
		protected.GET("/signnow-document/:id", signNowHandler.Document)

		protected.POST("/send-sms", smsHandler.Send)

		protected.GET("/templates", templateHandler.List)
	}

	// Admin routes
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	{
		admin.POST("/templates", templateHandler.Upload)
		admin.PUT("/templates/:id", templateHandler.Update)
		admin.PUT("/templates/:id/active", templateHandler.SetActive)
		admin.DELETE("/templates/:id", templateHandler.Delete)

		admin.GET("/users", adminHandler.ListUsers)
		admin.PUT("/users/:id/role", adminHandler.UpdateUserRole)
		admin.PUT("/users/:id/active", adminHandler.SetUserActive)

		admin.GET("/permissions", adminHandler.ListPermissions)
		admin.POST("/permissions", adminHandler.UpsertPermission)

		admin.GET("/activity", adminHandler.ListActivity)

		admin.GET("/export/documents", exportHandler.Documents)
		admin.GET("/export/customers", exportHandler.Customers)
	}

	// Background status sweep keeps sent documents in sync with SignNow
	pollCtx, stopPoller := context.WithCancel(context.Background())
	defer stopPoller()
	go poller.Run(pollCtx)

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	stopPoller()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
