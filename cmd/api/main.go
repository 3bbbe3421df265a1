package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "bilimbagdar/docs" // This is for Swagger
	"bilimbagdar/internal/auth"
	"bilimbagdar/internal/blob"
	"bilimbagdar/internal/config"
	"bilimbagdar/internal/handlers"
	"bilimbagdar/internal/logger"
	"bilimbagdar/internal/middleware"
	"bilimbagdar/internal/models"
	"bilimbagdar/internal/repository"
	"bilimbagdar/internal/secrets"
	"bilimbagdar/internal/service"
	"bilimbagdar/internal/store"

	httpSwagger "github.com/swaggo/http-swagger"
)

// @title BilimBagdar API
// @version 1.0
// @description Backend API for the BilimBagdar homework coaching platform

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level: cfg.Log.Level,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	ctx := context.Background()

	// Resolve deployment secrets from Vault when enabled
	if cfg.Vault.Enabled {
		if err := secrets.LoadInto(ctx, cfg); err != nil {
			slog.Error("Failed to load secrets from Vault", "error", err)
			os.Exit(1)
		}
		slog.Info("Secrets loaded from Vault", "vault_addr", cfg.Vault.Address)
	}

	// Select the record-store backend once at startup
	recordStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open record store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Initialize repositories
	userRepo := repository.NewUserRepository(recordStore)
	hwRepo := repository.NewHomeworkRepository(recordStore)
	subRepo := repository.NewSubmissionRepository(recordStore)

	if err := userRepo.Init(ctx); err != nil {
		slog.Error("Failed to initialize users table", "error", err)
		os.Exit(1)
	}
	if err := hwRepo.Init(ctx); err != nil {
		slog.Error("Failed to initialize homeworks table", "error", err)
		os.Exit(1)
	}
	if err := subRepo.Init(ctx); err != nil {
		slog.Error("Failed to initialize submissions table", "error", err)
		os.Exit(1)
	}
	slog.Info("Record tables ready")

	// Initialize blob uploads (optional)
	uploader, err := blob.NewGCSUploader(ctx, &cfg.Blob, cfg.Sheets.ServiceAccountJSON)
	if err != nil {
		slog.Error("Failed to initialize blob storage", "error", err)
		os.Exit(1)
	}
	if uploader == nil {
		slog.Warn("Blob storage disabled, attachments will be stored inline")
	}

	// Initialize services
	authService := auth.NewService(&cfg.JWT)
	llmService := service.NewLLMService(&cfg.LLM)
	reflectionService := service.NewReflectionService(llmService)
	authSvc := service.NewAuthService(userRepo, authService)
	adminService := service.NewAdminService(userRepo, hwRepo, authService)
	analyticsService := service.NewAnalyticsService(userRepo, hwRepo, subRepo)

	// a typed nil must not reach the interface field
	var up blob.Uploader
	if uploader != nil {
		up = uploader
	}
	submissionService := service.NewSubmissionService(subRepo, hwRepo, reflectionService, up)

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(authService)
	rbacMw := middleware.NewRBACMiddleware()
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authSvc)
	homeworkHandler := handlers.NewHomeworkHandler(adminService)
	submissionHandler := handlers.NewSubmissionHandler(submissionService, authSvc)
	userHandler := handlers.NewUserHandler(adminService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

	teacherOnly := rbacMw.RequireRole(models.RoleTeacher)
	studentOnly := rbacMw.RequireRole(models.RoleStudent)

	// Setup router
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/v1/auth/bootstrap", authHandler.BootstrapStatus)
	mux.HandleFunc("POST /api/v1/auth/bootstrap", authHandler.Bootstrap)

	// Authenticated routes
	mux.Handle("GET /api/v1/auth/me", authMw.Authenticate(http.HandlerFunc(authHandler.Me)))
	mux.Handle("GET /api/v1/homeworks", authMw.Authenticate(http.HandlerFunc(homeworkHandler.List)))

	// Student routes
	mux.Handle("POST /api/v1/submissions",
		authMw.Authenticate(studentOnly(http.HandlerFunc(submissionHandler.Submit))))
	mux.Handle("GET /api/v1/submissions/mine",
		authMw.Authenticate(studentOnly(http.HandlerFunc(submissionHandler.ListMine))))
	mux.Handle("POST /api/v1/coach",
		authMw.Authenticate(studentOnly(http.HandlerFunc(submissionHandler.Coach))))

	// Teacher routes
	mux.Handle("POST /api/v1/homeworks",
		authMw.Authenticate(teacherOnly(http.HandlerFunc(homeworkHandler.Create))))
	mux.Handle("GET /api/v1/submissions",
		authMw.Authenticate(teacherOnly(http.HandlerFunc(submissionHandler.ListAll))))
	mux.Handle("POST /api/v1/users",
		authMw.Authenticate(teacherOnly(http.HandlerFunc(userHandler.AddStudent))))
	mux.Handle("GET /api/v1/users",
		authMw.Authenticate(teacherOnly(http.HandlerFunc(userHandler.List))))
	mux.Handle("GET /api/v1/analytics/overview",
		authMw.Authenticate(teacherOnly(http.HandlerFunc(analyticsHandler.Overview))))

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy","version":"` + cfg.App.Version + `"}`)); err != nil {
			slog.Error("Failed to write health check response", "error", err)
		}
	})

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.LoggingMiddleware(
		middleware.SecurityHeaders(
			corsMw.Handler(
				rateLimiter.Limit(mux),
			),
		),
	)

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}

// openStore picks the record-store backend: Google Sheets when a spreadsheet
// is configured, Postgres when a DSN is set, the local file store otherwise.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	noop := func() {}

	if cfg.Sheets.SpreadsheetID != "" {
		s, err := store.NewSheetsStore(ctx, cfg.Sheets.SpreadsheetID, cfg.Sheets.ServiceAccountJSON)
		if err != nil {
			return nil, noop, fmt.Errorf("sheets store: %w", err)
		}
		slog.Info("Using Google Sheets record store", "spreadsheet_id", cfg.Sheets.SpreadsheetID)
		return s, noop, nil
	}

	if cfg.Database.DSN != "" {
		s, err := store.NewPostgresStore(&cfg.Database)
		if err != nil {
			return nil, noop, fmt.Errorf("postgres store: %w", err)
		}
		slog.Info("Using Postgres record store")
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Error("Failed to close database connection", "error", err)
			}
		}, nil
	}

	s, err := store.NewFileStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, noop, fmt.Errorf("file store: %w", err)
	}
	slog.Info("Using local file record store", "data_dir", cfg.Storage.DataDir)
	return s, noop, nil
}
