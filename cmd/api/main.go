package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cohenoa33/cashflow/internal/config"
	"github.com/cohenoa33/cashflow/internal/email"
	"github.com/cohenoa33/cashflow/internal/handler"
	"github.com/cohenoa33/cashflow/internal/middleware"
	"github.com/cohenoa33/cashflow/internal/repository/postgres"
	"github.com/cohenoa33/cashflow/internal/repository/storage"
	"github.com/cohenoa33/cashflow/internal/service"
	"github.com/cohenoa33/cashflow/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)

	// CSV archive storage; imports still work without it
	var archiveRepo storage.ArchiveRepository
	if cfg.S3.Bucket != "" {
		s3Repo, err := storage.NewS3ArchiveRepository(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 archive storage")
		}
		archiveRepo = s3Repo
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("S3 archive storage initialized")
	} else {
		archiveRepo = &storage.NoOpArchiveRepository{}
		log.Warn().Msg("S3_BUCKET not set, imported CSV files will not be archived")
	}

	// Outgoing mail; password reset emails are dropped without it
	var mailer service.Mailer
	if cfg.SMTP.Host != "" {
		mailer = email.NewSender(cfg.SMTP, cfg.FrontendURL)
	} else {
		mailer = &logMailer{}
		log.Warn().Msg("SMTP_HOST not set, password reset emails will not be sent")
	}

	// WebSocket hub for change events
	hub := websocket.NewHub()

	// Initialize services
	authService := service.NewAuthService(userRepo, mailer, cfg.JWTSecret)
	profileService := service.NewProfileService(userRepo)
	accountService := service.NewAccountService(accountRepo)
	balanceService := service.NewBalanceService(accountRepo, transactionRepo)
	transactionService := service.NewTransactionService(transactionRepo, accountRepo, hub)
	importService := service.NewImportService(transactionRepo, accountRepo, archiveRepo, hub)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	profileHandler := handler.NewProfileHandler(profileService)
	accountHandler := handler.NewAccountHandler(accountService, balanceService)
	transactionHandler := handler.NewTransactionHandler(transactionService)
	importHandler := handler.NewImportHandler(importService)
	websocketHandler := handler.NewWebSocketHandler(hub, authService, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, authHandler, profileHandler, accountHandler, transactionHandler, importHandler, websocketHandler)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// logMailer stands in for SMTP when mail is not configured
type logMailer struct{}

// SendPasswordReset implements service.Mailer
func (m *logMailer) SendPasswordReset(to, token string) error {
	log.Info().Str("to", to).Msg("Password reset requested but mail is not configured")
	return nil
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
