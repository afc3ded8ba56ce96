package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"makeitreel/docs"
	"makeitreel/internal/auth"
	"makeitreel/internal/cache"
	"makeitreel/internal/config"
	"makeitreel/internal/db"
	"makeitreel/internal/email"
	"makeitreel/internal/handler"
	"makeitreel/internal/logger"
	"makeitreel/internal/oauth"
	"makeitreel/internal/repository"
	"makeitreel/internal/router"
	"makeitreel/internal/service"
	"makeitreel/internal/worker"
)

// @title MakeItReel Accounts API
// @version 1.0
// @description Email/password and Google sign in, email verification codes, and session checks.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.OpenWithRetry(ctx, cfg.DatabaseDSN, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, 5, log)
	if err != nil {
		log.Error("database init", "error", err)
		os.Exit(1)
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		log.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			log.Warn("drop tables", "error", err)
		}
	}

	if err := db.Migrate(gormDB); err != nil {
		log.Error("migrate", "error", err)
		os.Exit(1)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		log.Warn("redis unavailable, user cache and google sign in degraded", "addr", cfg.RedisAddr, "error", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	subscriptionRepo := repository.NewSubscriptionRepository(gormDB)
	verificationRepo := repository.NewVerificationRepository(gormDB)

	// Initialize auth components
	tokens := auth.NewTokenService(cfg.JWTSecret)
	states := auth.NewStateStore(cacheClient)
	google := oauth.NewGoogleProvider(oauth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
	mailer := email.NewSender(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.FromEmail,
	}, log)

	var grants service.PlanGrants = service.NoGrants{}
	if cfg.EnableTestAccounts {
		grants = service.DefaultTestAccounts()
	}

	// Initialize services
	verificationService := service.NewVerificationService(verificationRepo, log)
	authService := service.NewAuthService(service.AuthDeps{
		Users:         userRepo,
		Subscriptions: subscriptionRepo,
		Verification:  verificationService,
		Mailer:        mailer,
		Tokens:        tokens,
		Grants:        grants,
		Logger:        log,
	})
	userService := service.NewUserService(userRepo, cacheClient, log)

	// Initialize handlers
	cookies := handler.CookieConfig{Secure: cfg.IsProduction()}
	handlers := router.Handlers{
		Auth:  handler.NewAuthHandler(authService, cookies),
		User:  handler.NewUserHandler(userService),
		OAuth: handler.NewOAuthHandler(google, states, authService, cookies, cfg.BaseURL, log),
	}

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.Register(e, cfg, log, tokens, handlers)

	cleanerDone := worker.NewVerificationCleaner(verificationService, cfg.CleanupInterval, log).Start(ctx)

	addr := ":" + cfg.ServerPort
	go func() {
		log.Info("server listening", "addr", addr, "swagger", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}
	<-cleanerDone

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
