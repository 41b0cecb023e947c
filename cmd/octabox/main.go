package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/octabox/octabox/internal/admin"
	"github.com/octabox/octabox/internal/app"
	"github.com/octabox/octabox/internal/auth"
	"github.com/octabox/octabox/internal/notifications"
	"github.com/octabox/octabox/internal/observability"
	"github.com/octabox/octabox/internal/platform/cache"
	"github.com/octabox/octabox/internal/platform/db"
	"github.com/octabox/octabox/internal/rbac"
	"github.com/octabox/octabox/internal/shared"
	"github.com/octabox/octabox/internal/site"
	"github.com/octabox/octabox/internal/users"
	"github.com/octabox/octabox/internal/view"
	"github.com/octabox/octabox/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	locker := shared.NewLocker(redisClient, cfg.LockTTL)
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	feed := auth.NewSessionFeed(cfg.SessionFeedBuffer, metrics)
	go func() {
		if err := feed.Run(ctx, auth.AuditSubscriber(auditLogger, logger)); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("session feed", slog.Any("error", err))
		}
	}()

	authService := auth.NewService(auth.NewRepository(dbpool), sessionManager, feed)
	resolver := auth.NewResolver(authService, logger, metrics)
	authHandler := auth.NewHandler(logger, authService, resolver, templates, csrfManager, jobClient)

	gate := rbac.NewGate(rbac.NewRoleStore(dbpool), logger, metrics)
	rbacMiddleware := rbac.Middleware{
		Resolver: resolver,
		Gate:     gate,
		Revoker:  authService,
		Audit:    auditLogger,
		Logger:   logger,
	}

	directory := users.NewService(users.NewRepository(dbpool))
	notificationService := notifications.NewService(notifications.ServiceDeps{
		Repo:        notifications.NewRepository(dbpool),
		Directory:   directory,
		Locker:      locker,
		Idempotency: idempotencyStore,
		Audit:       auditLogger,
		Metrics:     metrics,
		Logger:      logger,
	})

	flow := admin.NewLoginFlow(authService, authService, gate, rbacMiddleware, locker, logger)
	adminHandler := admin.NewHandler(admin.HandlerParams{
		Logger:        logger,
		Flow:          flow,
		Gate:          rbacMiddleware,
		Templates:     templates,
		CSRF:          csrfManager,
		Directory:     directory,
		Notifications: notificationService,
		LoginLimit:    cfg.AdminLoginRateLimit,
	})
	siteHandler := site.NewHandler(logger, templates, csrfManager, resolver, rbacMiddleware.RequireSession("/auth"))

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		SessionManager:       sessionManager,
		CSRFManager:          csrfManager,
		Metrics:              metrics,
		SiteHandler:          siteHandler,
		AuthHandler:          authHandler,
		AdminHandler:         adminHandler,
		NotificationsHandler: notifications.NewHandler(logger, notificationService),
		UsersHandler:         users.NewHandler(logger, directory),
		Gate:                 rbacMiddleware,
		JobHandler:           jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
