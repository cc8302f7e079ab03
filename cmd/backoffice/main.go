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

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting"
	"github.com/odyssey-erp/lending-backoffice/internal/app"
	"github.com/odyssey-erp/lending-backoffice/internal/audit"
	audithttp "github.com/odyssey-erp/lending-backoffice/internal/audit/http"
	"github.com/odyssey-erp/lending-backoffice/internal/auth"
	"github.com/odyssey-erp/lending-backoffice/internal/loanproducts"
	"github.com/odyssey-erp/lending-backoffice/internal/observability"
	"github.com/odyssey-erp/lending-backoffice/internal/platform/cache"
	"github.com/odyssey-erp/lending-backoffice/internal/platform/db"
	"github.com/odyssey-erp/lending-backoffice/internal/rbac"
	"github.com/odyssey-erp/lending-backoffice/internal/shared"
	"github.com/odyssey-erp/lending-backoffice/jobs"
	"github.com/odyssey-erp/lending-backoffice/migrations"
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

	sentryEnabled := false
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.AppEnv,
			AttachStacktrace: true,
		}); err != nil {
			logger.Warn("sentry init", slog.Any("error", err))
		} else {
			sentryEnabled = true
			defer sentry.Flush(2 * time.Second)
		}
	}

	if cfg.DBAutoMigrate {
		if err := db.Migrate(cfg.PGDSN, migrations.FS, logger); err != nil {
			logger.Error("migrate database", slog.Any("error", err))
			os.Exit(1)
		}
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	rbacService := rbac.NewService(nil)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	accountingModule := accounting.NewModule(accounting.Dependencies{
		Logger:      logger,
		Pool:        dbpool,
		Redis:       redisClient,
		RBAC:        rbacMiddleware,
		CacheTTL:    cfg.LedgerCacheTTL,
		CompanyName: cfg.ExportCompanyName,
	})
	go func() {
		if err := accountingModule.LedgerCache.ListenForInvalidation(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("ledger cache invalidation listener", slog.Any("error", err))
		}
	}()

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	authService := auth.NewService(auth.NewRepository(dbpool), tokens, logger)
	authHandler := auth.NewHandler(logger, authService)

	loanProductService := loanproducts.NewService(
		loanproducts.NewRepository(dbpool),
		accountingModule.Mappings,
		accountingModule.Accounts,
		shared.NewAuditLogger(dbpool),
	)
	loanProductHandler := loanproducts.NewHandler(logger, loanProductService, rbacMiddleware)
	auditHandler := audithttp.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool)), rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		Tokens:              tokens,
		AuthHandler:         authHandler,
		Accounting:          accountingModule,
		LoanProductsHandler: loanProductHandler,
		PermissionsHandler:  rbac.NewPermissionsHandler(rbacService, rbacMiddleware),
		AuditHandler:        auditHandler,
		JobHandler:          jobHandler,
		RBACMiddleware:      rbacMiddleware,
		Metrics:             observability.NewMetrics(),
		Sentry:              sentryEnabled,
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
