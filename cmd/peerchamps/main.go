package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/peerchamps/peerchamps/internal/advocates"
	"github.com/peerchamps/peerchamps/internal/app"
	"github.com/peerchamps/peerchamps/internal/audit"
	"github.com/peerchamps/peerchamps/internal/auth"
	"github.com/peerchamps/peerchamps/internal/calls"
	"github.com/peerchamps/peerchamps/internal/identity"
	"github.com/peerchamps/peerchamps/internal/observability"
	"github.com/peerchamps/peerchamps/internal/opportunities"
	"github.com/peerchamps/peerchamps/internal/platform/cache"
	"github.com/peerchamps/peerchamps/internal/platform/db"
	"github.com/peerchamps/peerchamps/internal/rbac"
	"github.com/peerchamps/peerchamps/internal/rewards"
	"github.com/peerchamps/peerchamps/internal/shared"
	"github.com/peerchamps/peerchamps/internal/tenants"
	"github.com/peerchamps/peerchamps/internal/users"
	"github.com/peerchamps/peerchamps/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "peerchamps_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	identityService := identity.NewService(identity.NewStore(pool), logger, cfg.IdentityCacheTTL)
	identityResolvers := identity.NewResolvers(identityService, logger)
	rbacMiddleware := rbac.Middleware{Roles: identity.ContextRoles{}, Logger: logger}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, identityResolvers, sessionManager, csrfManager)

	tenantsService := tenants.NewService(tenants.NewRepository(pool))
	tenantsHandler := tenants.NewHandler(logger, tenantsService, rbacMiddleware)

	usersService := users.NewService(users.NewRepository(pool), identityResolvers, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	callsRepo := calls.NewPGRepository(pool)

	advocatesService := advocates.NewService(advocates.NewRepository(pool), callsRepo)
	advocatesHandler := advocates.NewHandler(logger, advocatesService, rbacMiddleware)

	opportunitiesService := opportunities.NewService(opportunities.NewRepository(pool))
	opportunitiesHandler := opportunities.NewHandler(logger, opportunitiesService, rbacMiddleware)

	rewardsService := rewards.NewService(rewards.NewPGRepository(pool), auditLogger, logger)
	rewardsHandler := rewards.NewHandler(logger, rewardsService, rbacMiddleware)

	auditService := audit.NewService(audit.NewPGRepository(pool))
	auditHandler := audit.NewHandler(logger, auditService, rbacMiddleware)

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

	callsService := calls.NewService(callsRepo, advocatesService, opportunitiesService,
		rewardsService, jobClient, auditLogger, logger, calls.Config{ReminderLead: cfg.CallReminderLead})
	callsService.SetMetrics(metrics)
	callsHandler := calls.NewHandler(logger, callsService, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		SessionManager:       sessionManager,
		CSRFManager:          csrfManager,
		Identity:             identityResolvers,
		AuthHandler:          authHandler,
		TenantsHandler:       tenantsHandler,
		UsersHandler:         usersHandler,
		AdvocatesHandler:     advocatesHandler,
		OpportunitiesHandler: opportunitiesHandler,
		CallsHandler:         callsHandler,
		RewardsHandler:       rewardsHandler,
		AuditHandler:         auditHandler,
		JobHandler:           jobHandler,
		Metrics:              metrics,
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
