package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/peerchamps/peerchamps/internal/app"
	"github.com/peerchamps/peerchamps/internal/calls"
	jobmetrics "github.com/peerchamps/peerchamps/internal/jobs"
	"github.com/peerchamps/peerchamps/internal/platform/db"
	"github.com/peerchamps/peerchamps/internal/rewards"
	"github.com/peerchamps/peerchamps/internal/shared"
	"github.com/peerchamps/peerchamps/internal/users"
	"github.com/peerchamps/peerchamps/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	callsRepo := calls.NewPGRepository(pool)
	usersService := users.NewService(users.NewRepository(pool), nil, auditLogger)
	rewardsService := rewards.NewService(rewards.NewPGRepository(pool), auditLogger, logger)
	mailer := jobs.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)

	scanTask, err := jobs.NewUpcomingScanTask(2 * time.Hour)
	if err != nil {
		logger.Error("build scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: jobs.NewSendEmailHandler(mailer, logger)},
			{Type: jobs.TaskTypeCallReminder, Handler: jobs.NewCallReminderHandler(callsRepo, usersService, jobClient, logger)},
			{Type: jobs.TaskTypeRewardFulfillment, Handler: jobs.NewRewardFulfillmentHandler(rewardsService, logger)},
			{Type: jobs.TaskTypeUpcomingScan, Handler: jobs.NewUpcomingScanHandler(callsRepo, jobClient, time.Hour, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/15 * * * *", Task: scanTask},
		},
		Metrics: jobmetrics.NewMetrics(nil),
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
