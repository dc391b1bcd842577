package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	seyedbot "github.com/set-night/seyedbot"
	"github.com/set-night/seyedbot/internal/config"
	"github.com/set-night/seyedbot/internal/handler"
	"github.com/set-night/seyedbot/internal/metrics"
	"github.com/set-night/seyedbot/internal/middleware"
	"github.com/set-night/seyedbot/internal/repository"
	"github.com/set-night/seyedbot/internal/scheduler"
	"github.com/set-night/seyedbot/internal/service"
	"github.com/set-night/seyedbot/internal/telegram"
	"github.com/set-night/seyedbot/internal/workflow"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(seyedbot.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	queries := repository.New(pool)

	// Initialize services
	userService := service.NewUserService(pool, queries)
	adminService := service.NewAdminService(pool, queries, cfg.AdminIDs)
	contentService := service.NewContentService(pool, queries)
	consultationService := service.NewConsultationService(pool, queries)
	rateLimitService := service.NewRateLimitService(queries, config.RateLimitPerMinute)
	flags := config.NewRuntime(cfg.RequirePhoneDefault)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(registry)

	// Handler pointer for use in default handler closure
	var h *handler.Handler
	var auditLog *telegram.AuditLog

	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(reporterFunc(func(ctx context.Context, err error, where string) {
				if auditLog != nil {
					auditLog.LogError(ctx, err, where)
				}
			})),
			middleware.Logging(recorder),
			middleware.RateLimit(rateLimitService, recorder),
			middleware.EventLoader(),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil {
				return
			}
			h.Default(ctx, b, update)
		}),
	}
	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("failed to drop pending updates", "error", err)
		}
	}

	auditLog = telegram.NewAuditLog(b, cfg)
	gateway := telegram.NewGateway(b, cfg.ChannelChat(), cfg.SendTimeout)

	engine := workflow.New(workflow.Deps{
		Messenger:     gateway,
		Users:         userService,
		Admins:        adminService,
		Content:       contentService,
		Consultations: consultationService,
		Flags:         flags,
		Recorder:      recorder,
		Auditor:       auditLog,
	}, workflow.Options{
		InviteLink: cfg.ChannelInviteLink,
		Payment: workflow.PaymentInfo{
			Amount:   cfg.PaymentAmount,
			Currency: cfg.PaymentCurrency,
			Card:     cfg.PaymentCardNumber,
			Pitch:    cfg.ConsultationMessage,
		},
		BroadcastConcurrency: cfg.BroadcastConcurrency,
		SendTimeout:          cfg.SendTimeout,
	})

	// Register all handlers
	h = handler.New(handler.Deps{Bot: b, Engine: engine})
	h.Register()

	// Housekeeping
	sched := scheduler.New()
	if err := sched.EvictSessions(cfg.SessionSweepSpec, engine.Sessions(), cfg.SessionIdleTimeout); err != nil {
		slog.Error("failed to schedule session eviction", "error", err)
		os.Exit(1)
	}
	if err := sched.CleanupRateLimits(ctx, rateLimitService, config.RateLimitCleanup); err != nil {
		slog.Error("failed to schedule rate limit cleanup", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return metrics.Serve(gctx, metrics.ServerOpts{
			Port:     cfg.Port,
			Gatherer: registry,
			Health:   pool.Ping,
		})
	})
	g.Go(func() error {
		slog.Info("starting bot", "username", me.Username, "id", me.ID)
		b.Start(gctx)
		return nil
	})

	err = g.Wait()
	slog.Info("waiting for background work")
	engine.Wait()
	if err != nil {
		slog.Error("shutdown with error", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown
	slog.Info("bot stopped gracefully")
}

type reporterFunc func(ctx context.Context, err error, where string)

func (f reporterFunc) LogError(ctx context.Context, err error, where string) {
	f(ctx, err, where)
}
