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
	"github.com/joho/godotenv"

	"github.com/dbuatti/danielebuatti-sub000/internal/app"
	"github.com/dbuatti/danielebuatti-sub000/internal/bookings"
	"github.com/dbuatti/danielebuatti-sub000/internal/giftcards"
	"github.com/dbuatti/danielebuatti-sub000/internal/observability"
	"github.com/dbuatti/danielebuatti-sub000/internal/platform/cache"
	"github.com/dbuatti/danielebuatti-sub000/internal/platform/db"
	"github.com/dbuatti/danielebuatti-sub000/internal/quotes"
	"github.com/dbuatti/danielebuatti-sub000/internal/render"
	"github.com/dbuatti/danielebuatti-sub000/internal/shared"
	"github.com/dbuatti/danielebuatti-sub000/internal/templates"
	"github.com/dbuatti/danielebuatti-sub000/internal/view"
	"github.com/dbuatti/danielebuatti-sub000/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	_ = godotenv.Load()

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
		logger.Warn("redis unavailable, document caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	engine, err := view.NewEngine()
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

	auditLogger := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)
	metrics := observability.NewMetrics()

	templateRepo := templates.NewRepository(pool)
	templateService := templates.NewService(templateRepo)
	templatesHandler := templates.NewHandler(templateService, logger)

	quoteRepo := quotes.NewRepository(pool)
	quoteService := quotes.NewService(quoteRepo, jobClient, templateService, auditLogger, logger, quotes.ServiceConfig{
		OwnerEmail:    cfg.OwnerEmail,
		PublicBaseURL: cfg.PublicBaseURL,
	})
	docRenderer := render.NewHTMLRenderer(engine)
	quotesHandler := quotes.NewHandler(quoteService, docRenderer, redisClient, cfg.DocumentCacheTTL, logger, metrics)

	giftCardRepo := giftcards.NewRepository(pool)
	giftCardService := giftcards.NewService(giftCardRepo, idempotency, auditLogger, jobClient, logger, cfg.OwnerEmail)
	giftCardsHandler := giftcards.NewHandler(giftCardService, cfg.StripeWebhookSecret, logger, metrics)

	bookingRepo := bookings.NewRepository(pool)
	bookingsHandler := bookings.NewHandler(bookingRepo, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		QuotesHandler:    quotesHandler,
		GiftCardsHandler: giftCardsHandler,
		BookingsHandler:  bookingsHandler,
		TemplatesHandler: templatesHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
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
