package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lead-intake/internal/common/aws"
	"lead-intake/internal/common/brevo"
	"lead-intake/internal/common/config"
	"lead-intake/internal/common/database"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/observability"
	"lead-intake/internal/common/templates"
	"lead-intake/internal/diagnostics"
	"lead-intake/internal/models"
	"lead-intake/internal/notify"
	"lead-intake/internal/server"

	"go.uber.org/zap"
)

// failureStore is what both the dispatcher and the diagnostics routes need
// from the delivery-failure log.
type failureStore interface {
	notify.FailureRecorder
	diagnostics.FailureReader
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("failed to load config", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting lead intake server",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
		zap.String("emailProvider", cfg.Email.Provider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---
	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, log)
	defer obs.Shutdown()

	// --- CRM ---
	crm := brevo.NewClient(brevo.Options{
		APIKey:  cfg.Brevo.APIKey,
		BaseURL: cfg.Brevo.BaseURL,
		Timeout: config.GetDuration(cfg.Brevo.Timeout),
	})
	if !crm.Configured() {
		zapLog.Warn("BREVO_API_KEY is not set; form submissions will be rejected until it is")
	}

	// --- Email transport ---
	renderer, err := templates.New(cfg.Email.Location())
	if err != nil {
		zapLog.Fatal("failed to parse email templates", zap.Error(err))
	}

	var sender notify.EmailSender = crm
	var sms notify.SMSSender
	if cfg.Email.Provider == config.ProviderSES || cfg.Notifications.SMS.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, cfg.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to load AWS config", zap.Error(err))
		}
		if cfg.Email.Provider == config.ProviderSES {
			sender = aws.NewSESSender(awsCfg)
		}
		if cfg.Notifications.SMS.Enabled {
			sms = aws.NewSMSAlerter(awsCfg, cfg.Notifications.SMS.OperatorPhone)
		}
	}

	// --- Delivery failure log ---
	readiness := map[string]server.Pinger{}
	var failures failureStore
	switch cfg.Notifications.FailureStore.Backend {
	case config.FailureStoreRedis:
		redis := database.NewRedis(cfg.Database.Redis)
		if err := retryWithBackoff(func() error { return redis.Ping(ctx) }, 10, 2*time.Second, zapLog, "Redis connection"); err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		readiness["redis"] = redis
		failures = notify.NewRedisFailureStore(redis, cfg.Notifications.FailureStore.ListKey, cfg.Notifications.FailureStore.MaxLength)
		zapLog.Info("Redis connected successfully")

	case config.FailureStorePostgres:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			zapLog.Fatal("failed to open postgres", zap.Error(err))
		}
		if err := retryWithBackoff(func() error { return pg.Ping(ctx) }, 15, 2*time.Second, zapLog, "PostgreSQL connection"); err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		store := notify.NewPostgresFailureStore(pg)
		if err := store.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("failed to create delivery_failures table", zap.Error(err))
		}
		readiness["postgres"] = pg
		failures = store
		zapLog.Info("PostgreSQL connected successfully")
	}

	dispatcher := notify.NewDispatcher(sender, renderer, models.Address{
		Email: cfg.Email.SenderEmail,
		Name:  cfg.Email.SenderName,
	})

	deps := server.Dependencies{
		CRM:      crm,
		Notifier: notify.NewFireAndForget(dispatcher, sms, failures, log),
		Diagnostics: diagnostics.HandlerOptions{
			Lists:    crm,
			Mailer:   dispatcher,
			Failures: failures,
		},
		Observability: obs,
		Readiness:     readiness,
		Logger:        log,
	}

	srv, err := server.New(cfg, deps)
	if err != nil {
		zapLog.Fatal("failed to build server", zap.Error(err))
	}

	if err := srv.Run(ctx); err != nil {
		zapLog.Error("HTTP server stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("Lead intake server stopped gracefully")
}

// retryWithBackoff retries fn with exponential backoff, capped at 30s.
func retryWithBackoff(fn func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operation string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = fn()
		if err == nil {
			if i > 0 {
				log.Info("operation succeeded after retries",
					zap.String("operation", operation),
					zap.Int("attempts", i+1),
				)
			}
			return nil
		}

		if i < maxRetries-1 {
			log.Warn("operation failed, retrying",
				zap.String("operation", operation),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("retryIn", delay),
				zap.Error(err),
			)
			time.Sleep(delay)
			delay *= 2
			if delay > 30*time.Second {
				delay = 30 * time.Second
			}
		}
	}

	return err
}
