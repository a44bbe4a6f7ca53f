package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"labreserve/internal/config"
	"labreserve/internal/notification"
)

// mailer drains the reservation event queue and turns each event into an
// e-mail. Delivery is logged only; wiring an SMTP relay is left to the
// deployment.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.RabbitMQURL == "" {
		log.Fatal("RABBITMQ_URL is required for the mailer")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("service", "labreserve-mailer"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("mailer started", zap.String("queue", cfg.NotifyQueue))
	err = notification.Consume(ctx, cfg.RabbitMQURL, cfg.NotifyQueue, logger, sendMail(logger))
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("mailer stopped", zap.Error(err))
	}
	logger.Info("mailer stopped")
}

func sendMail(logger *zap.Logger) notification.Handler {
	return func(_ context.Context, ev notification.Event) error {
		if ev.RecipientEmail == "" {
			logger.Warn("event without recipient e-mail", zap.String("event_id", ev.ID))
			return nil
		}
		logger.Info("email sent",
			zap.String("to", ev.RecipientEmail),
			zap.String("subject", ev.Title()),
			zap.String("body", ev.Message()),
			zap.String("event_type", string(ev.Type)),
		)
		return nil
	}
}
