package main

import (
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/devansh-07/Sure-Shop/internal/checkout"
	"github.com/devansh-07/Sure-Shop/internal/config"
	"github.com/devansh-07/Sure-Shop/internal/database"
	"github.com/devansh-07/Sure-Shop/internal/notify"
	"github.com/devansh-07/Sure-Shop/internal/server"
	"github.com/devansh-07/Sure-Shop/internal/webhook"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close()

	logger.Info().Msg("connected to database")

	var sender notify.Sender
	if cfg.SMTP.Enabled() {
		sender = notify.NewSMTPSender(cfg.SMTP)
	} else {
		sender = notify.NewLogSender(logger)
	}

	broker := checkout.NewBroker(cfg.Payment)
	reconciler := webhook.NewReconciler(cfg.Payment.WebhookSecret, webhook.NewDBStore(db), sender, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.New(db, broker, reconciler, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info().Str("port", cfg.Server.Port).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
