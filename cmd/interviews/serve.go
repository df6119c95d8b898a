package main

import (
	"context"
	"log/slog"

	"github.com/MikeSquared-Agency/interviews/internal/api"
	"github.com/MikeSquared-Agency/interviews/internal/config"
	"github.com/MikeSquared-Agency/interviews/internal/publisher"
	slackalert "github.com/MikeSquared-Agency/interviews/internal/slack"
	"github.com/MikeSquared-Agency/interviews/internal/webhook"

	"github.com/spf13/cobra"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook and dashboard HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *cfg)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	slog.Info("interviews starting",
		"port", cfg.Port,
		"nats_enabled", cfg.NatsURL != "",
		"max_body_bytes", cfg.MaxBodyBytes,
	)
	if cfg.WebhookSecret == "" {
		slog.Warn("RETELL_WEBHOOK_SECRET is not set, every webhook delivery will be rejected")
	}

	// Step 1: Connect to the database.
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	handler := webhook.NewHandler(db)

	// Step 2: Optional NATS notifications.
	if cfg.NatsURL != "" {
		pub, err := publisher.New(ctx, cfg.NatsURL)
		if err != nil {
			return err
		}
		defer pub.Close()
		handler.SetPublisher(pub.Publish)
		slog.Info("NATS publisher enabled", "subject", webhook.SubjectInterviewStored)
	}

	// Step 3: Optional Slack alerts on storage failures.
	if cfg.SlackBotToken != "" && cfg.SlackAlertChannel != "" {
		handler.SetAlerter(slackalert.NewAlerter(cfg.SlackBotToken, cfg.SlackAlertChannel))
		slog.Info("Slack storage alerter enabled", "channel", cfg.SlackAlertChannel)
	}

	// Step 4: Start the HTTP API.
	srv := api.NewServer(db, handler, api.Options{
		Port:          cfg.Port,
		WebhookSecret: cfg.WebhookSecret,
		MaxBodyBytes:  cfg.MaxBodyBytes,
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	slog.Info("interviews ready", "port", cfg.Port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "error", err)
	}
	handler.Wait()
	slog.Info("interviews stopped")
	return nil
}
