// Package main is the entry point for the contact-form relay. It runs
// under the AWS Lambda runtime unless an HTTP listen address is set.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"github.com/shineum/contact-form-relay/internal/config"
	"github.com/shineum/contact-form-relay/internal/handler"
	"github.com/shineum/contact-form-relay/internal/origin"
	"github.com/shineum/contact-form-relay/internal/provider"
	"github.com/shineum/contact-form-relay/internal/provider/ses"
	"github.com/shineum/contact-form-relay/internal/provider/stdout"
	"github.com/shineum/contact-form-relay/internal/transport/apigw"
	"github.com/shineum/contact-form-relay/internal/transport/httpserver"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level)

	// Select email delivery provider
	prov, err := selectProvider(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to create provider", "error", err)
		os.Exit(1)
	}

	allow := origin.NewAllowList(cfg.Origins)
	h := handler.New(handler.Config{
		AllowList: allow,
		Provider:  prov,
		Timeout:   cfg.Delivery.Timeout,
	})

	slog.Info("starting contact-form relay",
		"provider", prov.Name(),
		"origins", allow.Origins(),
		"delivery_timeout", cfg.Delivery.Timeout,
		"local", cfg.LocalMode(),
	)

	if !cfg.LocalMode() {
		lambda.Start(apigw.New(h).Handle)
		return
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	server := httpserver.New(httpserver.ServerConfig{
		ListenAddr: cfg.HTTP.Listen,
		Handler:    h,
	})
	if err := server.ListenAndServe(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("contact-form relay stopped")
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(logHandler))
}

// selectProvider chooses the email delivery backend. An explicit
// provider wins; otherwise SES is used when a region is known and stdout
// when it is not.
func selectProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case "stdout":
		slog.Info("using stdout provider")
		return stdout.New(), nil

	case "ses":
		if !cfg.SESConfigured() {
			return nil, errors.New("SES provider selected but SES_REGION (or AWS_REGION) is required")
		}
		return newSES(ctx, cfg)

	default:
		if cfg.SESConfigured() {
			return newSES(ctx, cfg)
		}
		slog.Info("no SES region configured, using stdout provider")
		return stdout.New(), nil
	}
}

func newSES(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	slog.Info("using AWS SES provider",
		"region", cfg.SES.Region,
		"default_sender", cfg.SES.Sender,
	)
	p, err := ses.New(ctx, ses.SESProviderConfig{
		Region:          cfg.SES.Region,
		AccessKeyID:     cfg.SES.AccessKeyID,
		SecretAccessKey: cfg.SES.SecretAccessKey,
		Sender:          cfg.SES.Sender,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
