package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/api"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/documents"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/metrics"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/session"
	"google.golang.org/api/idtoken"
)

func main() {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
		os.Exit(1)
	}

	env, err := api.ParseEnvironment(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing environment: %s\n", err)
		os.Exit(1)
	}

	logger := createLogger(env)

	if err := run(ctx, cfg, env, logger); err != nil {
		logger.Error("Server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, env api.Environment, logger *slog.Logger) error {
	shutdownTracing, err := setupTracing(ctx, cfg.OtelEndpoint)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", slog.String("error", err.Error()))
		}
	}()

	awsCfg, err := loadAWSConfig(ctx, env)
	if err != nil {
		return err
	}

	db := createDB(awsCfg, cfg, env)

	hasher, err := createPasswordHasher(ctx, awsCfg, cfg, env)
	if err != nil {
		return fmt.Errorf("failed to create password hasher: %w", err)
	}

	documentStore, err := createDocumentStore(awsCfg, cfg, env)
	if err != nil {
		return err
	}

	sessions := session.NewRegistry(cfg.SessionTTL, documents.DeleteAbandoned(documentStore, logger))

	captchaCheck, err := createCaptchaValidator(ctx, awsCfg, cfg, logger, env)
	if err != nil {
		return fmt.Errorf("failed to create captcha validator: %w", err)
	}

	verifier, err := idtoken.NewValidator(ctx)
	if err != nil {
		return fmt.Errorf("failed to create google id token validator: %w", err)
	}

	a := api.NewAPI(
		db,
		logger,
		env,
		api.Config{
			FromAddress:    cfg.FromAddress,
			AllowedOrigins: cfg.AllowedOrigins,
			CookieDomain:   cfg.CookieDomain,
			AdminDomain:    cfg.AdminDomain,
			GoogleAudience: cfg.GoogleAudience,
			MaxUploadBytes: cfg.MaxUploadBytes,
		},
		sessions,
		documentStore,
		hasher,
		createEmailSender(awsCfg, logger, env),
		captchaCheck,
		verifier,
		metrics.New(sessions.Count),
	)

	return a.ListenAndServe(cfg.Host, cfg.Port)
}

func createLogger(env api.Environment) *slog.Logger {
	if env == api.LOCAL {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
