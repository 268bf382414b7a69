package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	env, err := loadEnv()
	if err != nil {
		slog.Error("Error loading config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: env.SlogLevel()}))
	slog.SetDefault(logger)

	sk, err := NewSentryKit(env.SentryDSN, "fin-buddy@"+version, logger)
	if err != nil {
		logger.Error("Error initializing Sentry", "error", err)
		os.Exit(1)
	}
	defer sk.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, env, logger)
	if err != nil {
		sk.CaptureFatal("app", "Error building the app", err)
		sk.Flush()
		os.Exit(1)
	}

	logger.Info("Started fin-buddy successfully", "symbols", env.Symbols(), "addr", env.HTTPAddr)
	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		sk.CaptureFatal("app", "fin-buddy stopped with an error", err)
		sk.Flush()
		os.Exit(1)
	}
	logger.Info("fin-buddy stopped")
}
