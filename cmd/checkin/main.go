package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/checkin/internal/cli"
	"github.com/JonMunkholm/checkin/internal/logging"
)

func main() {
	// A missing .env is fine; flags and the environment still apply.
	_ = godotenv.Load()

	// Logs go to stderr so stdout stays parseable with --format json|yaml.
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	slog.SetDefault(logging.New(os.Stderr, level, "text"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
