// Command hyperionctl is an operator CLI for the Hyperion operational API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andyle182810/hyperion-go/hyperion"
	"github.com/andyle182810/hyperion-go/internal/config"
	"github.com/andyle182810/hyperion-go/logutil"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		withErrorFields(log.Fatal(), err).Msg("The command has failed")
	}
}

// withErrorFields adds err and, for a *hyperion.RemoteError, every field it
// carries.
func withErrorFields(event *zerolog.Event, err error) *zerolog.Event {
	event = event.Err(err)

	remoteErr, ok := hyperion.AsRemoteError(err)
	if !ok {
		return event
	}

	return event.
		Stringer("kind", remoteErr.Kind).
		Str("method", remoteErr.Method).
		Str("path", remoteErr.Path).
		Str("address", remoteErr.Address).
		Int("status", remoteErr.StatusCode).
		Str("detail", remoteErr.Detail).
		Str("message", remoteErr.Message).
		Str("request_id", remoteErr.RequestID)
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.Logger = logutil.NewConsoleLogger(os.Stderr, cfg.LogLevel)
	zerolog.SetGlobalLevel(logutil.ParseZerologLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd(cfg, log.Logger, os.Stdout).ExecuteContext(ctx)
}
