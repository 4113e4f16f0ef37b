package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/andyle182810/hyperion-go/hyperion"
	"github.com/andyle182810/hyperion-go/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var ErrUnknownOutput = errors.New("hyperionctl: unknown output format")

type app struct {
	cfg    config.Config
	logger zerolog.Logger
	out    io.Writer
	output string
	client *hyperion.Client
}

func newRootCmd(cfg *config.Config, logger zerolog.Logger, out io.Writer) *cobra.Command {
	a := &app{
		cfg:    *cfg,
		logger: logger,
		out:    out,
		output: outputJSON,
		client: nil,
	}

	rootCmd := &cobra.Command{
		Use:   "hyperionctl",
		Short: "Operate a Hyperion deployment through its HTTP API",
		Long: `hyperionctl talks to the Hyperion operational API to inspect monitoring
data and health, request autoscaling decisions and plan or apply deployments.

Settings are read from HYPERION_* environment variables (or a .env file) and
can be overridden with flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.connect,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfg.BaseURL, "base-url", cfg.BaseURL, "Hyperion API base URL")
	flags.StringVar(&a.cfg.APIKey, "api-key", cfg.APIKey, "API key sent as X-API-Key")
	flags.DurationVar(&a.cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout")
	flags.Float64Var(&a.cfg.RateLimit, "rate-limit", cfg.RateLimit, "Maximum requests per second (0 disables)")
	flags.IntVar(&a.cfg.RateBurst, "rate-burst", cfg.RateBurst, "Requests allowed at once before --rate-limit applies")
	flags.StringVarP(&a.output, "output", "o", outputJSON, "Output format (json, table)")

	rootCmd.AddCommand(
		a.newMonitorCmd(),
		a.newHealthCmd(),
		a.newAutoscaleCmd(),
		a.newDeployCmd(),
	)

	return rootCmd
}

func (a *app) connect(_ *cobra.Command, _ []string) error {
	if a.output != outputJSON && a.output != outputTable {
		return fmt.Errorf("%w: %q", ErrUnknownOutput, a.output)
	}

	client, err := hyperion.New(a.cfg.Hyperion(), hyperion.WithLogger(a.logger))
	if err != nil {
		return err
	}

	a.client = client

	return nil
}

func (a *app) print(result hyperion.Result) error {
	return render(a.out, a.output, result)
}
