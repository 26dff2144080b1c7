// Package cmdutils holds the scaffolding shared by the cobra
// subcommands: config loading, logger and telemetry initialisation and
// the status server. Long-running commands use RunAsService, one-shot
// ceremony commands use RunAsJob.
package cmdutils

import (
	"context"
	"fmt"
	"log/slog"
	"syscall"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/health"
	"github.com/openkcm/common-sdk/pkg/logger"
	"github.com/openkcm/common-sdk/pkg/otlp"
	"github.com/openkcm/common-sdk/pkg/status"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	slogctx "github.com/veqryn/slog-context"

	"github.com/pawskey/ceremony-manager/internal/config"
)

const healthStatusTimeout = 5 * time.Second

// BusinessFunc is the entry point a subcommand hands over to once the
// surrounding infrastructure is up.
type BusinessFunc func(context.Context, *config.Config) error

// WrapperFunc decides which infrastructure a BusinessFunc runs inside.
type WrapperFunc func(context.Context, BusinessFunc, *config.Config) error

// CobraCommand builds a cobra command that loads the configuration and
// runs the business function through the given wrapper.
func CobraCommand(use, short, long, buildInfo string, wrapper WrapperFunc, business BusinessFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(buildInfo)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if err := wrapper(cmd.Context(), business, cfg); err != nil {
				return fmt.Errorf("running the command: %w", err)
			}

			return nil
		},
	}
}

type runOptions struct {
	telemetry    bool
	statusServer bool
}

// RunAsService runs fn with telemetry and the status server, for
// commands that stay up until the context is cancelled.
func RunAsService(ctx context.Context, fn BusinessFunc, cfg *config.Config) error {
	return run(ctx, runOptions{telemetry: true, statusServer: true}, fn, cfg)
}

// RunAsJob runs fn with the logger only. One-shot ceremonies exit too
// quickly for telemetry export or readiness checks to be useful.
func RunAsJob(ctx context.Context, fn BusinessFunc, cfg *config.Config) error {
	return run(ctx, runOptions{}, fn, cfg)
}

func run(ctx context.Context, opts runOptions, fn BusinessFunc, cfg *config.Config) error {
	if err := logger.InitAsDefault(cfg.Logger, cfg.Application); err != nil {
		return oops.In("main").
			Wrapf(err, "Failed to initialise the logger")
	}

	slogctx.Debug(ctx, "Starting the application", slog.Any("config", cfg))

	if opts.telemetry {
		if err := otlp.Init(ctx, &cfg.Application, &cfg.Telemetry, &cfg.Logger); err != nil {
			return oops.In("main").Wrapf(err, "Failed to load the telemetry")
		}
	}

	if opts.statusServer {
		go func() {
			if err := startStatusServer(ctx, cfg); err != nil {
				slogctx.Error(ctx, "Failure on the status server", "error", err)
				_ = syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
			}
		}()
	}

	if err := fn(ctx, cfg); err != nil {
		return oops.In("main").Wrapf(err, "Failed to start the main business application")
	}

	return nil
}

// LoadConfig reads the configuration from the well-known locations and
// stamps the build version into it.
func LoadConfig(buildInfo string) (*config.Config, error) {
	cfg := &config.Config{}

	err := commoncfg.LoadConfig(
		cfg,
		map[string]any{},
		"/etc/ceremony-manager",
		"$HOME/.ceremony-manager",
		".",
	)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	if err := commoncfg.UpdateConfigVersion(&cfg.BaseConfig, buildInfo); err != nil {
		return nil, fmt.Errorf("updating the version configuration: %w", err)
	}

	return cfg, nil
}

func startStatusServer(ctx context.Context, cfg *config.Config) error {
	liveness := status.WithLiveness(
		health.NewHandler(
			health.NewChecker(health.WithDisabledAutostart()),
		),
	)

	readiness := status.WithReadiness(
		health.NewHandler(
			health.NewChecker(
				health.WithDisabledAutostart(),
				health.WithTimeout(healthStatusTimeout),
				health.WithStatusListener(func(ctx context.Context, state health.State) {
					slogctx.Info(ctx, "readiness status changed", "status", state.Status)
				}),
			),
		),
	)

	if err := status.Start(ctx, &cfg.BaseConfig, liveness, readiness); err != nil {
		return fmt.Errorf("starting status server: %w", err)
	}

	return nil
}
