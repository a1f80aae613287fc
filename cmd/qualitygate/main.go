// Qualitygate is the lint gate for the UNO backend.
//
// It activates the project's virtual environment, runs flake8 over the
// project tree, and exits 0 if flake8 reported nothing or 1 otherwise.
// A missing environment or checker also exits 1. The checker's own output
// is passed through untouched; gate logs go to stderr.
//
// The gate takes no arguments or flags. Defaults are built in and can be
// overridden through the environment. See internal/config for details.
//
// Usage:
//
//	# Run the gate from the repository root
//	qualitygate
//
//	# Point at a different project (operators and tests)
//	QUALITYGATE_PROJECT_DIR=/srv/uno_backend qualitygate
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/qualitygate/internal/checker"
	"github.com/fyrsmithlabs/qualitygate/internal/config"
	"github.com/fyrsmithlabs/qualitygate/internal/gate"
	"github.com/fyrsmithlabs/qualitygate/internal/logging"
	"github.com/fyrsmithlabs/qualitygate/internal/metrics"
	"github.com/fyrsmithlabs/qualitygate/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the root command and returns the process exit code.
// Usage and configuration errors exit 1, like a failed gate; so does any
// argument, including --help and --version.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	exitCode := 0
	cmd := newRootCmd(&exitCode)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return exitCode
}

func newRootCmd(exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "qualitygate",
		Short: "Run the lint gate against the project",
		Long: `qualitygate activates the project's isolated environment, runs the
static-analysis checker over the whole project tree, and exits 0 when the
checker passes or 1 when it reports violations or cannot run.`,
		// Every token, --help and --version included, reaches NoArgs.
		Args:               cobra.NoArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			*exitCode = res.ExitCode()
			return nil
		},
	}
}

// run wires configuration, logging and telemetry, then performs one gate run.
//
// Returns an error only when the gate could not be set up at all (invalid
// configuration or logger); every other failure is a Fail result.
func run(ctx context.Context, stdout, stderr io.Writer) (gate.Result, error) {
	cfg, err := config.Load()
	if err != nil {
		return gate.Result{}, err
	}

	telCfg := telemetry.NewDefaultConfig()
	telCfg.ServiceVersion = version
	if err := cfg.Section("telemetry", telCfg); err != nil {
		return gate.Result{}, err
	}
	tel, err := telemetry.New(ctx, telCfg)
	if err != nil {
		return gate.Result{}, err
	}
	defer func() {
		_ = tel.Shutdown(context.Background())
	}()

	logCfg := logging.NewDefaultConfig()
	if err := cfg.Section("logging", logCfg); err != nil {
		return gate.Result{}, err
	}
	logCfg.Output.Writer = stderr
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return gate.Result{}, fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx = logging.WithRunID(ctx, uuid.NewString())
	ctx = logging.WithLogger(ctx, logger)

	logger.Info(ctx, "qualitygate starting",
		zap.String("version", version),
		zap.String("commit", gitCommit),
		zap.String("built", buildDate),
		zap.Bool("telemetry", tel.IsEnabled()))
	if health := tel.Health(); health.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.Strings("reasons", health.Reasons))
	}

	inv := checker.New(cfg.Checker.Command, cfg.Checker.Target)
	inv.Stdout = stdout
	inv.Stderr = stderr

	runner := gate.NewRunner(
		gate.Config{ProjectDir: cfg.Project.Dir, EnvName: cfg.Project.Env},
		inv,
		gate.WithTelemetry(tel),
	)
	res := runner.Run(ctx)

	if path := cfg.Metrics.Textfile; path != "" {
		collector := metrics.NewCollector(cfg.Project.Dir)
		collector.Observe(res)
		if err := collector.WriteTextfile(path); err != nil {
			logger.Warn(ctx, "metrics textfile not written", zap.Error(err))
		}
	}

	return res, nil
}
