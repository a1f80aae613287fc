package gate

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/qualitygate/internal/checker"
	"github.com/fyrsmithlabs/qualitygate/internal/logging"
	"github.com/fyrsmithlabs/qualitygate/internal/revision"
	"github.com/fyrsmithlabs/qualitygate/internal/venv"
)

const instrumentationName = "github.com/fyrsmithlabs/qualitygate/internal/gate"

// Invoker runs the checker inside an activated environment.
type Invoker interface {
	Run(ctx context.Context, env *venv.Environment) (checker.Status, error)
}

// Activator resolves the isolated environment name inside projectDir.
type Activator func(projectDir, name string) (*venv.Environment, error)

// Describer reports the revision of the tree at dir.
type Describer func(dir string) (revision.Info, error)

// Telemetry supplies tracers and meters; *telemetry.Telemetry satisfies it.
type Telemetry interface {
	Tracer(name string, opts ...trace.TracerOption) trace.Tracer
	Meter(name string, opts ...metric.MeterOption) metric.Meter
}

// Config names the project and environment a Runner checks.
type Config struct {
	ProjectDir string
	EnvName    string
}

// Runner performs one gate run: activate, invoke, decide.
type Runner struct {
	config   Config
	activate Activator
	describe Describer
	invoker  Invoker
	logger   *logging.Logger
	tracer   trace.Tracer

	runs            metric.Int64Counter
	checkerDuration metric.Float64Histogram

	now func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. Without it, Run uses logging.FromContext.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithTelemetry sets the tracer and meter source. Defaults to no-op.
func WithTelemetry(t Telemetry) Option {
	return func(r *Runner) {
		r.tracer = t.Tracer(instrumentationName)
		r.initInstruments(t.Meter(instrumentationName))
	}
}

// WithActivator replaces venv.Activate.
func WithActivator(a Activator) Option {
	return func(r *Runner) { r.activate = a }
}

// WithDescriber replaces revision.Describe.
func WithDescriber(d Describer) Option {
	return func(r *Runner) { r.describe = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a Runner for cfg that invokes the checker through inv.
func NewRunner(cfg Config, inv Invoker, opts ...Option) *Runner {
	r := &Runner{
		config:   cfg,
		activate: venv.Activate,
		describe: revision.Describe,
		invoker:  inv,
		tracer:   tracenoop.NewTracerProvider().Tracer(instrumentationName),
		now:      time.Now,
	}
	r.initInstruments(metricnoop.NewMeterProvider().Meter(instrumentationName))
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) initInstruments(m metric.Meter) {
	// Instrument errors only occur for invalid names; fall back to no-op.
	noop := metricnoop.NewMeterProvider().Meter(instrumentationName)

	runs, err := m.Int64Counter("qualitygate.runs",
		metric.WithDescription("Gate runs by decision"))
	if err != nil {
		runs, _ = noop.Int64Counter("qualitygate.runs")
	}
	r.runs = runs

	dur, err := m.Float64Histogram("qualitygate.checker.duration",
		metric.WithDescription("Wall time of the checker process"),
		metric.WithUnit("s"))
	if err != nil {
		dur, _ = noop.Float64Histogram("qualitygate.checker.duration")
	}
	r.checkerDuration = dur
}

// Run performs the gate and returns its single Result. It never panics on
// setup failures and never returns without a decision.
func (r *Runner) Run(ctx context.Context) Result {
	log := r.logger
	if log == nil {
		log = logging.FromContext(ctx)
	}
	log = log.Named("gate")

	started := r.now()
	res := Result{
		RunID:   logging.RunIDFromContext(ctx),
		Started: started,
	}

	ctx, span := r.tracer.Start(ctx, "gate.run", trace.WithAttributes(
		attribute.String("project.dir", r.config.ProjectDir),
		attribute.String("project.env", r.config.EnvName),
	))
	defer span.End()

	res.Revision = r.revision(ctx, log)
	if res.Revision.Commit != "" {
		span.SetAttributes(
			attribute.String("vcs.commit", res.Revision.Commit),
			attribute.String("vcs.branch", res.Revision.Branch),
		)
	}
	log.Info(ctx, "gate run started",
		zap.String("project_dir", r.config.ProjectDir),
		zap.String("env", r.config.EnvName),
		zap.String("commit", res.Revision.Short()),
		zap.String("branch", res.Revision.Branch))

	env, err := r.activateEnv(ctx, log)
	if err != nil {
		// No checker was launched, so there is nothing to decide on.
		res.Err = err
		res.Decision = Fail
	} else {
		decider := NewDecider()
		status, invokeErr := r.invoke(ctx, log, env)
		if invokeErr == nil {
			res.Status = &status
		}
		res.Err = invokeErr
		res.Decision = r.decide(ctx, decider, status, invokeErr)
	}
	if res.Err != nil {
		span.RecordError(res.Err)
	}

	res.Duration = r.now().Sub(started)

	if res.Decision == Pass {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, string(res.Decision))
	}
	span.SetAttributes(
		attribute.String("gate.decision", string(res.Decision)),
		attribute.Int("gate.exit_code", res.ExitCode()),
	)
	r.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("decision", string(res.Decision)),
		attribute.Bool("setup_failure", res.SetupFailed()),
	))

	log.Info(ctx, "gate decided",
		zap.String("decision", string(res.Decision)),
		zap.Int("exit_code", res.ExitCode()),
		zap.Duration("duration", res.Duration))

	return res
}

func (r *Runner) revision(ctx context.Context, log *logging.Logger) revision.Info {
	info, err := r.describe(r.config.ProjectDir)
	if err != nil {
		log.Warn(ctx, "could not describe revision", zap.Error(err))
		return revision.Info{}
	}
	return info
}

func (r *Runner) activateEnv(ctx context.Context, log *logging.Logger) (*venv.Environment, error) {
	ctx = logging.WithPhase(ctx, "activate")
	ctx, span := r.tracer.Start(ctx, "gate.activate")
	defer span.End()

	env, err := r.activate(r.config.ProjectDir, r.config.EnvName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "environment missing")
		log.Error(ctx, "isolated environment unavailable",
			zap.Error(err),
			zap.Bool("environment_missing", errors.Is(err, venv.ErrEnvironmentMissing)))
		return nil, err
	}

	span.SetAttributes(attribute.String("venv.root", env.Root))
	log.Debug(ctx, "environment activated",
		zap.String("root", env.Root),
		zap.String("bin", env.BinDir))
	if log.Enabled(logging.TraceLevel) {
		// The overlay alone: Environ of an empty base.
		log.Trace(ctx, "checker environment overlay", zap.Strings("environ", env.Environ(nil)))
	}
	return env, nil
}

func (r *Runner) invoke(ctx context.Context, log *logging.Logger, env *venv.Environment) (checker.Status, error) {
	ctx = logging.WithPhase(ctx, "invoke")
	ctx, span := r.tracer.Start(ctx, "gate.invoke")
	defer span.End()

	log.Info(ctx, "checker started", zap.String("dir", env.ProjectDir))
	start := r.now()
	status, err := r.invoker.Run(ctx, env)
	elapsed := r.now().Sub(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "checker unavailable")
		log.Error(ctx, "checker could not run",
			zap.Error(err),
			zap.Bool("tool_unavailable", errors.Is(err, checker.ErrToolUnavailable)))
		return checker.Status{}, err
	}

	r.checkerDuration.Record(ctx, elapsed.Seconds())
	span.SetAttributes(
		attribute.Int("checker.exit_status", status.Code),
		attribute.Bool("checker.signaled", status.Signaled),
	)
	log.Info(ctx, "checker finished",
		zap.Int("exit_status", status.Code),
		zap.Bool("signaled", status.Signaled),
		zap.Duration("elapsed", elapsed))
	return status, nil
}

// decide settles d from the checker outcome: a launch failure is Fail,
// otherwise the status decides.
func (r *Runner) decide(ctx context.Context, d *Decider, status checker.Status, launchErr error) Decision {
	ctx = logging.WithPhase(ctx, "decide")
	_, span := r.tracer.Start(ctx, "gate.decide")
	defer span.End()

	var decision Decision
	if launchErr != nil {
		decision, _ = d.Fail()
	} else {
		decision, _ = d.Decide(status)
	}
	span.SetAttributes(
		attribute.String("gate.decision", string(decision)),
		attribute.String("gate.state", d.State().String()),
	)
	return decision
}
