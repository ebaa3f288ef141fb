package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/ports"
	"github.com/hextract/parking-net/internal/proxy"
	"github.com/hextract/parking-net/internal/usecase/scenario"
	"github.com/hextract/parking-net/internal/usecase/steps"
)

// IdentityAdminFactory builds an identity admin client from resolved settings.
type IdentityAdminFactory func(cfg domain.IdentityAdminConfig) ports.IdentityAdmin

type RunScenario struct {
	envs      ports.EnvironmentLoader
	transport ports.Transport
	admin     IdentityAdminFactory
	reporter  ports.Reporter
	observer  ports.RunObserver
	resolver  *domain.VarResolver
	faker     *gofakeit.Faker
	log       *slog.Logger
	now       func() time.Time
}

type RunOption func(*RunScenario)

func WithIdentityAdminFactory(f IdentityAdminFactory) RunOption {
	return func(uc *RunScenario) { uc.admin = f }
}

func WithReporter(r ports.Reporter) RunOption {
	return func(uc *RunScenario) {
		if r != nil {
			uc.reporter = r
		}
	}
}

func WithObserver(o ports.RunObserver) RunOption {
	return func(uc *RunScenario) { uc.observer = o }
}

func WithResolver(vr *domain.VarResolver) RunOption {
	return func(uc *RunScenario) {
		if vr != nil {
			uc.resolver = vr
		}
	}
}

func WithFaker(f *gofakeit.Faker) RunOption {
	return func(uc *RunScenario) { uc.faker = f }
}

func WithLogger(l *slog.Logger) RunOption {
	return func(uc *RunScenario) {
		if l != nil {
			uc.log = l
		}
	}
}

// NewRunScenario wires the run. envs may be nil when no workspace exists.
func NewRunScenario(envs ports.EnvironmentLoader, transport ports.Transport, opts ...RunOption) *RunScenario {
	uc := &RunScenario{
		envs:      envs,
		transport: transport,
		reporter:  discardReporter{},
		resolver:  domain.NewVarResolver(),
		log:       slog.New(slog.DiscardHandler),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type RunRequest struct {
	Config      domain.Config
	Environment string
	// Only restricts the run to these steps and their producers.
	Only []string
}

// Execute probes the services and, when all are up, runs the selected plan.
// Configuration problems are returned as errors. An unavailable service is
// not an error: the summary comes back aborted with one failure counted.
func (uc *RunScenario) Execute(ctx context.Context, req RunRequest) (domain.RunSummary, error) {
	plan, err := selectPlan(req.Only)
	if err != nil {
		return domain.RunSummary{}, err
	}
	cfg, err := loadAndResolve(uc.envs, uc.resolver, req.Config, req.Environment)
	if err != nil {
		return domain.RunSummary{}, err
	}

	summary := domain.RunSummary{
		ID:          uuid.NewString(),
		Environment: req.Environment,
		StartedAt:   uc.now(),
	}
	log := uc.log.With("run_id", summary.ID)
	log.Info("run.start", "env", req.Environment, "steps", len(plan))

	summary.Probes = uc.probe(ctx, cfg.Services, log)
	if down := Down(summary.Probes); len(down) > 0 {
		summary.Aborted = true
		summary.Tally.Fail()
		summary.EndedAt = uc.now()
		log.Warn("run.aborted", "down", len(down))
		return summary, nil
	}

	state := newState(cfg.Actors)
	scopeOpts := []scenario.ScopeOption{
		scenario.WithReporter(uc.reporter),
		scenario.WithFaker(uc.faker),
	}
	if cfg.IdentityAdmin.Enabled && uc.admin != nil {
		scopeOpts = append(scopeOpts, scenario.WithIdentityAdmin(uc.admin(cfg.IdentityAdmin), cfg.IdentityAdmin.AdminGroup))
	}
	sc := scenario.NewScope(state, proxy.NewSet(cfg.Services, uc.transport), scopeOpts...)

	runner := scenario.NewRunner(scenario.WithObserver(uc.observer), scenario.WithLogger(log))
	summary.Steps = runner.Run(ctx, plan, sc)
	summary.Tally = state.Tally
	summary.Canceled = scenario.Canceled(summary.Steps)
	summary.EndedAt = uc.now()

	log.Info("run.finished",
		"passed", summary.Tally.Passed,
		"failed", summary.Tally.Failed,
		"skipped", summary.Tally.Skipped,
		"canceled", summary.Canceled,
		"duration_ms", summary.EndedAt.Sub(summary.StartedAt).Milliseconds(),
	)
	return summary, nil
}

// Probe resolves the configured services and checks that each answers,
// without running any step.
func (uc *RunScenario) Probe(ctx context.Context, req RunRequest) ([]domain.ProbeResult, error) {
	cfg, err := loadAndResolve(uc.envs, uc.resolver, req.Config, req.Environment)
	if err != nil {
		return nil, err
	}
	return uc.probe(ctx, cfg.Services, uc.log), nil
}

func (uc *RunScenario) probe(ctx context.Context, services domain.ServicesConfig, log *slog.Logger) []domain.ProbeResult {
	uc.reporter.Infof("Checking service availability...")
	probes := NewProbeServices(uc.transport, WithProbeObserver(uc.observer), WithProbeLogger(log)).Execute(ctx, services)

	down := Down(probes)
	for _, pr := range probes {
		if pr.Up {
			uc.reporter.Infof("Service %s is available at %s", pr.Service, pr.URL)
		}
	}
	for _, pr := range down {
		uc.reporter.Errorf("Service %s is not available at %s: %s", pr.Service, pr.URL, pr.Message)
	}
	if len(down) > 0 {
		uc.reporter.Errorf("Start the services with: %s", StartHint)
	} else {
		uc.reporter.Infof("All services are available")
	}
	return probes
}

// PlanNames lists the steps a run with only would execute, in order.
func PlanNames(only []string) ([]string, error) {
	plan, err := selectPlan(only)
	if err != nil {
		return nil, err
	}
	return plan.Names(), nil
}

// selectPlan validates the catalog and narrows it to only.
func selectPlan(only []string) (scenario.Plan, error) {
	plan := steps.Catalog()
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan.Select(only)
}

// loadAndResolve merges the environment file vars into the resolver and
// expands cfg. Without a loader or environment name no vars are available
// beyond the built-ins.
func loadAndResolve(envs ports.EnvironmentLoader, vr *domain.VarResolver, cfg domain.Config, envName string) (domain.Config, error) {
	vars := domain.Vars{}
	if envs != nil && envName != "" {
		env, err := envs.LoadEnvironment(envName)
		if err != nil {
			return domain.Config{}, err
		}
		vars = env.Vars
	}

	rt, err := vr.NewRuntime(vars)
	if err != nil {
		return domain.Config{}, err
	}
	return resolveConfig(cfg, rt)
}

type discardReporter struct{}

func (discardReporter) Infof(string, ...any)  {}
func (discardReporter) Warnf(string, ...any)  {}
func (discardReporter) Errorf(string, ...any) {}
