package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/infra/httpclient"
	"github.com/hextract/parking-net/internal/infra/httprunner"
	"github.com/hextract/parking-net/internal/ports"
	"github.com/hextract/parking-net/internal/twin"
)

type fakeEnvLoader struct {
	env domain.Environment
	err error
}

func (f fakeEnvLoader) LoadEnvironment(_ string) (domain.Environment, error) {
	return f.env, f.err
}

type lines struct {
	info, warn, err []string
}

func (l *lines) Infof(format string, args ...any)  { l.info = append(l.info, fmt.Sprintf(format, args...)) }
func (l *lines) Warnf(format string, args ...any)  { l.warn = append(l.warn, fmt.Sprintf(format, args...)) }
func (l *lines) Errorf(format string, args ...any) { l.err = append(l.err, fmt.Sprintf(format, args...)) }

type countingObserver struct {
	probes, started, finished int
}

func (o *countingObserver) ProbeFinished(domain.ProbeResult)         { o.probes++ }
func (o *countingObserver) StepStarted(string, int, int)             { o.started++ }
func (o *countingObserver) StepFinished(domain.StepResult, int, int) { o.finished++ }

type twinAdmin struct{ srv *twin.Server }

func (a twinAdmin) EnsureUser(_ context.Context, actor domain.Actor, _ string) (ports.ProvisionedUser, error) {
	return ports.ProvisionedUser{ID: a.srv.AddUser(actor.Login, actor.Email, actor.Password, "admin")}, nil
}

func transport() ports.Transport {
	return httprunner.New(httpclient.NewExecutor(httpclient.WithTimeout(2 * time.Second)))
}

func configFor(baseURL string) domain.Config {
	cfg := domain.DefaultConfig()
	cfg.Services.Auth.BaseURL = "{{gateway}}"
	cfg.Services.Parking.BaseURL = "{{gateway}}"
	cfg.Services.Booking.BaseURL = baseURL
	cfg.Services.Payment.BaseURL = baseURL
	cfg.IdentityAdmin.Enabled = true
	cfg.IdentityAdmin.Username = "admin"
	cfg.IdentityAdmin.Password = "{{kc_password}}"
	return cfg
}

func envWith(baseURL string) fakeEnvLoader {
	return fakeEnvLoader{env: domain.Environment{Name: "local", Vars: domain.Vars{
		"gateway":     baseURL,
		"kc_password": "secret",
	}}}
}

func TestRunScenario_FullRunAgainstTwin(t *testing.T) {
	tw := twin.New()
	srv := httptest.NewServer(tw.Handler())
	defer srv.Close()

	var gotAdminCfg domain.IdentityAdminConfig
	obs := &countingObserver{}
	rep := &lines{}
	uc := NewRunScenario(envWith(srv.URL), transport(),
		WithReporter(rep),
		WithObserver(obs),
		WithIdentityAdminFactory(func(cfg domain.IdentityAdminConfig) ports.IdentityAdmin {
			gotAdminCfg = cfg
			return twinAdmin{srv: tw}
		}),
	)

	sum, err := uc.Execute(context.Background(), RunRequest{Config: configFor(srv.URL), Environment: "local"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Aborted {
		t.Fatalf("run aborted: %+v", sum.Probes)
	}
	if !sum.OK() || sum.Tally.Skipped != 0 {
		t.Fatalf("expected a clean run, got %s; errors: %v", sum.Tally, rep.err)
	}
	if sum.ID == "" || sum.EndedAt.Before(sum.StartedAt) {
		t.Fatalf("bad summary metadata: %+v", sum)
	}
	if gotAdminCfg.Password != "secret" {
		t.Fatalf("identity admin password not resolved: %q", gotAdminCfg.Password)
	}
	if obs.probes != 4 || obs.started != len(sum.Steps) || obs.finished != len(sum.Steps) {
		t.Fatalf("observer saw probes=%d started=%d finished=%d for %d steps", obs.probes, obs.started, obs.finished, len(sum.Steps))
	}
}

func TestRunScenario_OnlyRunsSelectionWithProducers(t *testing.T) {
	srv := httptest.NewServer(twin.New().Handler())
	defer srv.Close()

	uc := NewRunScenario(envWith(srv.URL), transport())
	sum, err := uc.Execute(context.Background(), RunRequest{
		Config:      configFor(srv.URL),
		Environment: "local",
		Only:        []string{"get_parking_by_id"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	for _, s := range sum.Steps {
		names = append(names, s.Name)
	}
	want := "register_owner,register_driver,login_owner,login_driver,create_parking,get_parking_by_id"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("steps = %s, want %s", got, want)
	}
	if sum.Tally.Passed != len(names) {
		t.Fatalf("expected all passed, got %s", sum.Tally)
	}
}

func TestRunScenario_ProbeFailureAborts(t *testing.T) {
	srv := httptest.NewServer(nil)
	deadURL := srv.URL
	srv.Close()

	obs := &countingObserver{}
	rep := &lines{}
	uc := NewRunScenario(nil, transport(), WithReporter(rep), WithObserver(obs))

	cfg := domain.DefaultConfig()
	for _, s := range []*domain.ServiceConfig{&cfg.Services.Auth, &cfg.Services.Parking, &cfg.Services.Booking, &cfg.Services.Payment} {
		s.BaseURL = deadURL
	}
	sum, err := uc.Execute(context.Background(), RunRequest{Config: cfg})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.Aborted {
		t.Fatal("expected aborted run")
	}
	if sum.Tally != (domain.Tally{Failed: 1}) {
		t.Fatalf("expected exactly one failure, got %s", sum.Tally)
	}
	if len(sum.Steps) != 0 || obs.started != 0 {
		t.Fatalf("no step should run, got %d", len(sum.Steps))
	}
	if len(Down(sum.Probes)) != 4 {
		t.Fatalf("expected 4 down probes, got %+v", sum.Probes)
	}
	last := rep.err[len(rep.err)-1]
	if !strings.Contains(last, StartHint) {
		t.Fatalf("expected remediation hint, got %q", last)
	}
}

func TestRunScenario_ConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		uc   *RunScenario
		req  RunRequest
		kind domain.ErrorKind
	}{
		{
			name: "unknown step",
			uc:   NewRunScenario(nil, transport()),
			req:  RunRequest{Config: domain.DefaultConfig(), Only: []string{"nope"}},
			kind: domain.KindNotFound,
		},
		{
			name: "missing variable",
			uc:   NewRunScenario(nil, transport()),
			req:  RunRequest{Config: configFor("http://localhost:1")},
			kind: domain.KindMissingVar,
		},
		{
			name: "environment not found",
			uc: NewRunScenario(fakeEnvLoader{err: &domain.OpError{
				Op: "yamlenv.load", Kind: domain.KindNotFound, Err: domain.ErrNotFound,
			}}, transport()),
			req:  RunRequest{Config: domain.DefaultConfig(), Environment: "staging"},
			kind: domain.KindNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.uc.Execute(context.Background(), tc.req)
			if err == nil {
				t.Fatal("expected error")
			}
			if !domain.IsKind(err, tc.kind) {
				t.Fatalf("expected kind %s, got %v", tc.kind, err)
			}
		})
	}
}

func TestValidatePlan(t *testing.T) {
	names, err := NewValidatePlan(envWith("http://localhost:8080")).
		Execute(context.Background(), configFor("http://localhost:8080"), "local", []string{"driver_balance"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(names, ","); got != "register_driver,login_driver,driver_balance" {
		t.Fatalf("unexpected selection %s", got)
	}

	bad := domain.DefaultConfig()
	bad.Services.Booking.BaseURL = "localhost:8080"
	bad.Services.Payment.ProbePath = "metrics"
	bad.IdentityAdmin.Enabled = true
	bad.Actors.Admin.Password = ""

	_, err = NewValidatePlan(nil).Execute(context.Background(), bad, "", nil)
	if !domain.IsKind(err, domain.KindInvalidConfig) || !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
	for _, want := range []string{
		"services.booking.base_url",
		"services.payment.probe_path",
		"identity_admin.username",
		"actors.admin",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestValidatePlan_HonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewValidatePlan(nil).Execute(ctx, domain.DefaultConfig(), "", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type fakeInitializer struct {
	spec  domain.WorkspaceSpec
	force bool
}

func (f *fakeInitializer) Init(spec domain.WorkspaceSpec, force bool) error {
	f.spec, f.force = spec, force
	return nil
}

func TestInitWorkspace(t *testing.T) {
	fi := &fakeInitializer{}
	if err := NewInitWorkspace(fi).Execute("/tmp/ws", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fi.spec.Root != "/tmp/ws" || !fi.force {
		t.Fatalf("unexpected call: %+v force=%v", fi.spec, fi.force)
	}
}

func TestRunScenario_ProbeOnly(t *testing.T) {
	srv := httptest.NewServer(twin.New().Handler())
	defer srv.Close()

	rep := &lines{}
	obs := &countingObserver{}
	uc := NewRunScenario(envWith(srv.URL), transport(), WithReporter(rep), WithObserver(obs))

	probes, err := uc.Probe(context.Background(), RunRequest{Config: configFor(srv.URL), Environment: "local"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(probes) != 4 || len(Down(probes)) != 0 {
		t.Fatalf("expected 4 live probes, got %+v", probes)
	}
	if obs.probes != 4 || obs.started != 0 {
		t.Fatalf("expected probes only, got %+v", obs)
	}
	if got := rep.info[len(rep.info)-1]; got != "All services are available" {
		t.Fatalf("unexpected last line %q", got)
	}
}

type cancelAfterFirst struct {
	countingObserver
	cancel context.CancelFunc
}

func (o *cancelAfterFirst) StepFinished(res domain.StepResult, i, total int) {
	o.countingObserver.StepFinished(res, i, total)
	if i == 0 {
		o.cancel()
	}
}

func TestRunScenario_InterruptedRunIsNotOK(t *testing.T) {
	srv := httptest.NewServer(twin.New().Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	uc := NewRunScenario(envWith(srv.URL), transport(), WithObserver(&cancelAfterFirst{cancel: cancel}))
	sum, err := uc.Execute(ctx, RunRequest{Config: configFor(srv.URL), Environment: "local"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Tally.Passed != 1 || sum.Tally.Failed != 0 || sum.Tally.Skipped != len(sum.Steps)-1 {
		t.Fatalf("unexpected tally %s", sum.Tally)
	}
	if !sum.Canceled {
		t.Fatalf("expected the summary to be marked canceled")
	}
	if sum.OK() {
		t.Fatalf("an interrupted run must not be OK")
	}
}
