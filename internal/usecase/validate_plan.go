package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/ports"
)

type ValidatePlan struct {
	envs     ports.EnvironmentLoader
	resolver *domain.VarResolver
}

type ValidateOption func(*ValidatePlan)

func WithVarResolver(vr *domain.VarResolver) ValidateOption {
	return func(uc *ValidatePlan) {
		if vr != nil {
			uc.resolver = vr
		}
	}
}

func NewValidatePlan(envs ports.EnvironmentLoader, opts ...ValidateOption) *ValidatePlan {
	uc := &ValidatePlan{
		envs:     envs,
		resolver: domain.NewVarResolver(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute checks everything a run needs without performing any HTTP call:
// the step plan and selection, placeholder resolution, service addresses and
// identity admin settings. It returns the selected step names.
func (uc *ValidatePlan) Execute(ctx context.Context, cfg domain.Config, envName string, only []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plan, err := selectPlan(only)
	if err != nil {
		return nil, err
	}

	resolved, err := loadAndResolve(uc.envs, uc.resolver, cfg, envName)
	if err != nil {
		return nil, err
	}

	var problems []error
	for _, svc := range resolved.Services.All() {
		if err := checkBaseURL(svc.BaseURL); err != nil {
			problems = append(problems, fmt.Errorf("services.%s.base_url: %w", svc.Name, err))
		}
		if svc.ProbePath == "" || svc.ProbePath[0] != '/' {
			problems = append(problems, fmt.Errorf("services.%s.probe_path: must start with /", svc.Name))
		}
	}

	if ia := resolved.IdentityAdmin; ia.Enabled {
		if err := checkBaseURL(ia.URL); err != nil {
			problems = append(problems, fmt.Errorf("identity_admin.url: %w", err))
		}
		if ia.Realm == "" {
			problems = append(problems, errors.New("identity_admin.realm: required"))
		}
		if ia.Username == "" || ia.Password == "" {
			problems = append(problems, errors.New("identity_admin.username and identity_admin.password: required when enabled"))
		}
	}

	actors := []struct {
		role string
		cfg  domain.ActorConfig
	}{
		{"owner", resolved.Actors.Owner},
		{"driver", resolved.Actors.Driver},
		{"admin", resolved.Actors.Admin},
	}
	for _, a := range actors {
		if a.cfg.Login == "" || a.cfg.Password == "" {
			problems = append(problems, fmt.Errorf("actors.%s: login and password are required", a.role))
		}
	}

	if len(problems) > 0 {
		return nil, &domain.OpError{
			Op:   "config.validate",
			Kind: domain.KindInvalidConfig,
			Err:  errors.Join(append([]error{domain.ErrInvalidConfig}, problems...)...),
		}
	}
	return plan.Names(), nil
}

func checkBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
