package usecase

import (
	"errors"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/ports"
)

// resolveConfig expands {{var}} placeholders in every templated string of
// cfg. All problems are reported together.
func resolveConfig(cfg domain.Config, rt *domain.RuntimeResolver) (domain.Config, error) {
	var errs []error
	resolve := func(field string, s *string) {
		out, err := rt.ResolveField(field, *s)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*s = out
	}

	resolve("services.auth.base_url", &cfg.Services.Auth.BaseURL)
	resolve("services.parking.base_url", &cfg.Services.Parking.BaseURL)
	resolve("services.booking.base_url", &cfg.Services.Booking.BaseURL)
	resolve("services.payment.base_url", &cfg.Services.Payment.BaseURL)

	resolve("identity_admin.url", &cfg.IdentityAdmin.URL)
	resolve("identity_admin.username", &cfg.IdentityAdmin.Username)
	resolve("identity_admin.password", &cfg.IdentityAdmin.Password)

	for _, a := range []struct {
		name string
		cfg  *domain.ActorConfig
	}{
		{"owner", &cfg.Actors.Owner},
		{"driver", &cfg.Actors.Driver},
		{"admin", &cfg.Actors.Admin},
	} {
		resolve("actors."+a.name+".login", &a.cfg.Login)
		resolve("actors."+a.name+".email", &a.cfg.Email)
		resolve("actors."+a.name+".password", &a.cfg.Password)
	}

	if len(errs) > 0 {
		return domain.Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func actorFrom(c domain.ActorConfig) domain.Actor {
	return domain.Actor{
		Login:      c.Login,
		Email:      c.Email,
		Password:   c.Password,
		TelegramID: c.TelegramID,
	}
}

// newState builds the run state from resolved actor settings.
func newState(actors domain.ActorsConfig) *domain.State {
	return domain.NewState(actorFrom(actors.Owner), actorFrom(actors.Driver), actorFrom(actors.Admin))
}

// ResolveConfig expands cfg against the named environment the way a run
// would. envs may be nil.
func ResolveConfig(envs ports.EnvironmentLoader, cfg domain.Config, envName string) (domain.Config, error) {
	return loadAndResolve(envs, domain.NewVarResolver(), cfg, envName)
}
