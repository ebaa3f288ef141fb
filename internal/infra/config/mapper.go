package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/hextract/parking-net/internal/domain"
)

var serviceKeys = []string{"auth", "parking", "booking", "payment"}

var actorKeys = []string{"owner", "driver", "admin"}

// setDefaults registers every key so AutomaticEnv can override it even
// when the file omits it.
func setDefaults(v *viper.Viper, d domain.Config) {
	v.SetDefault("defaults.environment", d.Defaults.Environment)
	v.SetDefault("masking.enabled", d.Masking.Enabled)

	v.SetDefault("http.timeout", d.HTTP.Timeout.String())
	v.SetDefault("http.credential_header", d.HTTP.CredentialHeader)
	v.SetDefault("http.max_body_bytes", d.HTTP.MaxBodyBytes)

	for _, s := range d.Services.All() {
		v.SetDefault("services."+string(s.Name)+".base_url", s.BaseURL)
		v.SetDefault("services."+string(s.Name)+".probe_path", s.ProbePath)
	}

	ia := d.IdentityAdmin
	v.SetDefault("identity_admin.enabled", ia.Enabled)
	v.SetDefault("identity_admin.url", ia.URL)
	v.SetDefault("identity_admin.realm", ia.Realm)
	v.SetDefault("identity_admin.master_realm", ia.MasterRealm)
	v.SetDefault("identity_admin.username", ia.Username)
	v.SetDefault("identity_admin.password", ia.Password)
	v.SetDefault("identity_admin.admin_group", ia.AdminGroup)

	actors := map[string]domain.ActorConfig{
		"owner":  d.Actors.Owner,
		"driver": d.Actors.Driver,
		"admin":  d.Actors.Admin,
	}
	for _, name := range actorKeys {
		a := actors[name]
		v.SetDefault("actors."+name+".login", a.Login)
		v.SetDefault("actors."+name+".email", a.Email)
		v.SetDefault("actors."+name+".password", a.Password)
		v.SetDefault("actors."+name+".telegram_id", a.TelegramID)
	}
}

func mapConfig(v *viper.Viper) (domain.Config, error) {
	var problems []error

	cfg := domain.Config{
		Masking:  domain.MaskingConfig{Enabled: v.GetBool("masking.enabled")},
		Defaults: domain.DefaultsConfig{Environment: strings.TrimSpace(v.GetString("defaults.environment"))},
		HTTP: domain.HTTPConfig{
			Timeout:          v.GetDuration("http.timeout"),
			CredentialHeader: strings.TrimSpace(v.GetString("http.credential_header")),
			MaxBodyBytes:     v.GetInt64("http.max_body_bytes"),
		},
		IdentityAdmin: domain.IdentityAdminConfig{
			Enabled:     v.GetBool("identity_admin.enabled"),
			URL:         v.GetString("identity_admin.url"),
			Realm:       v.GetString("identity_admin.realm"),
			MasterRealm: v.GetString("identity_admin.master_realm"),
			Username:    v.GetString("identity_admin.username"),
			Password:    v.GetString("identity_admin.password"),
			AdminGroup:  v.GetString("identity_admin.admin_group"),
		},
	}

	services := map[string]*domain.ServiceConfig{
		"auth":    &cfg.Services.Auth,
		"parking": &cfg.Services.Parking,
		"booking": &cfg.Services.Booking,
		"payment": &cfg.Services.Payment,
	}
	for _, name := range serviceKeys {
		s := services[name]
		s.BaseURL = strings.TrimRight(strings.TrimSpace(v.GetString("services."+name+".base_url")), "/")
		s.ProbePath = strings.TrimSpace(v.GetString("services." + name + ".probe_path"))
		if s.BaseURL == "" {
			problems = append(problems, fmt.Errorf("services.%s.base_url: required", name))
		}
	}

	actors := map[string]*domain.ActorConfig{
		"owner":  &cfg.Actors.Owner,
		"driver": &cfg.Actors.Driver,
		"admin":  &cfg.Actors.Admin,
	}
	for _, name := range actorKeys {
		a := actors[name]
		a.Login = v.GetString("actors." + name + ".login")
		a.Email = v.GetString("actors." + name + ".email")
		a.Password = v.GetString("actors." + name + ".password")
		a.TelegramID = v.GetInt64("actors." + name + ".telegram_id")
		if a.TelegramID < 0 {
			problems = append(problems, fmt.Errorf("actors.%s.telegram_id: must not be negative", name))
		}
	}

	if cfg.HTTP.Timeout <= 0 {
		problems = append(problems, fmt.Errorf("http.timeout: must be a positive duration, got %q", v.GetString("http.timeout")))
	}
	if cfg.HTTP.CredentialHeader == "" {
		problems = append(problems, errors.New("http.credential_header: required"))
	}
	if cfg.HTTP.MaxBodyBytes <= 0 {
		problems = append(problems, errors.New("http.max_body_bytes: must be positive"))
	}
	if cfg.Defaults.Environment == "" {
		problems = append(problems, errors.New("defaults.environment: required"))
	}

	if len(problems) > 0 {
		return domain.Config{}, errors.Join(append([]error{domain.ErrInvalidConfig}, problems...)...)
	}
	return cfg, nil
}
