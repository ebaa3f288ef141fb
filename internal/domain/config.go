package domain

import "time"

// ServiceName identifies one backend under test.
type ServiceName string

const (
	ServiceAuth    ServiceName = "auth"
	ServiceParking ServiceName = "parking"
	ServiceBooking ServiceName = "booking"
	ServicePayment ServiceName = "payment"
)

// Config represents the harness configuration loaded from parknet.yaml.
type Config struct {
	Masking       MaskingConfig
	Defaults      DefaultsConfig
	HTTP          HTTPConfig
	Services      ServicesConfig
	IdentityAdmin IdentityAdminConfig
	Actors        ActorsConfig
}

type MaskingConfig struct {
	Enabled bool
}

type DefaultsConfig struct {
	Environment string
}

type HTTPConfig struct {
	Timeout          time.Duration
	CredentialHeader string
	MaxBodyBytes     int64
}

type ServiceConfig struct {
	BaseURL   string
	ProbePath string
}

type ServicesConfig struct {
	Auth    ServiceConfig
	Parking ServiceConfig
	Booking ServiceConfig
	Payment ServiceConfig
}

// NamedService pairs a ServiceConfig with its name.
type NamedService struct {
	Name ServiceName
	ServiceConfig
}

// All returns the services in probe order.
func (s ServicesConfig) All() []NamedService {
	return []NamedService{
		{Name: ServiceAuth, ServiceConfig: s.Auth},
		{Name: ServiceParking, ServiceConfig: s.Parking},
		{Name: ServiceBooking, ServiceConfig: s.Booking},
		{Name: ServicePayment, ServiceConfig: s.Payment},
	}
}

// IdentityAdminConfig points at the identity provider admin API used to
// provision administrator accounts.
type IdentityAdminConfig struct {
	Enabled     bool
	URL         string
	Realm       string
	MasterRealm string
	Username    string
	Password    string
	AdminGroup  string
}

type ActorConfig struct {
	Login      string
	Email      string
	Password   string
	TelegramID int64
}

type ActorsConfig struct {
	Owner  ActorConfig
	Driver ActorConfig
	Admin  ActorConfig
}

// DefaultConfig provides sane defaults if parknet.yaml is partially missing.
func DefaultConfig() Config {
	const gateway = "http://localhost:8080"
	return Config{
		Masking: MaskingConfig{Enabled: true},
		Defaults: DefaultsConfig{
			Environment: "local",
		},
		HTTP: HTTPConfig{
			Timeout:          10 * time.Second,
			CredentialHeader: "api_key",
			MaxBodyBytes:     256 * 1024,
		},
		Services: ServicesConfig{
			Auth:    ServiceConfig{BaseURL: gateway, ProbePath: "/auth/metrics"},
			Parking: ServiceConfig{BaseURL: gateway, ProbePath: "/parking/metrics"},
			Booking: ServiceConfig{BaseURL: gateway, ProbePath: "/booking/metrics"},
			Payment: ServiceConfig{BaseURL: gateway, ProbePath: "/payment/metrics"},
		},
		IdentityAdmin: IdentityAdminConfig{
			Enabled:     false,
			URL:         "http://localhost:8081",
			Realm:       "parking-users",
			MasterRealm: "master",
			Username:    "admin",
			AdminGroup:  "admin",
		},
		Actors: ActorsConfig{
			Owner: ActorConfig{
				Login:    "owner_{{$timestamp}}",
				Email:    "owner_{{$timestamp}}@test.com",
				Password: "TestPass123",
			},
			Driver: ActorConfig{
				Login:    "driver_{{$timestamp}}",
				Email:    "driver_{{$timestamp}}@test.com",
				Password: "TestPass123",
			},
			Admin: ActorConfig{
				Login:    "e2e_admin",
				Email:    "e2e_admin@test.com",
				Password: "AdminPass123",
			},
		},
	}
}
