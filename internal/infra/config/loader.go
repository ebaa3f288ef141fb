// Package config loads parknet.yaml through viper, layered as built-in
// defaults < file < PARKNET_* environment variables.
package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/hextract/parking-net/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g.
// PARKNET_SERVICES_AUTH_BASE_URL or PARKNET_IDENTITY_ADMIN_PASSWORD.
const EnvPrefix = "PARKNET"

const fileName = "parknet.yaml"

// Load reads <root>/parknet.yaml. An empty root skips the file and yields
// defaults plus environment overrides.
func Load(root string) (domain.Config, error) {
	v := newViper()

	if root != "" {
		path := filepath.Join(root, fileName)
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			kind := domain.KindInvalidConfig
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
				kind = domain.KindNotFound
			}
			return domain.Config{}, &domain.OpError{
				Op:   "config.load",
				Kind: kind,
				Path: path,
				Err:  err,
			}
		}
	}

	cfg, err := mapConfig(v)
	if err != nil {
		path := ""
		if root != "" {
			path = filepath.Join(root, fileName)
		}
		return domain.Config{}, &domain.OpError{
			Op:   "config.map",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, domain.DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}
