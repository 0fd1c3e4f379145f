package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is prepended to every environment variable the loader reads,
// e.g. TASKHUB_DATABASE_URL maps to the "database.url" key.
const envPrefix = "TASKHUB"

// Load reads configuration from environment variables, applies defaults,
// and validates the result. The process must not start without a database
// URL, listen port, and JWT signing secret.
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults for optional settings. Required settings get no default so
	// their absence fails validation below.
	v.SetDefault("server.log_level", "info")
	v.SetDefault("auth.token_lifetime_minutes", 43200) // 30 days
	v.SetDefault("auth.bcrypt_cost", 10)

	// Viper only unmarshals env-provided values for keys it knows about,
	// so bind every key explicitly.
	for _, key := range []string{
		"server.port",
		"server.log_level",
		"database.url",
		"auth.jwt_secret",
		"auth.token_lifetime_minutes",
		"auth.bcrypt_cost",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
