package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for all environment variables read by Load.
const EnvPrefix = "TASKMGR"

// unboundKeys have no default, so viper needs an explicit binding before it
// will consult the environment for them.
var unboundKeys = []string{
	"database.url",
	"auth.jwt_secret",
	"redis.url",
	"email.username",
	"email.password",
	"email.from",
}

// legacyEnv maps config keys to the variable names used by earlier
// deployments. The prefixed name always wins when both are set.
var legacyEnv = map[string][]string{
	"server.port":               {"PORT"},
	"database.url":              {"DATABASE_URL"},
	"auth.jwt_secret":           {"ACCESS_TOKEN_SECRET"},
	"redis.url":                 {"REDIS_URL"},
	"email.username":            {"EMAIL_USER"},
	"email.password":            {"EMAIL_PASS"},
	"sweep.schedule":            {"CRON_SCHEDULE"},
	"sweep.delete_after_notify": {"DELETE_AFTER_EMAIL"},
	"sweep.max_retries":         {"CRON_MAX_RETRIES"},
	"sweep.run_on_startup":      {"RUN_CRON_ON_STARTUP"},
}

// Load configuration from a .env file, an optional config.yaml, and
// environment variables. Environment variables take precedence over values
// from config files. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)

	v.SetDefault("auth.token_lifetime_minutes", 15)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 3*24*60)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.secure_cookies", false)

	v.SetDefault("email.host", "smtp.gmail.com")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.from_name", "Task Manager")

	v.SetDefault("sweep.schedule", "0 * * * *")
	v.SetDefault("sweep.delete_after_notify", true)
	v.SetDefault("sweep.max_retries", 3)
	v.SetDefault("sweep.run_on_startup", false)
	v.SetDefault("sweep.lookback_minutes", 60)
	v.SetDefault("sweep.base_delay_ms", 1000)
}

// bindEnv registers keys without defaults and the legacy aliases.
func bindEnv(v *viper.Viper) error {
	for _, key := range unboundKeys {
		if _, ok := legacyEnv[key]; ok {
			continue
		}
		if err := v.BindEnv(key, envName(key)); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	for key, aliases := range legacyEnv {
		names := append([]string{key, envName(key)}, aliases...)
		if err := v.BindEnv(names...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

// envName returns the prefixed variable name for a config key,
// e.g. sweep.max_retries -> TASKMGR_SWEEP_MAX_RETRIES.
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
