package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Email    EmailConfig    `mapstructure:"email"`
	Sweep    SweepConfig    `mapstructure:"sweep"    validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"            validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gtfield=TokenLifetimeMinutes"`
	BcryptCost                  int    `mapstructure:"bcrypt_cost"                    validate:"gte=4,lte=31"`
	SecureCookies               bool   `mapstructure:"secure_cookies"`
}

// RedisConfig configures the refresh-token denylist. An empty URL selects the
// in-process denylist.
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// EmailConfig contains the SMTP settings used for due-task notifications.
// Notifications are disabled when Username is empty.
type EmailConfig struct {
	Host     string `mapstructure:"host"     validate:"required_with=Username"`
	Port     int    `mapstructure:"port"     validate:"gt=0,lt=65536"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password" validate:"required_with=Username"`
	From     string `mapstructure:"from"     validate:"omitempty,email"`
	FromName string `mapstructure:"from_name"`
}

// Enabled reports whether SMTP credentials are configured.
func (c EmailConfig) Enabled() bool {
	return c.Username != ""
}

// Sender returns the From address, defaulting to the SMTP username.
func (c EmailConfig) Sender() string {
	if c.From != "" {
		return c.From
	}
	return c.Username
}

// SweepConfig controls the scheduled due-task sweep.
type SweepConfig struct {
	Schedule          string `mapstructure:"schedule"            validate:"required"`
	DeleteAfterNotify bool   `mapstructure:"delete_after_notify"`
	MaxRetries        int    `mapstructure:"max_retries"         validate:"gte=1,lte=10"`
	RunOnStartup      bool   `mapstructure:"run_on_startup"`
	LookbackMinutes   int    `mapstructure:"lookback_minutes"    validate:"gt=0"`
	BaseDelayMS       int    `mapstructure:"base_delay_ms"       validate:"gte=0"`
}

// Lookback returns the lookback window as a duration.
func (c SweepConfig) Lookback() time.Duration {
	return time.Duration(c.LookbackMinutes) * time.Minute
}

// BaseDelay returns the retry base delay as a duration.
func (c SweepConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMS) * time.Millisecond
}
