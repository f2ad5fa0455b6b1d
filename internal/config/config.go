package config

import (
	"fmt"
	"time"

	"github.com/segyhp/lending-engine/internal/domain"
	"github.com/segyhp/lending-engine/pkg/utils"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Business  BusinessConfig  `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string `mapstructure:"SERVER_PORT"`
	Host         string `mapstructure:"SERVER_HOST"`
	Env          string `mapstructure:"ENV"`
	ReadTimeout  string `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout string `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"DATABASE_DRIVER"`
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	CacheTTL string `mapstructure:"CACHE_TTL"`
}

type SchedulerConfig struct {
	OverdueSpec string `mapstructure:"SCHEDULER_OVERDUE_SPEC"`
	Timezone    string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BusinessConfig struct {
	DefaultInterestRate           string `mapstructure:"DEFAULT_INTEREST_RATE"`
	DefaultAdminCommissionPercent string `mapstructure:"DEFAULT_ADMIN_COMMISSION_PERCENT"`
	DefaultStaffCommissionPercent string `mapstructure:"DEFAULT_STAFF_COMMISSION_PERCENT"`
	ActivePaymentModes            string `mapstructure:"ACTIVE_PAYMENT_MODES"`
	MaxConflictRetries            int    `mapstructure:"MAX_CONFLICT_RETRIES"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

var keys = []string{
	"SERVER_PORT", "SERVER_HOST", "ENV", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT",
	"DATABASE_DRIVER", "DATABASE_URL", "DATABASE_MAX_OPEN_CONNS", "DATABASE_MAX_IDLE_CONNS",
	"DATABASE_CONN_MAX_LIFETIME",
	"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "CACHE_TTL",
	"SCHEDULER_OVERDUE_SPEC", "SCHEDULER_TIMEZONE",
	"LOG_LEVEL", "LOG_FORMAT",
	"DEFAULT_INTEREST_RATE", "DEFAULT_ADMIN_COMMISSION_PERCENT", "DEFAULT_STAFF_COMMISSION_PERCENT",
	"ACTIVE_PAYMENT_MODES", "MAX_CONFLICT_RETRIES",
	"HEALTH_CHECK_TIMEOUT",
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	v.SetDefault("DATABASE_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("SCHEDULER_OVERDUE_SPEC", "0 1 * * *")
	v.SetDefault("SCHEDULER_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DEFAULT_INTEREST_RATE", "0")
	v.SetDefault("DEFAULT_ADMIN_COMMISSION_PERCENT", "0")
	v.SetDefault("DEFAULT_STAFF_COMMISSION_PERCENT", "0")
	v.SetDefault("ACTIVE_PAYMENT_MODES", "Cash,PhonePe,GPay")
	v.SetDefault("MAX_CONFLICT_RETRIES", 3)
	v.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")

	// Unmarshal only sees keys viper knows about, so bind every env var explicitly.
	v.AutomaticEnv()
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.IsProduction() && c.Database.Driver == DriverSQLite {
		return fmt.Errorf("DATABASE_DRIVER %q is not supported in production", DriverSQLite)
	}

	decimals := map[string]string{
		"DEFAULT_INTEREST_RATE":            c.Business.DefaultInterestRate,
		"DEFAULT_ADMIN_COMMISSION_PERCENT": c.Business.DefaultAdminCommissionPercent,
		"DEFAULT_STAFF_COMMISSION_PERCENT": c.Business.DefaultStaffCommissionPercent,
	}
	for key, raw := range decimals {
		value, err := utils.DecimalFromString(raw)
		if err != nil {
			return fmt.Errorf("%s must be a valid decimal: %w", key, err)
		}
		if value.IsNegative() {
			return fmt.Errorf("%s must not be negative", key)
		}
	}

	if len(c.PaymentModes()) == 0 {
		return fmt.Errorf("ACTIVE_PAYMENT_MODES must list at least one mode")
	}

	if c.Business.MaxConflictRetries <= 0 {
		return fmt.Errorf("MAX_CONFLICT_RETRIES must be greater than 0")
	}

	durations := map[string]string{
		"SERVER_READ_TIMEOUT":  c.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT": c.Server.WriteTimeout,
		"CACHE_TTL":            c.Redis.CacheTTL,
		"HEALTH_CHECK_TIMEOUT": c.Health.Timeout,
	}
	for key, raw := range durations {
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("%s must be a valid duration: %w", key, err)
		}
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid location: %w", err)
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// PaymentModes splits ACTIVE_PAYMENT_MODES into trimmed, non-empty entries.
func (c *Config) PaymentModes() []string {
	return utils.SplitList(c.Business.ActivePaymentModes)
}

// Settings derives the business settings handed to each operation.
func (c *Config) Settings() domain.Settings {
	return domain.Settings{
		ActivePaymentModes:            c.PaymentModes(),
		DefaultInterestRate:           utils.DecimalOrZero(c.Business.DefaultInterestRate),
		DefaultAdminCommissionPercent: utils.DecimalOrZero(c.Business.DefaultAdminCommissionPercent),
		DefaultStaffCommissionPercent: utils.DecimalOrZero(c.Business.DefaultStaffCommissionPercent),
	}
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetCacheTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Redis.CacheTTL)
	return ttl
}

func (c *Config) GetReadTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Server.ReadTimeout)
	return timeout
}

func (c *Config) GetWriteTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Server.WriteTimeout)
	return timeout
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}

// GetSchedulerLocation returns the timezone the cron schedule runs in.
func (c *Config) GetSchedulerLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
