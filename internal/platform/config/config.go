package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr                         string        `yaml:"addr"`
	DatabaseURL                  string        `yaml:"databaseUrl"`
	JWTSecret                    string        `yaml:"jwtSecret"`
	CronSecret                   string        `yaml:"cronSecret"`
	Environment                  string        `yaml:"environment"`
	LogLevel                     string        `yaml:"logLevel"`
	RunMigrations                bool          `yaml:"runMigrations"`
	DBMaxConns                   int           `yaml:"dbMaxConns"`
	CORSAllowedOrigins           []string      `yaml:"corsAllowedOrigins"`
	CronRateLimitPerMinute       int           `yaml:"cronRateLimitPerMinute"`
	CronGlobalRateLimitPerMinute int           `yaml:"cronGlobalRateLimitPerMinute"`
	ToilExpiryInterval           time.Duration `yaml:"toilExpiryInterval"`
	ProposalExpiryInterval       time.Duration `yaml:"proposalExpiryInterval"`
	CarryoverCheckInterval       time.Duration `yaml:"carryoverCheckInterval"`
}

func defaults() Config {
	return Config{
		Addr:                         ":8080",
		Environment:                  "development",
		LogLevel:                     "info",
		RunMigrations:                true,
		DBMaxConns:                   10,
		CORSAllowedOrigins:           []string{"http://localhost:3000"},
		CronRateLimitPerMinute:       10,
		CronGlobalRateLimitPerMinute: 60,
		ToilExpiryInterval:           24 * time.Hour,
		ProposalExpiryInterval:       time.Hour,
		CarryoverCheckInterval:       24 * time.Hour,
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and finally environment variables.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Addr = getEnv("APP_ADDR", cfg.Addr)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.CronSecret = getEnv("CRON_SECRET", cfg.CronSecret)
	cfg.Environment = getEnv("APP_ENV", cfg.Environment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.RunMigrations = getEnvBool("RUN_MIGRATIONS", cfg.RunMigrations)
	cfg.DBMaxConns = getEnvInt("DB_MAX_CONNS", cfg.DBMaxConns)
	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", cfg.CORSAllowedOrigins)
	cfg.CronRateLimitPerMinute = getEnvInt("CRON_RATE_LIMIT_PER_MINUTE", cfg.CronRateLimitPerMinute)
	cfg.CronGlobalRateLimitPerMinute = getEnvInt("CRON_GLOBAL_RATE_LIMIT_PER_MINUTE", cfg.CronGlobalRateLimitPerMinute)
	cfg.ToilExpiryInterval = getEnvDuration("TOIL_EXPIRY_INTERVAL", cfg.ToilExpiryInterval)
	cfg.ProposalExpiryInterval = getEnvDuration("PROPOSAL_EXPIRY_INTERVAL", cfg.ProposalExpiryInterval)
	cfg.CarryoverCheckInterval = getEnvDuration("CARRYOVER_CHECK_INTERVAL", cfg.CarryoverCheckInterval)
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.CronSecret) == "" {
			return fmt.Errorf("CRON_SECRET must be set in production")
		}
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.CronRateLimitPerMinute <= 0 || c.CronGlobalRateLimitPerMinute <= 0 {
		return fmt.Errorf("cron rate limits must be positive")
	}
	if c.CronGlobalRateLimitPerMinute < c.CronRateLimitPerMinute {
		return fmt.Errorf("CRON_GLOBAL_RATE_LIMIT_PER_MINUTE must not be below CRON_RATE_LIMIT_PER_MINUTE")
	}
	return nil
}
