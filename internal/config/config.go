package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	Env                    string `yaml:"env"`
	LogLevel               string `yaml:"log_level"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

type DatabaseConfig struct {
	DSN                    string `yaml:"url"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig - кэш снапшотов entitlements. Пустой Addr выключает кэш.
type RedisConfig struct {
	Addr                  string `yaml:"addr"`
	Password              string `yaml:"password"`
	DB                    int    `yaml:"db"`
	EntitlementTTLSeconds int    `yaml:"entitlement_ttl_seconds"`
}

type JWTConfig struct {
	Secret           string `yaml:"secret"`
	Issuer           string `yaml:"issuer"`
	AccessTTLMinutes int    `yaml:"access_ttl_minutes"`
	RefreshTTLHours  int    `yaml:"refresh_ttl_hours"`
}

type AuthConfig struct {
	ResolveTimeoutMs     int    `yaml:"resolve_timeout_ms"`
	RefreshRetentionDays int    `yaml:"refresh_retention_days"`
	SeedAdminEmail       string `yaml:"seed_admin_email"`
	SeedAdminPassword    string `yaml:"seed_admin_password"`
}

type WorkersConfig struct {
	Enabled                   bool `yaml:"enabled"`
	RolloverIntervalSeconds   int  `yaml:"rollover_interval_seconds"`
	TokenSweepIntervalMinutes int  `yaml:"token_sweep_interval_minutes"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Auth     AuthConfig     `yaml:"auth"`
	Workers  WorkersConfig  `yaml:"workers"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// LoadConfig читает .env (если есть), затем YAML из CONFIG_PATH
// (по умолчанию config/config.yaml). Если задан DATABASE_URL, файл не
// обязателен: конфигурация собирается из переменных окружения.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Не удалось прочитать .env: %v", err)
	}

	cfg := Default()

	if os.Getenv("DATABASE_URL") == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}
		if err := cfg.loadFile(configPath); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default возвращает конфигурацию с разумными значениями по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                   "0.0.0.0",
			Port:                   8080,
			Env:                    "development",
			ShutdownTimeoutSeconds: 10,
		},
		Database: DatabaseConfig{
			MaxOpenConns:           25,
			MaxIdleConns:           5,
			ConnMaxLifetimeMinutes: 30,
		},
		Redis: RedisConfig{
			EntitlementTTLSeconds: 60,
		},
		JWT: JWTConfig{
			Issuer:           "saas_backend",
			AccessTTLMinutes: 60,
			RefreshTTLHours:  24 * 7,
		},
		Auth: AuthConfig{
			ResolveTimeoutMs:     3000,
			RefreshRetentionDays: 30,
		},
		Workers: WorkersConfig{
			Enabled:                   true,
			RolloverIntervalSeconds:   300,
			TokenSweepIntervalMinutes: 60,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file at %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("failed to parse config file at %s: %w", path, err)
	}
	return nil
}

// applyEnv - переменные окружения перекрывают YAML
func (c *Config) applyEnv() {
	setString(&c.Database.DSN, "DATABASE_URL")
	setString(&c.Server.Env, "SERVER_ENV")
	setInt(&c.Server.Port, "SERVER_PORT")
	setString(&c.Server.LogLevel, "LOG_LEVEL")
	setString(&c.JWT.Secret, "JWT_SECRET")
	setString(&c.JWT.Issuer, "JWT_ISSUER")
	setInt(&c.JWT.AccessTTLMinutes, "JWT_ACCESS_TTL_MINUTES")
	setInt(&c.JWT.RefreshTTLHours, "JWT_REFRESH_TTL_HOURS")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")
	setInt(&c.Auth.ResolveTimeoutMs, "AUTH_RESOLVE_TIMEOUT_MS")
	setString(&c.Auth.SeedAdminEmail, "SEED_ADMIN_EMAIL")
	setString(&c.Auth.SeedAdminPassword, "SEED_ADMIN_PASSWORD")
	setInt(&c.Workers.RolloverIntervalSeconds, "ROLLOVER_INTERVAL_SECONDS")
	if v, ok := os.LookupEnv("WORKERS_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Workers.Enabled = b
		}
	}
}

// Validate проверяет обязательные поля
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("config: jwt.secret (JWT_SECRET) is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("config: jwt.secret must be at least 32 bytes")
	}
	if c.Database.DSN == "" {
		return errors.New("config: database.url (DATABASE_URL) is required")
	}
	if c.JWT.AccessTTLMinutes <= 0 || c.JWT.RefreshTTLHours <= 0 {
		return errors.New("config: jwt ttl values must be positive")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessTTLMinutes) * time.Minute
}

func (j JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshTTLHours) * time.Hour
}

func (a AuthConfig) ResolveTimeout() time.Duration {
	return time.Duration(a.ResolveTimeoutMs) * time.Millisecond
}

func (a AuthConfig) RefreshRetention() time.Duration {
	return time.Duration(a.RefreshRetentionDays) * 24 * time.Hour
}

func (r RedisConfig) EntitlementTTL() time.Duration {
	return time.Duration(r.EntitlementTTLSeconds) * time.Second
}

func (w WorkersConfig) RolloverInterval() time.Duration {
	return time.Duration(w.RolloverIntervalSeconds) * time.Second
}

func (w WorkersConfig) TokenSweepInterval() time.Duration {
	return time.Duration(w.TokenSweepIntervalMinutes) * time.Minute
}

func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
