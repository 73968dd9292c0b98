package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database     DatabaseConfig
	JWT          JWTConfig
	App          AppConfig
	SMTP         SMTPConfig
	Scheduler    SchedulerConfig
	Notification NotificationConfig
	Storage      StorageConfig
	Attendance   AttendanceConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// SMTPConfig holds outgoing mail configuration. An empty Host disables sending.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SchedulerConfig controls the attendance tick loop.
type SchedulerConfig struct {
	Enabled      bool
	TickInterval time.Duration
}

// NotificationConfig tunes the notification queue workers.
type NotificationConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	WorkerCount   int
	QueueSize     int
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type StorageConfig struct {
	Driver string
}

// AttendanceConfig points at the global attendance defaults file.
type AttendanceConfig struct {
	DefaultsFile string
}

// Load reads the environment, after merging an optional .env file from the
// working directory. Every malformed variable is reported, not just the first.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	env := &envReader{}
	config := &Config{
		Database: DatabaseConfig{
			Host:     env.get("DB_HOST", "localhost"),
			Port:     env.getInt("DB_PORT", 5432),
			User:     env.get("DB_USER", "postgres"),
			Password: env.get("DB_PASSWORD", ""),
			Name:     env.get("DB_NAME", "cmlabs_hris"),
			SSLMode:  env.get("DB_SSL_MODE", "disable"),
			MaxConns: int32(env.getInt("DB_MAX_CONNS", 25)),
			MinConns: int32(env.getInt("DB_MIN_CONNS", 5)),
		},
		App: AppConfig{
			Port:           env.getInt("APP_PORT", 8080),
			Env:            env.get("APP_ENV", "development"),
			LogLevel:       env.get("LOG_LEVEL", "info"),
			AllowedOrigins: env.getList("CORS_ALLOWED_ORIGINS"),
		},
		JWT: JWTConfig{
			Secret:           env.get("JWT_SECRET_KEY", ""),
			AccessExpiration: env.get("JWT_ACCESS_EXPIRATION_TIME", "1h"),
		},
		SMTP: SMTPConfig{
			Host:     env.get("SMTP_HOST", ""),
			Port:     env.getInt("SMTP_PORT", 587),
			Username: env.get("SMTP_USERNAME", ""),
			Password: env.get("SMTP_PASSWORD", ""),
			From:     env.get("SMTP_FROM", "no-reply@cmlabs.co"),
			FromName: env.get("SMTP_FROM_NAME", "CMLabs HRIS"),
		},
		Scheduler: SchedulerConfig{
			Enabled:      env.getBool("SCHEDULER_ENABLED", true),
			TickInterval: env.getDuration("SCHEDULER_TICK_INTERVAL", time.Minute),
		},
		Notification: NotificationConfig{
			BatchSize:     env.getInt("NOTIFICATION_BATCH_SIZE", 100),
			FlushInterval: env.getDuration("NOTIFICATION_FLUSH_INTERVAL", 5*time.Second),
			WorkerCount:   env.getInt("NOTIFICATION_WORKERS", 2),
			QueueSize:     env.getInt("NOTIFICATION_QUEUE_SIZE", 1000),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(env.get("STORAGE_DRIVER", StorageDriverPostgres)),
		},
		Attendance: AttendanceConfig{
			DefaultsFile: env.get("ATTENDANCE_DEFAULTS_FILE", ""),
		},
	}
	if err := env.err(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q", StorageDriverPostgres, StorageDriverMemory)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Scheduler.TickInterval <= 0 {
		return fmt.Errorf("SCHEDULER_TICK_INTERVAL must be positive")
	}
	return nil
}

// DatabaseURL builds the pgx connection string.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// envReader parses variables with fallbacks and keeps every parse failure.
type envReader struct {
	errs []error
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}

func (r *envReader) get(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseEnv[T any](r *envReader, key string, fallback T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	v, err := parse(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (r *envReader) getInt(key string, fallback int) int {
	return parseEnv(r, key, fallback, strconv.Atoi)
}

func (r *envReader) getBool(key string, fallback bool) bool {
	return parseEnv(r, key, fallback, strconv.ParseBool)
}

func (r *envReader) getDuration(key string, fallback time.Duration) time.Duration {
	return parseEnv(r, key, fallback, time.ParseDuration)
}

// getList splits a comma separated variable, dropping blank entries.
func (r *envReader) getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
