package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/buildcrew/workforce-backend/internal/pkg/validator"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Redis    RedisConfig
	Realtime RealtimeConfig
	Payroll  PayrollConfig
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

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
	RunMigrations  bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RealtimeConfig selects the attendance change bridge: "memory" or "redis".
type RealtimeConfig struct {
	Driver  string
	Channel string
}

// PayrollConfig holds payroll policy and automation settings.
type PayrollConfig struct {
	AutomationActive     bool
	CutoffCron           string
	Timezone             string
	WeekStart            time.Weekday
	Debounce             time.Duration
	CutoffCheckInterval  time.Duration
	ReactiveTarget       string
	OvertimeMultiplier   decimal.Decimal
	DeductionRate        decimal.Decimal
	DailyRegularHours    decimal.Decimal
	BulkWorkers          int
	PersistenceTimeout   time.Duration
	RetryAttempts        int
	RetryInitialInterval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded, using process environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "workforce"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		MinConns: int32(minConns),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		RunMigrations:  getEnv("RUN_MIGRATIONS", "true") == "true",
	}

	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	config.Realtime = RealtimeConfig{
		Driver:  getEnv("REALTIME_DRIVER", "memory"),
		Channel: getEnv("REALTIME_CHANNEL", "attendance:changes"),
	}

	payrollCfg, err := loadPayrollConfig()
	if err != nil {
		return nil, err
	}
	config.Payroll = payrollCfg

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadPayrollConfig() (PayrollConfig, error) {
	cfg := DefaultPayrollConfig()

	cfg.AutomationActive = getEnv("PAYROLL_AUTOMATION_ACTIVE", "true") == "true"
	cfg.CutoffCron = getEnv("PAYROLL_CUTOFF_CRON", cfg.CutoffCron)
	cfg.Timezone = getEnv("PAYROLL_TIMEZONE", cfg.Timezone)
	cfg.ReactiveTarget = getEnv("PAYROLL_REACTIVE_TARGET", cfg.ReactiveTarget)

	weekStart, err := parseWeekday(getEnv("PAYROLL_WEEK_START", "sunday"))
	if err != nil {
		return cfg, err
	}
	cfg.WeekStart = weekStart

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"PAYROLL_DEBOUNCE", &cfg.Debounce},
		{"PAYROLL_CUTOFF_CHECK_INTERVAL", &cfg.CutoffCheckInterval},
		{"PAYROLL_PERSISTENCE_TIMEOUT", &cfg.PersistenceTimeout},
		{"PAYROLL_RETRY_INITIAL_INTERVAL", &cfg.RetryInitialInterval},
	}
	for _, d := range durations {
		v := getEnv(d.key, "")
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.target = parsed
	}

	decimals := []struct {
		key    string
		target *decimal.Decimal
	}{
		{"PAYROLL_OVERTIME_MULTIPLIER", &cfg.OvertimeMultiplier},
		{"PAYROLL_DEDUCTION_RATE", &cfg.DeductionRate},
		{"PAYROLL_DAILY_REGULAR_HOURS", &cfg.DailyRegularHours},
	}
	for _, d := range decimals {
		v := getEnv(d.key, "")
		if v == "" {
			continue
		}
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.target = parsed
	}

	if v := getEnv("PAYROLL_BULK_WORKERS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid PAYROLL_BULK_WORKERS: %w", err)
		}
		cfg.BulkWorkers = n
	}
	if v := getEnv("PAYROLL_RETRY_ATTEMPTS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid PAYROLL_RETRY_ATTEMPTS: %w", err)
		}
		cfg.RetryAttempts = n
	}

	return cfg, nil
}

// DefaultPayrollConfig returns the policy used when no overrides are configured.
func DefaultPayrollConfig() PayrollConfig {
	return PayrollConfig{
		AutomationActive:     true,
		CutoffCron:           "59 23 * * 0",
		Timezone:             "Local",
		WeekStart:            time.Sunday,
		Debounce:             2 * time.Second,
		CutoffCheckInterval:  time.Minute,
		ReactiveTarget:       "record_week",
		OvertimeMultiplier:   decimal.NewFromFloat(1.5),
		DeductionRate:        decimal.NewFromFloat(0.15),
		DailyRegularHours:    decimal.NewFromInt(8),
		BulkWorkers:          8,
		PersistenceTimeout:   10 * time.Second,
		RetryAttempts:        3,
		RetryInitialInterval: time.Second,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if !validator.IsInSlice(c.Realtime.Driver, []string{"memory", "redis"}) {
		return fmt.Errorf("REALTIME_DRIVER must be 'memory' or 'redis'")
	}
	return c.Payroll.Validate()
}

func (p PayrollConfig) Validate() error {
	if !validator.IsInSlice(p.ReactiveTarget, []string{"record_week", "current_week"}) {
		return fmt.Errorf("PAYROLL_REACTIVE_TARGET must be 'record_week' or 'current_week'")
	}
	if !p.DailyRegularHours.IsPositive() {
		return fmt.Errorf("PAYROLL_DAILY_REGULAR_HOURS must be positive")
	}
	if p.OvertimeMultiplier.IsNegative() {
		return fmt.Errorf("PAYROLL_OVERTIME_MULTIPLIER must be non-negative")
	}
	if p.DeductionRate.IsNegative() || p.DeductionRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("PAYROLL_DEDUCTION_RATE must be between 0 and 1")
	}
	if p.BulkWorkers < 1 {
		return fmt.Errorf("PAYROLL_BULK_WORKERS must be at least 1")
	}
	if p.RetryAttempts < 1 {
		return fmt.Errorf("PAYROLL_RETRY_ATTEMPTS must be at least 1")
	}
	if p.Debounce <= 0 || p.CutoffCheckInterval <= 0 || p.PersistenceTimeout <= 0 {
		return fmt.Errorf("payroll durations must be positive")
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return fmt.Errorf("invalid PAYROLL_TIMEZONE: %w", err)
	}
	return nil
}

// Location resolves the payroll time zone, falling back to UTC.
func (p PayrollConfig) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabaseURL returns the PostgreSQL connection string
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

var errInvalidWeekday = errors.New("invalid PAYROLL_WEEK_START")

func parseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("%w: %q", errInvalidWeekday, s)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env, fallback string) []string {
	value := getEnv(env, fallback)
	if value == "" {
		return []string{}
	}
	var result []string = strings.Split(value, ",")
	return result
}
