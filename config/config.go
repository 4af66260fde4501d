package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application configuration.
type Config struct {
	Port         int            `yaml:"port"`
	APIKey       string         `yaml:"api_key"`
	StartingCash string         `yaml:"starting_cash"`
	Database     DatabaseConfig `yaml:"database"`
	Redis        RedisConfig    `yaml:"redis"`
	Session      SessionConfig  `yaml:"session"`
	Quote        QuoteConfig    `yaml:"quote"`
	CORSOrigins  []string       `yaml:"cors_origins"`
	LogLevel     string         `yaml:"log_level"`
	LogPretty    bool           `yaml:"log_pretty"`
	GinMode      string         `yaml:"gin_mode"`

	startingCash decimal.Decimal
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"`
	URL        string `yaml:"url"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	SQLitePath string `yaml:"sqlite_path"`
	LogQueries bool   `yaml:"log_queries"`
}

// DSN returns the Postgres connection string. An explicit URL wins over the
// individual fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port)
}

// RedisConfig points at the session and quote cache server. An empty Addr
// keeps sessions in process memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SessionConfig struct {
	Secret       string        `yaml:"secret"`
	TTL          time.Duration `yaml:"ttl"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

type QuoteConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Default returns the configuration used before any file or environment
// override is applied.
func Default() *Config {
	return &Config{
		Port:         8080,
		StartingCash: "10000.00",
		Database: DatabaseConfig{
			Driver:     DriverSQLite,
			Host:       "localhost",
			Port:       "5432",
			User:       "postgres",
			Name:       "finance",
			SQLitePath: "finance.db",
		},
		Session: SessionConfig{
			TTL: 24 * time.Hour,
		},
		Quote: QuoteConfig{
			BaseURL: "https://www.alphavantage.co",
			Timeout: 10 * time.Second,
		},
		LogLevel: "info",
		GinMode:  "release",
	}
}

// Load reads configuration from an optional .env file, an optional YAML file
// named by CONFIG_FILE, and finally environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvAsInt("PORT", c.Port)
	c.APIKey = getEnv("API_KEY", c.APIKey)
	c.StartingCash = getEnv("STARTING_CASH", c.StartingCash)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SQLitePath = getEnv("SQLITE_PATH", c.Database.SQLitePath)
	c.Database.LogQueries = getEnvAsBool("DB_LOG_QUERIES", c.Database.LogQueries)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("REDIS_DB", c.Redis.DB)

	c.Session.Secret = getEnv("JWT_SECRET", c.Session.Secret)
	c.Session.TTL = getEnvAsDuration("SESSION_TTL", c.Session.TTL)
	c.Session.SecureCookie = getEnvAsBool("SECURE_COOKIE", c.Session.SecureCookie)

	c.Quote.BaseURL = getEnv("QUOTE_BASE_URL", c.Quote.BaseURL)
	c.Quote.Timeout = getEnvAsDuration("QUOTE_TIMEOUT", c.Quote.Timeout)
	c.Quote.CacheTTL = getEnvAsDuration("QUOTE_CACHE_TTL", c.Quote.CacheTTL)

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = splitList(origins)
	}
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogPretty = getEnvAsBool("LOG_PRETTY", c.LogPretty)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
}

// Validate checks that required configuration is present and well formed.
// Every problem found is reported.
func (c *Config) Validate() error {
	var errs []error

	if c.APIKey == "" {
		errs = append(errs, errors.New("API_KEY not set"))
	}
	if len(c.Session.Secret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 bytes"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}

	switch c.GinMode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("invalid GIN_MODE %q", c.GinMode))
	}

	cash, err := decimal.NewFromString(c.StartingCash)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("invalid STARTING_CASH %q: %w", c.StartingCash, err))
	case cash.IsNegative():
		errs = append(errs, fmt.Errorf("STARTING_CASH must not be negative"))
	default:
		c.startingCash = cash
	}

	return errors.Join(errs...)
}

// StartingBalance is the cash every new account opens with.
func (c *Config) StartingBalance() decimal.Decimal {
	return c.startingCash
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
