package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123"

func TestLoad_RequiresAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "API_KEY not set")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_KEY", "demo")
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 10*time.Second, cfg.Quote.Timeout)
	assert.Zero(t, cfg.Quote.CacheTTL)
	assert.True(t, decimal.NewFromInt(10000).Equal(cfg.StartingBalance()))
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("API_KEY", "demo")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/finance")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("STARTING_CASH", "500.50")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://u:p@db/finance", cfg.Database.DSN())
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "500.5", cfg.StartingBalance().String())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_YAMLFileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stocksim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 7000
api_key: from-file
starting_cash: "2500"
database:
  driver: sqlite
  sqlite_path: /tmp/file.db
session:
  secret: file-secret-0123456789
  ttl: 30m
quote:
  cache_ttl: 1m
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_KEY", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Port, "environment wins over the file")
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, "/tmp/file.db", cfg.Database.SQLitePath)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, time.Minute, cfg.Quote.CacheTTL)
	assert.Equal(t, "2500", cfg.StartingBalance().String())
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Session.Secret = "short"
	cfg.Database.Driver = "mysql"
	cfg.StartingCash = "-1"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEY not set")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "mysql")
	assert.Contains(t, err.Error(), "STARTING_CASH")
}

func TestDatabaseConfig_DSNFromFields(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5433", User: "app", Password: "pw", Name: "finance"}
	assert.Equal(t, "host=db user=app password=pw dbname=finance port=5433 sslmode=disable TimeZone=UTC", d.DSN())
}
