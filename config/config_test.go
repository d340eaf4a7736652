package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  dsn: "file::memory:"
redis:
  addr: "localhost:6379"
jwt:
  privateKeyPath: private_key.pem
  publicKeyPath: public_key.pem
payment:
  successURL: http://localhost/success
  cancelURL: http://localhost/cancel
wallet:
  rates:
    twd: 31.5
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "default", cfg.Server.DefaultTenant)
	assert.Equal(t, 30*time.Minute, cfg.Server.PendingOrderTimeout)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TokenTTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, LogTypeConsole, cfg.Log.Type)
	assert.Equal(t, PaymentProviderFake, cfg.Payment.Provider)
	assert.Equal(t, "usd", cfg.Wallet.BaseCurrency)
	assert.Equal(t, 31.5, cfg.Wallet.Rates["twd"])
}

func TestLoadConfig_Durations(t *testing.T) {
	path := writeConfig(t, `
server:
  pendingOrderTimeout: 15m
  cleanupInterval: 30s
database:
  driver: sqlite
redis:
  addr: "localhost:6379"
jwt:
  privateKeyPath: a.pem
  publicKeyPath: b.pem
  tokenTTL: 2h
payment:
  successURL: http://localhost/success
  cancelURL: http://localhost/cancel
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.Server.PendingOrderTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.CleanupInterval)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TokenTTL)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func validConfig() Config {
	cfg := Config{
		Database: DatabaseConfig{Driver: DriverSQLite},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		JWT:      JWTConfig{PrivateKeyPath: "a.pem", PublicKeyPath: "b.pem"},
		Payment:  PaymentConfig{SuccessURL: "http://localhost/s", CancelURL: "http://localhost/c"},
	}
	cfg.applyDefaults()
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, true},
		{"mysql without host", func(c *Config) { c.Database.Driver = DriverMySQL }, true},
		{"mysql with dsn", func(c *Config) {
			c.Database.Driver = DriverMySQL
			c.Database.DSN = "root:pw@tcp(localhost:3306)/shop"
		}, false},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = DriverPostgres }, true},
		{"file log without path", func(c *Config) { c.Log.Type = LogTypeFile }, true},
		{"file log size out of range", func(c *Config) {
			c.Log.Type = LogTypeFile
			c.Log.FilePath = "app.log"
			c.Log.MaxSize = 1000
		}, true},
		{"stripe without keys", func(c *Config) { c.Payment.Provider = PaymentProviderStripe }, true},
		{"bad rate", func(c *Config) { c.Wallet.Rates = map[string]float64{"twd": 0} }, true},
		{"bad currency", func(c *Config) { c.Wallet.Rates = map[string]float64{"taiwan": 31} }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	d := DatabaseConfig{Username: "root", Password: "pw", Host: "db", Port: "3306", Database: "shop"}
	assert.Equal(t, "root:pw@tcp(db:3306)/shop?charset=utf8mb4&parseTime=True&loc=Local", d.MySQLDSN())

	d.DSN = "custom"
	assert.Equal(t, "custom", d.MySQLDSN())
}

func TestSetupDatabaseConnection_SQLite(t *testing.T) {
	cfg := validConfig()
	cfg.Database.DSN = "file:" + filepath.Join(t.TempDir(), "test.db")
	cfg.Database.AutoMigrate = true

	db, err := SetupDatabaseConnection(cfg)
	require.NoError(t, err)
	defer CloseDatabase(db)

	assert.True(t, db.Migrator().HasTable("orders"))
	assert.True(t, db.Migrator().HasTable("wallet_balances"))
}
