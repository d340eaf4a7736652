// Package testutil wires throwaway databases, redis servers and signing keys for tests.
package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"strings"
	"testing"
	"time"

	"storefront/config"
	"storefront/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory sqlite database with every table migrated.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err, "Failed to open sqlite database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// shared-cache記憶體資料庫只用一條連線，避免table locked
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = config.CloseDatabase(db)
	})

	require.NoError(t, config.Migrate(db), "Failed to migrate schema")
	return db
}

// SetupTestRedis starts a miniredis server that stops with the test.
func SetupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
	})
	return rdb, mr
}

// GenerateKeyPair returns a small RSA key pair for signing test tokens.
func GenerateKeyPair(t *testing.T) (*rsa.PrivateKey, *rsa.PublicKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key, &key.PublicKey
}

func CreateTenant(t *testing.T, db *gorm.DB, slug string) *models.Tenant {
	t.Helper()

	tenant := &models.Tenant{Slug: slug, Name: slug, Currency: "usd"}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func CreateUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "not-a-real-hash",
		Role:     role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateProduct(t *testing.T, db *gorm.DB, tenantID uint, name string, price int64, stock uint) *models.Product {
	t.Helper()

	product := &models.Product{
		TenantID: tenantID,
		Name:     name,
		Price:    price,
		Stock:    stock,
		ImageURL: "/uploads/" + name + ".png",
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

// TestConfig is a complete configuration pointing at nothing real.
func TestConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{
			Addr:                ":0",
			CorsOrigins:         []string{"http://localhost:5173"},
			UploadsDir:          "./uploads",
			DefaultTenant:       "default",
			PendingOrderTimeout: 30 * time.Minute,
			CleanupInterval:     time.Minute,
		},
		Database: config.DatabaseConfig{Driver: config.DriverSQLite},
		Redis:    config.RedisConfig{Addr: "localhost:6379"},
		JWT: config.JWTConfig{
			PrivateKeyPath: "private_key.pem",
			PublicKeyPath:  "public_key.pem",
			TokenTTL:       time.Hour,
		},
		Log: config.LogConfig{Level: "info", Type: config.LogTypeConsole},
		Payment: config.PaymentConfig{
			Provider:   config.PaymentProviderFake,
			SuccessURL: "http://localhost:5173/checkout/success",
			CancelURL:  "http://localhost:5173/checkout/cancel",
			Currency:   "usd",
		},
		Wallet: config.WalletConfig{
			BaseCurrency: "usd",
			Rates:        map[string]float64{"usd": 1, "twd": 31.5, "eur": 0.9},
		},
	}
}
