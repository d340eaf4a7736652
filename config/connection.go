package config

import (
	"fmt"
	"storefront/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 依照driver建立資料庫連線
func SetupDatabaseConnection(config Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch config.Database.Driver {
	case DriverMySQL:
		dialector = mysql.Open(config.Database.MySQLDSN())
	case DriverPostgres:
		dialector = postgres.Open(config.Database.DSN)
	case DriverSQLite:
		dsn := config.Database.DSN
		if dsn == "" {
			dsn = "storefront.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("不支援的資料庫類型: %s", config.Database.Driver)
	}

	logLevel := logger.Warn
	if config.Log.Level == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// 匿名購物車的UserID為0，不建立外鍵
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("無法連接到資料庫: %w", err)
	}

	if config.Database.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("資料表遷移失敗: %w", err)
	}
	return nil
}

func CloseDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func SetupRedisConnection(config Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.Database,
	})
}
