package cli

import (
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"storefront/config"
	"storefront/logger"
)

// app持有每個子命令共用的連線
type app struct {
	cfg config.Config
	log *logrus.Logger
	db  *gorm.DB
	rdb *redis.Client
}

func bootstrap(configPath string, withRedis bool) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "無法讀取設定檔")
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, errors.Wrap(err, "無法建立logger")
	}

	db, err := config.SetupDatabaseConnection(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "無法連接到資料庫")
	}

	a := &app{cfg: cfg, log: log, db: db}
	if withRedis {
		a.rdb = config.SetupRedisConnection(cfg)
	}
	return a, nil
}

func (a *app) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warnf("關閉Redis連線失敗: %v", err)
		}
	}
	if err := config.CloseDatabase(a.db); err != nil {
		a.log.Warnf("關閉資料庫連線失敗: %v", err)
	}
}
