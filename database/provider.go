package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/tech-arch1tect/backoffice/config"
	"github.com/tech-arch1tect/backoffice/services/logging"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connection is the process-wide storage handle. Exactly one of SQL or Bolt is set.
type Connection struct {
	SQL  *gorm.DB
	Bolt *bbolt.DB
}

type ModelsOption struct {
	models []any
}

func WithModels(models ...any) *ModelsOption {
	return &ModelsOption{models: models}
}

func ProvideDatabase(cfg config.Config, modelsOpt *ModelsOption, logger *logging.Service) (*Connection, error) {
	if cfg.Database.Driver == "bolt" {
		db, err := OpenBolt(cfg.Database.DSN)
		if err != nil {
			logger.Error("failed to open document store", zap.String("path", cfg.Database.DSN), zap.Error(err))
			return nil, err
		}
		logger.Info("document store opened", zap.String("path", cfg.Database.DSN))
		return &Connection{Bolt: db}, nil
	}

	db, err := OpenSQL(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to connect to database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
		return nil, err
	}

	if cfg.Database.AutoMigrate && modelsOpt != nil && len(modelsOpt.models) > 0 {
		if err := db.AutoMigrate(modelsOpt.models...); err != nil {
			return nil, fmt.Errorf("failed to auto-migrate models: %w", err)
		}
	}

	logger.Info("database connected", zap.String("driver", cfg.Database.Driver))

	return &Connection{SQL: db}, nil
}

func OpenSQL(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres, mysql, bolt)", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// SQLite allows one writer; a single connection also keeps ":memory:" databases shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func OpenBolt(path string) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}
	return db, nil
}

func (c *Connection) Close() error {
	if c == nil {
		return nil
	}

	var errs []error
	if c.SQL != nil {
		if sqlDB, err := c.SQL.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		} else {
			errs = append(errs, err)
		}
	}
	if c.Bolt != nil {
		errs = append(errs, c.Bolt.Close())
	}

	return errors.Join(errs...)
}
