//go:build postgres

package main

// postgres support

import (
	"github.com/davecheney/revise/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newDialector(dsn string) gorm.Dialector {
	return postgres.New(postgres.Config{
		DSN: dsn,
	})
}

func configureDB(db *gorm.DB, cfg *config.DatabaseConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return nil
}
