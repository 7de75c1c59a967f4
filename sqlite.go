//go:build sqlite

package main

// sqlite support

import (
	"github.com/davecheney/revise/internal/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newDialector(dsn string) gorm.Dialector {
	return &sqlite.Dialector{
		DSN: dsn,
	}
}

// configureDB ignores the pool settings, sqlite has a single writer.
func configureDB(db *gorm.DB, _ *config.DatabaseConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)

	// enable foreign key constraints
	return db.Exec("PRAGMA foreign_keys = ON").Error
}
