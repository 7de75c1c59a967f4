//go:build !sqlite && !postgres

package main

// mysql support

import (
	"strings"

	"github.com/davecheney/revise/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newDialector(dsn string) gorm.Dialector {
	return mysql.New(mysql.Config{
		DSN:                       mergeOptions(dsn, "charset=utf8mb4&parseTime=True&loc=Local"),
		SkipInitializeWithVersion: false, // auto configure based on currently MySQL version
	})
}

// mergeOptions appends each of options to the DSN unless the DSN already sets it.
func mergeOptions(dsn, options string) string {
	for _, opt := range strings.Split(options, "&") {
		key, _, _ := strings.Cut(opt, "=")
		if key == "" || strings.Contains(dsn, "?"+key+"=") || strings.Contains(dsn, "&"+key+"=") {
			continue
		}
		if strings.Contains(dsn, "?") {
			dsn += "&" + opt
		} else {
			dsn += "?" + opt
		}
	}
	return dsn
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
