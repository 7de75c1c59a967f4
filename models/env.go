package models

import (
	"context"

	"golang.org/x/exp/slog"
	"gorm.io/gorm"
)

// Env is the environment request handlers run in.
type Env struct {
	// DB is the database connection.
	DB     *gorm.DB
	Logger *slog.Logger
}

func (e *Env) Log() *slog.Logger {
	return e.Logger
}

// ForContext returns a copy of the environment whose queries are bound to ctx.
func (e *Env) ForContext(ctx context.Context) *Env {
	return &Env{
		DB:     e.DB.WithContext(ctx),
		Logger: e.Logger,
	}
}
