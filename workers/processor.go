// Package workers drains the background job tables.
package workers

import (
	"context"
	"time"

	"golang.org/x/exp/slog"
	"gorm.io/gorm"
)

// process makes one pass through the objects matching the scope, calling fn for each one.
// If fn returns an error, the object is updated with the error and the process continues.
// If fn returns nil, the object is deleted.
func process[T any](db *gorm.DB, scope func(*gorm.DB) *gorm.DB, fn func(*gorm.DB, T) error) error {
	var requests []T
	return db.Scopes(scope).FindInBatches(&requests, 100, func(db *gorm.DB, batch int) error {
		return forEach(requests, func(request T) error {
			start := time.Now()
			if err := fn(db, request); err != nil {
				return db.Model(request).UpdateColumns(map[string]interface{}{
					"attempts":     gorm.Expr("attempts + 1"),
					"last_attempt": start,
					"last_result":  truncate(err.Error(), 255),
				}).Error
			}
			return db.Delete(request).Error
		})
	}).Error
}

// retryable limits a scope to requests which have been attempted fewer
// than max times.
func retryable(max int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("attempts < ?", max)
	}
}

// loop calls pass every interval until ctx is cancelled.
func loop(ctx context.Context, name string, logger *slog.Logger, interval time.Duration, pass func(context.Context) error) error {
	logger.Info("worker started", "worker", name)
	defer logger.Info("worker stopped", "worker", name)

	for {
		if err := pass(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
			// continue
		}
	}
}

func forEach[T any](a []T, fn func(T) error) error {
	for _, v := range a {
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
