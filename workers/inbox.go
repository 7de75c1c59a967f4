package workers

import (
	"context"

	"github.com/davecheney/revise/activitypub"
	"github.com/davecheney/revise/internal/config"
	"github.com/davecheney/revise/models"
	"golang.org/x/exp/slog"
	"gorm.io/gorm"
)

// NewInboxProcessor applies queued inbox activities in the order they
// arrived. An activity which could not be applied, for example because
// another process holds the lease on its object, is retried on the next pass.
func NewInboxProcessor(db *gorm.DB, inbox *activitypub.Inbox, cfg *config.Config, logger *slog.Logger) func(context.Context) error {
	// FindInBatches walks the queue in primary key order.
	scope := retryable(cfg.Workers.MaxAttempts)
	return func(ctx context.Context) error {
		return loop(ctx, "InboxProcessor", logger, cfg.Workers.Interval, func(ctx context.Context) error {
			return process(db.WithContext(ctx), scope, processInboxActivity(inbox))
		})
	}
}

func processInboxActivity(inbox *activitypub.Inbox) func(*gorm.DB, *models.InboxActivity) error {
	return func(tx *gorm.DB, activity *models.InboxActivity) error {
		return inbox.Process(tx.Statement.Context, activity.Activity)
	}
}
