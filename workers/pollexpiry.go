package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/davecheney/revise/internal/config"
	"github.com/davecheney/revise/models"
	"golang.org/x/exp/slog"
	"gorm.io/gorm"
)

// NewStatusPollExpiryRequestProcessor closes polls once they expire.
func NewStatusPollExpiryRequestProcessor(db *gorm.DB, cfg *config.Config, logger *slog.Logger) func(context.Context) error {
	logger = logger.With("worker", "polls")
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Scopes(retryable(cfg.Workers.MaxAttempts)).Preload("StatusPoll").Where("run_at <= ?", time.Now())
	}
	return func(ctx context.Context) error {
		return loop(ctx, "StatusPollExpiryRequestProcessor", logger, cfg.Workers.Interval, func(ctx context.Context) error {
			return process(db.WithContext(ctx), scope, func(tx *gorm.DB, request *models.StatusPollExpiryRequest) error {
				return processStatusPollExpiryRequest(tx, logger, request)
			})
		})
	}
}

func processStatusPollExpiryRequest(tx *gorm.DB, logger *slog.Logger, request *models.StatusPollExpiryRequest) error {
	poll := request.StatusPoll
	if poll == nil {
		// replaced or removed by an edit
		return nil
	}
	if !poll.Expired(time.Now()) {
		return fmt.Errorf("poll %d expires at %v", poll.ID, poll.ExpiresAt)
	}
	var votes int64
	if err := tx.Model(&models.StatusPollOption{}).Where("status_poll_id = ?", poll.ID).Select("COALESCE(SUM(count), 0)").Scan(&votes).Error; err != nil {
		return fmt.Errorf("processStatusPollExpiryRequest: %w", err)
	}
	if err := tx.Model(poll).UpdateColumn("votes_count", votes).Error; err != nil {
		return fmt.Errorf("processStatusPollExpiryRequest: %w", err)
	}
	logger.Info("poll expired", "status_id", poll.StatusID, "poll_id", poll.ID, "votes", votes)
	return nil
}
