package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/davecheney/revise/internal/config"
	"github.com/davecheney/revise/media"
	"github.com/davecheney/revise/models"
	"golang.org/x/exp/slog"
	"gorm.io/gorm"
)

// NewStatusAttachmentRequestProcessor downloads remote attachments and
// records their media type and dimensions.
func NewStatusAttachmentRequestProcessor(db *gorm.DB, fetcher *media.Fetcher, cfg *config.Config, logger *slog.Logger) func(context.Context) error {
	p := &statusAttachmentProcessor{
		fetcher: fetcher,
		timeout: cfg.Media.Timeout,
		logger:  logger.With("worker", "attachments"),
	}
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Scopes(retryable(cfg.Workers.MaxAttempts)).Preload("StatusAttachment")
	}
	return func(ctx context.Context) error {
		return loop(ctx, "StatusAttachmentRequestProcessor", logger, cfg.Workers.Interval, func(ctx context.Context) error {
			return process(db.WithContext(ctx), scope, p.process)
		})
	}
}

type statusAttachmentProcessor struct {
	fetcher *media.Fetcher
	timeout time.Duration
	logger  *slog.Logger
}

func (p *statusAttachmentProcessor) process(tx *gorm.DB, request *models.StatusAttachmentRequest) error {
	att := request.StatusAttachment
	if att == nil || att.RemoteURL == "" {
		// nothing to fetch
		return nil
	}
	p.logger.Debug("fetching", "attachment_id", att.ID, "url", att.RemoteURL)
	ctx, cancel := context.WithTimeout(tx.Statement.Context, p.timeout)
	defer cancel()

	body, err := p.fetcher.Fetch(ctx, att.RemoteURL)
	if err != nil {
		return err
	}
	info, err := media.Probe(body)
	if err != nil {
		return err
	}
	if att.MediaType != "" && att.MediaType != info.MediaType {
		p.logger.Info("content type mismatch", "attachment_id", att.ID, "declared", att.MediaType, "detected", info.MediaType)
	}
	if info.MediaType == "application/octet-stream" && att.MediaType != "" {
		// trust the sender when the contents are unrecognisable.
		info.MediaType = att.MediaType
	}
	now := time.Now()
	err = tx.Model(att).Updates(map[string]any{
		"media_type":   info.MediaType,
		"width":        info.Width,
		"height":       info.Height,
		"url":          media.ProxyURL(att),
		"processed_at": now,
	}).Error
	if err != nil {
		return fmt.Errorf("processStatusAttachmentRequest: %w", err)
	}
	return nil
}
