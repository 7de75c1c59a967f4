package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/davecheney/revise/internal/algorithms"
	"github.com/davecheney/revise/internal/config"
	"github.com/davecheney/revise/internal/lang"
	"github.com/davecheney/revise/internal/snowflake"
	"github.com/davecheney/revise/internal/text"
	"golang.org/x/exp/slog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// A ValidationError reports an edit which was refused before any change was made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// UpdateOptions describes a local edit. A nil field leaves the corresponding
// attribute of the status unchanged, except for MediaIDs and Poll which
// always describe the complete desired state.
type UpdateOptions struct {
	Text        *string
	SpoilerText *string
	Sensitive   *bool
	Language    *string
	MediaIDs    []snowflake.ID
	Poll        *PollOptions
}

type PollOptions struct {
	Options    []string
	Multiple   bool
	HideTotals bool
	ExpiresIn  time.Duration
}

// A RemoteNote is the desired state of a remote status, as described by a
// federated Note or Question.
type RemoteNote struct {
	// ID is the object identifier of the status.
	ID          string
	Type        string
	Content     string
	Summary     string
	Language    string
	Sensitive   bool
	Updated     time.Time
	Attachments []RemoteAttachment
	Hashtags    []string
}

// StatusUpdater applies edits to statuses.
type StatusUpdater struct {
	db     *gorm.DB
	logger *slog.Logger
	cfg    *config.Config
}

func NewStatusUpdater(db *gorm.DB, logger *slog.Logger, cfg *config.Config) *StatusUpdater {
	return &StatusUpdater{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}
}

// UpdateLocal applies opts, an edit made by actor, to status.
// Invalid options are rejected with a *ValidationError before anything is
// written. The attachments, poll, text and edit history of the status
// change together; tags, mentions, link previews and distribution follow
// the commit and their failures are logged rather than returned.
func (u *StatusUpdater) UpdateLocal(ctx context.Context, status *Status, actor *Actor, opts *UpdateOptions) (*Status, error) {
	db := u.db.WithContext(ctx)
	media := NewMediaAttachments(db, u.logger, u.cfg.Statuses.MaxMediaAttachments)
	if err := u.validate(media, status, actor, opts); err != nil {
		return nil, err
	}

	now := time.Now()
	original := *status
	var edit *StatusEdit
	var textChanged bool
	err := db.Transaction(func(tx *gorm.DB) error {
		edits := NewStatusEdits(tx)
		if err := edits.EnsureBaseline(status); err != nil {
			return err
		}
		mediaChanged, err := NewMediaAttachments(tx, u.logger, u.cfg.Statuses.MaxMediaAttachments).AttachLocal(status, actor, opts.MediaIDs)
		if err != nil {
			return err
		}
		pollChanged, err := NewPolls(tx).Reconcile(status, opts.Poll.target(now))
		if err != nil {
			return err
		}
		previousNote := status.Note
		applyLocalAttributes(status, opts, now)
		textChanged = previousNote != status.Note
		if err := save(tx, status); err != nil {
			return err
		}
		edit, err = edits.Record(status, &actor.ID, mediaChanged || pollChanged)
		return err
	})
	if err != nil {
		*status = original
		return nil, fmt.Errorf("StatusUpdater.UpdateLocal: %w", err)
	}

	u.afterLocalUpdate(db, status, actor, edit, textChanged)
	return status, nil
}

func (u *StatusUpdater) validate(media *MediaAttachments, status *Status, actor *Actor, opts *UpdateOptions) error {
	max := u.cfg.Statuses.MaxMediaAttachments
	if len(opts.MediaIDs) > max {
		return invalid("cannot attach more than %d media attachments", max)
	}
	if len(opts.MediaIDs) > 0 && opts.Poll != nil {
		return invalid("cannot attach media to a poll")
	}
	if opts.Poll != nil {
		if err := u.validatePoll(opts.Poll); err != nil {
			return err
		}
	}
	attachments, err := media.FindAttachable(status, actor, opts.MediaIDs)
	if err != nil {
		return fmt.Errorf("StatusUpdater.UpdateLocal: %w", err)
	}
	for _, att := range attachments {
		if !att.IsReady() {
			return invalid("media attachment %d has not finished processing", att.ID)
		}
	}
	if len(attachments) > 1 && len(algorithms.Filter(attachments, (*StatusAttachment).IsAudioOrVideo)) > 0 {
		return invalid("cannot attach a video or audio file to a status with other attachments")
	}
	return nil
}

func (u *StatusUpdater) validatePoll(poll *PollOptions) error {
	limits := u.cfg.Polls
	switch n := len(poll.Options); {
	case n < limits.MinOptions:
		return invalid("poll must have at least %d options", limits.MinOptions)
	case n > limits.MaxOptions:
		return invalid("poll cannot have more than %d options", limits.MaxOptions)
	}
	if len(algorithms.Uniq(poll.Options)) != len(poll.Options) {
		return invalid("poll options must be unique")
	}
	for _, option := range poll.Options {
		if strings.TrimSpace(option) == "" {
			return invalid("poll options cannot be blank")
		}
		if utf8.RuneCountInString(option) > limits.MaxCharsPerOption {
			return invalid("poll options cannot be longer than %d characters", limits.MaxCharsPerOption)
		}
	}
	if poll.ExpiresIn < limits.MinExpiration || poll.ExpiresIn > limits.MaxExpiration {
		return invalid("poll duration must be between %v and %v", limits.MinExpiration, limits.MaxExpiration)
	}
	return nil
}

func (p *PollOptions) target(now time.Time) *PollTarget {
	if p == nil {
		return nil
	}
	return &PollTarget{
		Options:    p.Options,
		Multiple:   p.Multiple,
		HideTotals: p.HideTotals,
		ExpiresAt:  now.Add(p.ExpiresIn),
	}
}

func applyLocalAttributes(status *Status, opts *UpdateOptions, now time.Time) {
	if opts.Text != nil {
		note := *opts.Text
		if note == "" && opts.SpoilerText != nil {
			note = *opts.SpoilerText
		}
		status.Note = note
	}
	if opts.SpoilerText != nil {
		status.SpoilerText = *opts.SpoilerText
	}
	if opts.Sensitive != nil || opts.SpoilerText != nil {
		status.Sensitive = (opts.Sensitive != nil && *opts.Sensitive) || status.SpoilerText != ""
	}
	if opts.Language != nil {
		status.Language = lang.OrDefault(*opts.Language, status.Language)
	}
	status.EditedAt = &now
}

// afterLocalUpdate performs the best effort follow up of a committed local edit.
func (u *StatusUpdater) afterLocalUpdate(db *gorm.DB, status *Status, actor *Actor, edit *StatusEdit, textChanged bool) {
	log := u.logger.With("status_id", status.ID)
	if textChanged {
		cards := NewCards(db)
		if err := cards.Reset(status.ID); err != nil {
			log.Warn("reset preview card", "err", err)
		}
		if status.SpoilerText == "" {
			if err := cards.Enqueue(status.ID); err != nil {
				log.Warn("enqueue preview card", "err", err)
			}
		}
	}
	if err := NewTags(db).Reconcile(status, text.Hashtags(status.Note), true); err != nil {
		log.Warn("reconcile tags", "err", err)
	}
	if err := NewMentions(db).Reconcile(status, actor, text.Mentions(status.Note)); err != nil {
		log.Warn("reconcile mentions", "err", err)
	}
	if err := db.Create(&StatusDistributionRequest{StatusID: status.ID, StatusEditID: edit.ID}).Error; err != nil {
		log.Warn("enqueue distribution", "err", err)
	}
	if status.Poll != nil {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "status_poll_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"run_at", "updated_at"}),
		}).Create(&StatusPollExpiryRequest{
			StatusPollID: status.Poll.ID,
			RunAt:        status.Poll.ExpiresAt,
		}).Error
		if err != nil {
			log.Warn("schedule poll expiry", "err", err)
		}
	}
}

// UpdateRemote applies note, the current state of a remote status, to status.
// Everything, including the tags of the status, changes in one transaction.
// The caller is responsible for serialising updates to the same status.
func (u *StatusUpdater) UpdateRemote(ctx context.Context, status *Status, note *RemoteNote) error {
	db := u.db.WithContext(ctx)
	original := *status
	err := db.Transaction(func(tx *gorm.DB) error {
		if status.Actor == nil {
			var actor Actor
			if err := tx.Take(&actor, status.ActorID).Error; err != nil {
				return err
			}
			status.Actor = &actor
		}
		edits := NewStatusEdits(tx)
		if err := edits.EnsureBaseline(status); err != nil {
			return err
		}
		mediaChanged, err := NewMediaAttachments(tx, u.logger, u.cfg.Statuses.MaxMediaAttachments).ReconcileRemote(status, note.Attachments)
		if err != nil {
			return err
		}
		pollChanged := false
		if note.Type != "Question" {
			if pollChanged, err = NewPolls(tx).DestroyOnly(status); err != nil {
				return err
			}
		}
		applyRemoteAttributes(status, note, time.Now())
		if err := save(tx, status); err != nil {
			return err
		}
		if err := NewTags(tx).Reconcile(status, note.Hashtags, false); err != nil {
			return err
		}
		_, err = edits.Record(status, nil, mediaChanged || pollChanged)
		return err
	})
	if err != nil {
		*status = original
		return fmt.Errorf("StatusUpdater.UpdateRemote: %w", err)
	}
	return nil
}

func applyRemoteAttributes(status *Status, note *RemoteNote, now time.Time) {
	status.Note = note.Content
	status.SpoilerText = note.Summary
	status.Sensitive = status.Actor.Sensitized || note.Sensitive
	status.Language = note.Language
	editedAt := now
	if !note.Updated.IsZero() {
		editedAt = note.Updated
	}
	status.EditedAt = &editedAt
}

// save writes the edited attributes of status.
func save(tx *gorm.DB, status *Status) error {
	if status.ID == 0 {
		return errors.New("save: status has no ID")
	}
	return tx.Model(status).Omit(clause.Associations).
		Select("Note", "SpoilerText", "Sensitive", "Language", "EditedAt", "MediaAttachmentIDs", "UpdatedAt").
		Updates(status).Error
}
