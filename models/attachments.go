package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/davecheney/revise/internal/algorithms"
	"github.com/davecheney/revise/internal/snowflake"
	"github.com/davecheney/revise/internal/urls"
	"golang.org/x/exp/slog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// A StatusAttachment is an image, video or audio file which may be
// attached to a Status. Detaching an attachment clears its StatusID,
// the attachment itself is retained.
type StatusAttachment struct {
	ID        snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
	// ActorID is the owner of the attachment.
	ActorID  snowflake.ID  `gorm:"index;not null"`
	StatusID *snowflake.ID `gorm:"index"`
	// MediaType is the mime type of the attachment.
	MediaType string `gorm:"size:64;not null;default:''"`
	// URL is the location of the local copy of the attachment.
	URL string `gorm:"size:512;not null;default:''"`
	// RemoteURL is the normalised source URL of a remote attachment.
	// It identifies the attachment among the attachments of its status.
	RemoteURL          string     `gorm:"size:512;not null;default:''"`
	ThumbnailRemoteURL string     `gorm:"size:512;not null;default:''"`
	Description        string     `gorm:"type:text"`
	Blurhash           string     `gorm:"size:36;not null;default:''"`
	Width              int        `gorm:"not null;default:0"`
	Height             int        `gorm:"not null;default:0"`
	FocalPoint         FocalPoint `gorm:"embedded;embeddedPrefix:focal_point_"`
	// ProcessedAt is the time the attachment finished processing.
	// An attachment which has not been processed cannot be attached locally.
	ProcessedAt *time.Time
}

type FocalPoint struct {
	X float64 `gorm:"not null;default:0"`
	Y float64 `gorm:"not null;default:0"`
}

// Type returns the Mastodon type of the attachment, image, gifv, video, audio or unknown.
func (att *StatusAttachment) Type() string {
	switch att.MediaType {
	case "image/gif+video":
		return "gifv"
	}
	switch strings.SplitN(att.MediaType, "/", 2)[0] {
	case "image":
		return "image"
	case "video":
		return "video"
	case "audio":
		return "audio"
	default:
		return "unknown"
	}
}

func (att *StatusAttachment) IsAudioOrVideo() bool {
	switch att.Type() {
	case "audio", "video":
		return true
	default:
		return false
	}
}

// IsReady returns true once the attachment has been processed.
func (att *StatusAttachment) IsReady() bool {
	return att.ProcessedAt != nil
}

// A StatusAttachmentRequest records a request to (re)download a remote attachment.
type StatusAttachmentRequest struct {
	Request
	// StatusAttachmentID is the ID of the StatusAttachment that the request is for.
	StatusAttachmentID snowflake.ID `gorm:"uniqueIndex;not null;"`
	// StatusAttachment is the StatusAttachment that the request is for.
	StatusAttachment *StatusAttachment `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
}

// A RemoteAttachment is the desired state of one attachment of a remote status.
type RemoteAttachment struct {
	URL          string
	ThumbnailURL string
	MediaType    string
	Description  string
	Blurhash     string
	FocalPoint   FocalPoint
}

// MediaAttachments reconciles the set of attachments of a status.
type MediaAttachments struct {
	db     *gorm.DB
	logger *slog.Logger
	max    int
}

// NewMediaAttachments returns a MediaAttachments which will attach at most max
// attachments to a status.
func NewMediaAttachments(db *gorm.DB, logger *slog.Logger, max int) *MediaAttachments {
	return &MediaAttachments{db: db, logger: logger, max: max}
}

// ReconcileRemote brings the attachments of the remote status into line with targets.
// Targets are matched to the status' existing attachments by normalised source URL;
// unmatched targets create new attachments owned by the status' actor.
// Only the first max targets are considered; those whose URL cannot be
// normalised are skipped.
// ReconcileRemote returns true if the set of attachments changed.
func (m *MediaAttachments) ReconcileRemote(status *Status, targets []RemoteAttachment) (bool, error) {
	current, err := m.current(status)
	if err != nil {
		return false, fmt.Errorf("MediaAttachments.ReconcileRemote: %w", err)
	}
	byURL := make(map[string]*StatusAttachment, len(current))
	for _, att := range current {
		if u, err := urls.Normalize(att.RemoteURL); err == nil {
			byURL[u] = att
		}
	}

	if len(targets) > m.max {
		targets = targets[:m.max]
	}
	var next []*StatusAttachment
	for _, target := range targets {
		remoteURL, err := urls.Normalize(target.URL)
		if err != nil {
			m.logger.Debug("skipping attachment", "status_id", status.ID, "url", target.URL, "err", err)
			continue
		}
		thumbnailURL := ""
		if target.ThumbnailURL != "" {
			if thumbnailURL, err = urls.Normalize(target.ThumbnailURL); err != nil {
				m.logger.Debug("ignoring attachment thumbnail", "status_id", status.ID, "url", target.ThumbnailURL, "err", err)
				thumbnailURL = ""
			}
		}

		att, found := byURL[remoteURL]
		if found && algorithms.Contains(next, att) {
			// the same source listed twice
			continue
		}
		if !found {
			att = &StatusAttachment{
				ID:      snowflake.Now(),
				ActorID: status.ActorID,
			}
			byURL[remoteURL] = att
		}
		redownload := !found || att.RemoteURL != remoteURL || att.ThumbnailRemoteURL != thumbnailURL
		att.RemoteURL = remoteURL
		att.ThumbnailRemoteURL = thumbnailURL
		att.Description = target.Description
		att.FocalPoint = target.FocalPoint
		att.Blurhash = target.Blurhash
		if target.MediaType != "" {
			att.MediaType = target.MediaType
		}
		if err := m.db.Omit(clause.Associations).Save(att).Error; err != nil {
			return false, fmt.Errorf("MediaAttachments.ReconcileRemote: %w", err)
		}
		if redownload {
			if err := m.enqueueRedownload(att); err != nil {
				return false, fmt.Errorf("MediaAttachments.ReconcileRemote: %w", err)
			}
		}
		next = append(next, att)
	}
	return m.apply(status, current, next)
}

// AttachLocal attaches the actor's attachments with the given IDs, in order,
// to the status. Attachments which do not belong to the actor, or which are
// attached to another status, are ignored. At most max IDs are considered.
// AttachLocal returns true if the set of attachments changed.
func (m *MediaAttachments) AttachLocal(status *Status, actor *Actor, ids []snowflake.ID) (bool, error) {
	current, err := m.current(status)
	if err != nil {
		return false, fmt.Errorf("MediaAttachments.AttachLocal: %w", err)
	}
	next, err := m.FindAttachable(status, actor, ids)
	if err != nil {
		return false, fmt.Errorf("MediaAttachments.AttachLocal: %w", err)
	}
	return m.apply(status, current, next)
}

// FindAttachable returns the attachments among ids which the actor may attach to status,
// in the order requested.
func (m *MediaAttachments) FindAttachable(status *Status, actor *Actor, ids []snowflake.ID) ([]*StatusAttachment, error) {
	ids = algorithms.Uniq(ids)
	if len(ids) > m.max {
		ids = ids[:m.max]
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var found []*StatusAttachment
	err := m.db.Where("actor_id = ? AND (status_id IS NULL OR status_id = ?) AND id IN ?", actor.ID, status.ID, ids).Find(&found).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]*StatusAttachment, len(found))
	for _, att := range found {
		byID[att.ID] = att
	}
	var attachable []*StatusAttachment
	for _, id := range ids {
		if att, ok := byID[id]; ok {
			attachable = append(attachable, att)
		}
	}
	return attachable, nil
}

// current returns the attachments which currently reference the status.
func (m *MediaAttachments) current(status *Status) ([]*StatusAttachment, error) {
	var current []*StatusAttachment
	if err := m.db.Where("status_id = ?", status.ID).Order("id").Find(&current).Error; err != nil {
		return nil, err
	}
	return current, nil
}

// apply detaches the attachments in current which are not in next, attaches next
// and records the order of next on the status.
func (m *MediaAttachments) apply(status *Status, current, next []*StatusAttachment) (bool, error) {
	id := func(att *StatusAttachment) snowflake.ID { return att.ID }
	previousIDs := algorithms.Map(current, id)
	nextIDs := algorithms.Map(next, id)

	removed := algorithms.Difference(previousIDs, nextIDs)
	if len(removed) > 0 {
		if err := m.db.Model(&StatusAttachment{}).Where("id IN ?", removed).Update("status_id", nil).Error; err != nil {
			return false, fmt.Errorf("MediaAttachments.apply: detach: %w", err)
		}
	}
	if len(nextIDs) > 0 {
		if err := m.db.Model(&StatusAttachment{}).Where("id IN ?", nextIDs).Update("status_id", status.ID).Error; err != nil {
			return false, fmt.Errorf("MediaAttachments.apply: attach: %w", err)
		}
	}
	for _, att := range next {
		att.StatusID = &status.ID
	}
	status.MediaAttachmentIDs = nextIDs
	status.Attachments = next
	if err := m.db.Model(status).UpdateColumn("media_attachment_ids", status.MediaAttachmentIDs).Error; err != nil {
		return false, fmt.Errorf("MediaAttachments.apply: %w", err)
	}
	return !algorithms.SameSet(previousIDs, nextIDs), nil
}

func (m *MediaAttachments) enqueueRedownload(att *StatusAttachment) error {
	return m.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "status_attachment_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"attempts":    0,
			"last_result": "",
		}),
	}).Create(&StatusAttachmentRequest{
		StatusAttachmentID: att.ID,
	}).Error
}
