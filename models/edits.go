package models

import (
	"fmt"
	"time"

	"github.com/davecheney/revise/internal/algorithms"
	"github.com/davecheney/revise/internal/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// A StatusEdit is an immutable snapshot of a Status taken after an edit.
// The first StatusEdit of a status is the state of the status before its
// first edit.
type StatusEdit struct {
	ID       snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	StatusID snowflake.ID `gorm:"index:idx_status_edits_status_id_created_at;not null"`
	Status   *Status      `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
	// ActorID is the actor who made the edit, if known.
	ActorID     *snowflake.ID
	Actor       *Actor `gorm:"constraint:OnDelete:SET NULL;<-:false;"`
	Note        string `gorm:"type:text"`
	SpoilerText string `gorm:"size:255;not null;default:''"`
	Sensitive   bool   `gorm:"not null;default:false"`
	// MediaChanged records whether the edit changed the attachments or the poll.
	MediaChanged       bool `gorm:"not null;default:false"`
	MediaAttachmentIDs datatypes.JSONSlice[snowflake.ID]
	MediaDescriptions  datatypes.JSONSlice[string]
	PollOptions        datatypes.JSONSlice[string]
	CreatedAt          time.Time `gorm:"index:idx_status_edits_status_id_created_at;autoCreateTime:false"`
}

func (e *StatusEdit) BeforeUpdate(tx *gorm.DB) error {
	return fmt.Errorf("StatusEdit %d: edits are immutable", e.ID)
}

// StatusEdits records the edit history of statuses.
type StatusEdits struct {
	db *gorm.DB
}

func NewStatusEdits(db *gorm.DB) *StatusEdits {
	return &StatusEdits{db: db}
}

// EnsureBaseline records the current state of status as its first edit,
// dated at the creation of the status, if the status has no edits.
// It must be called before status is modified.
func (e *StatusEdits) EnsureBaseline(status *Status) error {
	var count int64
	if err := e.db.Model(&StatusEdit{}).Where("status_id = ?", status.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("StatusEdits.EnsureBaseline: %w", err)
	}
	if count > 0 {
		return nil
	}
	createdAt := status.CreatedAt()
	edit, err := e.snapshot(status, snowflake.TimeToID(createdAt), nil, false, createdAt)
	if err != nil {
		return fmt.Errorf("StatusEdits.EnsureBaseline: %w", err)
	}
	if err := e.db.Create(edit).Error; err != nil {
		return fmt.Errorf("StatusEdits.EnsureBaseline: %w", err)
	}
	return nil
}

// Record appends the current state of status to its history, dated at the
// status' EditedAt time. actorID is the editor, or nil if not known.
func (e *StatusEdits) Record(status *Status, actorID *snowflake.ID, mediaChanged bool) (*StatusEdit, error) {
	createdAt := time.Now()
	if status.EditedAt != nil {
		createdAt = *status.EditedAt
	}
	edit, err := e.snapshot(status, snowflake.Now(), actorID, mediaChanged, createdAt)
	if err != nil {
		return nil, fmt.Errorf("StatusEdits.Record: %w", err)
	}
	if err := e.db.Create(edit).Error; err != nil {
		return nil, fmt.Errorf("StatusEdits.Record: %w", err)
	}
	return edit, nil
}

// History returns the edits of the status in the order they were recorded.
// The baseline is always first; the edit IDs, not their CreatedAt times,
// which come from the sender for remote statuses, give the order.
func (e *StatusEdits) History(statusID snowflake.ID) ([]*StatusEdit, error) {
	var edits []*StatusEdit
	err := e.db.Preload("Actor").Where("status_id = ?", statusID).Order("id ASC").Find(&edits).Error
	if err != nil {
		return nil, fmt.Errorf("StatusEdits.History: %w", err)
	}
	return edits, nil
}

// snapshot captures the persisted attachments and poll of status along with
// its in memory text.
func (e *StatusEdits) snapshot(status *Status, id snowflake.ID, actorID *snowflake.ID, mediaChanged bool, createdAt time.Time) (*StatusEdit, error) {
	query := e.db.Where("status_id = ?", status.ID)
	if len(status.MediaAttachmentIDs) > 0 {
		query = query.Or("id IN ?", []snowflake.ID(status.MediaAttachmentIDs))
	}
	var attachments []*StatusAttachment
	if err := query.Order("id").Find(&attachments).Error; err != nil {
		return nil, err
	}
	ordered := (&Status{Attachments: attachments, MediaAttachmentIDs: status.MediaAttachmentIDs}).OrderedAttachments()

	var options []StatusPollOption
	err := e.db.Joins("JOIN status_polls ON status_polls.id = status_poll_options.status_poll_id").
		Where("status_polls.status_id = ?", status.ID).Order("status_poll_options.id").Find(&options).Error
	if err != nil {
		return nil, err
	}

	return &StatusEdit{
		ID:           id,
		StatusID:     status.ID,
		ActorID:      actorID,
		Note:         status.Note,
		SpoilerText:  status.SpoilerText,
		Sensitive:    status.Sensitive,
		MediaChanged: mediaChanged,
		MediaAttachmentIDs: algorithms.Map(ordered, func(att *StatusAttachment) snowflake.ID {
			return att.ID
		}),
		MediaDescriptions: algorithms.Map(ordered, func(att *StatusAttachment) string {
			return att.Description
		}),
		PollOptions: algorithms.Map(options, func(o StatusPollOption) string {
			return o.Title
		}),
		CreatedAt: createdAt,
	}, nil
}
