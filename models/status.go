package models

import (
	"errors"
	"time"

	"github.com/davecheney/revise/internal/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// A Status is a single message posted by an Actor.
// The creation time of a Status is encoded in its ID.
type Status struct {
	ID          snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	UpdatedAt   time.Time
	EditedAt    *time.Time
	ActorID     snowflake.ID `gorm:"not null"`
	Actor       *Actor       `gorm:"constraint:OnDelete:CASCADE;<-:false;"` // don't update actor on status update
	Visibility  Visibility   `gorm:"not null"`
	Sensitive   bool         `gorm:"not null;default:false"`
	SpoilerText string       `gorm:"size:255;not null;default:''"`
	Language    string       `gorm:"size:8;not null;default:''"`
	Note        string       `gorm:"type:text"`
	URI         string       `gorm:"uniqueIndex;size:255"`
	// MediaAttachmentIDs is the order in which Attachments are presented.
	MediaAttachmentIDs datatypes.JSONSlice[snowflake.ID]
	Attachments        []*StatusAttachment `gorm:"constraint:OnDelete:SET NULL;"`
	Poll               *StatusPoll         `gorm:"constraint:OnDelete:CASCADE;"`
	Tags               []StatusTag         `gorm:"constraint:OnDelete:CASCADE;"`
	Mentions           []StatusMention     `gorm:"constraint:OnDelete:CASCADE;"`
	Card               *StatusCard         `gorm:"constraint:OnDelete:CASCADE;"`
}

// CreatedAt returns the time the status was created.
func (st *Status) CreatedAt() time.Time {
	return st.ID.ToTime()
}

// IsLocal returns true if the status was authored on this instance.
func (st *Status) IsLocal() bool {
	return st.Actor != nil && st.Actor.IsLocal()
}

// IsDistributable returns true if the status may appear on public timelines
// or profile pages.
func (st *Status) IsDistributable() bool {
	switch st.Visibility {
	case "public", "unlisted":
		return true
	default:
		return false
	}
}

// OrderedAttachments returns the status' attachments in presentation order.
// Attachments missing from MediaAttachmentIDs are appended in ID order.
func (st *Status) OrderedAttachments() []*StatusAttachment {
	byID := make(map[snowflake.ID]*StatusAttachment, len(st.Attachments))
	for _, att := range st.Attachments {
		byID[att.ID] = att
	}
	ordered := make([]*StatusAttachment, 0, len(st.Attachments))
	for _, id := range st.MediaAttachmentIDs {
		if att, ok := byID[id]; ok {
			ordered = append(ordered, att)
			delete(byID, id)
		}
	}
	for _, att := range st.Attachments {
		if _, ok := byID[att.ID]; ok {
			ordered = append(ordered, att)
		}
	}
	return ordered
}

type Visibility string

func (Visibility) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "enum('public', 'unlisted', 'private', 'direct', 'limited')"
	default:
		return "TEXT"
	}
}

type Statuses struct {
	db *gorm.DB
}

func NewStatuses(db *gorm.DB) *Statuses {
	return &Statuses{db: db}
}

func (s *Statuses) FindByID(id snowflake.ID) (*Status, error) {
	var status Status
	query := s.db.Joins("Actor").Scopes(PreloadStatus)
	if err := query.First(&status, id).Error; err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *Statuses) FindByURI(uri string) (*Status, error) {
	if uri == "" {
		return nil, errors.New("Statuses.FindByURI: uri is empty")
	}
	var status Status
	query := s.db.Joins("Actor").Scopes(PreloadStatus)
	if err := query.Where("statuses.uri = ?", uri).Take(&status).Error; err != nil {
		return nil, err
	}
	return &status, nil
}

// PreloadStatus preloads all of a Status' relations and associations.
func PreloadStatus(query *gorm.DB) *gorm.DB {
	return query.Preload("Attachments").
		Preload("Poll").Preload("Poll.Options", orderByID).
		Preload("Mentions").Preload("Mentions.Actor").
		Preload("Tags").Preload("Tags.Tag").
		Preload("Card")
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}
