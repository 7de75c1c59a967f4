package models

import (
	"time"

	"github.com/davecheney/revise/internal/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// A StatusCard is the cached preview of the first link in a status.
type StatusCard struct {
	ID          uint32 `gorm:"primarykey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	StatusID    snowflake.ID `gorm:"uniqueIndex;not null"`
	URL         string       `gorm:"size:512;not null"`
	Title       string       `gorm:"size:255;not null;default:''"`
	Description string       `gorm:"type:text"`
	Image       string       `gorm:"size:512;not null;default:''"`
}

// A StatusCardRequest is a request to crawl the first link in a status
// and store its preview.
type StatusCardRequest struct {
	Request
	StatusID snowflake.ID `gorm:"uniqueIndex;not null"`
	Status   *Status      `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
}

// A StatusDistributionRequest is a request to deliver an edit of a status to
// its audience.
type StatusDistributionRequest struct {
	Request
	StatusID     snowflake.ID `gorm:"uniqueIndex:idx_status_distribution_status_edit;not null"`
	Status       *Status      `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
	StatusEditID snowflake.ID `gorm:"uniqueIndex:idx_status_distribution_status_edit;not null"`
	StatusEdit   *StatusEdit  `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
}

// Cards manages the link previews of statuses.
type Cards struct {
	db *gorm.DB
}

func NewCards(db *gorm.DB) *Cards {
	return &Cards{db: db}
}

// Reset discards the preview of the status.
func (c *Cards) Reset(statusID snowflake.ID) error {
	return c.db.Where("status_id = ?", statusID).Delete(&StatusCard{}).Error
}

// Enqueue requests the status' first link be crawled.
func (c *Cards) Enqueue(statusID snowflake.ID) error {
	return c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "status_id"}},
		DoUpdates: clause.Assignments(map[string]any{"attempts": 0}),
	}).Create(&StatusCardRequest{StatusID: statusID}).Error
}

// Save stores the preview of the status, replacing any existing preview.
func (c *Cards) Save(card *StatusCard) error {
	return c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "status_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "title", "description", "image", "updated_at"}),
	}).Create(card).Error
}
