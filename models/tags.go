package models

import (
	"fmt"
	"time"

	"github.com/davecheney/revise/internal/algorithms"
	"github.com/davecheney/revise/internal/snowflake"
	"github.com/davecheney/revise/internal/text"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// A Tag is a hashtag, unique by its normalised name.
type Tag struct {
	ID           uint32 `gorm:"primarykey"`
	CreatedAt    time.Time
	Name         string `gorm:"size:64;uniqueIndex;not null"`
	LastStatusAt *time.Time
}

type StatusTag struct {
	StatusID snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	TagID    uint32       `gorm:"primarykey;autoIncrement:false"`
	Tag      *Tag         `gorm:"constraint:OnDelete:CASCADE;"`
}

// TagUsage records the last time an actor used a tag in a public status.
type TagUsage struct {
	TagID   uint32       `gorm:"primarykey;autoIncrement:false"`
	Tag     *Tag         `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
	ActorID snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	Actor   *Actor       `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
	UsedAt  time.Time    `gorm:"not null"`
}

// A FeaturedTag is a tag an actor has chosen to feature on their profile,
// along with the number of their distributable statuses which use it.
type FeaturedTag struct {
	ID            uint32       `gorm:"primarykey"`
	ActorID       snowflake.ID `gorm:"uniqueIndex:idx_featured_tag_actor_tag;not null"`
	Actor         *Actor       `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
	TagID         uint32       `gorm:"uniqueIndex:idx_featured_tag_actor_tag;not null"`
	Tag           *Tag         `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
	StatusesCount int          `gorm:"not null;default:0"`
	LastStatusAt  *time.Time
}

// Tags reconciles the hashtags of a status.
type Tags struct {
	db *gorm.DB
}

func NewTags(db *gorm.DB) *Tags {
	return &Tags{db: db}
}

// Reconcile replaces the tags of status with the tags named.
// Names are normalised, invalid names are ignored. Newly added tags of public
// statuses are recorded as used by the status' actor. If featured is true the
// actor's featured tag counters are adjusted for distributable statuses.
func (t *Tags) Reconcile(status *Status, names []string, featured bool) error {
	tags, err := t.FindOrCreate(names...)
	if err != nil {
		return fmt.Errorf("Tags.Reconcile: %w", err)
	}
	var current []StatusTag
	if err := t.db.Preload("Tag").Where("status_id = ?", status.ID).Find(&current).Error; err != nil {
		return fmt.Errorf("Tags.Reconcile: %w", err)
	}

	tagID := func(tag *Tag) uint32 { return tag.ID }
	nextIDs := algorithms.Map(tags, tagID)
	currentIDs := algorithms.Map(current, func(st StatusTag) uint32 { return st.TagID })
	added := algorithms.Difference(nextIDs, currentIDs)
	removed := algorithms.Difference(currentIDs, nextIDs)

	if len(added) > 0 {
		rows := algorithms.Map(added, func(id uint32) StatusTag {
			return StatusTag{StatusID: status.ID, TagID: id}
		})
		if err := t.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
			return fmt.Errorf("Tags.Reconcile: %w", err)
		}
	}
	if len(removed) > 0 {
		if err := t.db.Where("status_id = ? AND tag_id IN ?", status.ID, removed).Delete(&StatusTag{}).Error; err != nil {
			return fmt.Errorf("Tags.Reconcile: %w", err)
		}
	}

	now := time.Now()
	if status.Visibility == "public" && len(added) > 0 {
		if err := t.recordUsage(status.ActorID, added, now); err != nil {
			return fmt.Errorf("Tags.Reconcile: %w", err)
		}
	}
	if featured && status.IsDistributable() {
		if err := t.updateFeatured(status, added, removed); err != nil {
			return fmt.Errorf("Tags.Reconcile: %w", err)
		}
	}

	status.Tags = algorithms.Map(tags, func(tag *Tag) StatusTag {
		return StatusTag{StatusID: status.ID, TagID: tag.ID, Tag: tag}
	})
	return nil
}

// FindOrCreate returns the tags with the given names, creating them as needed.
// The tags are returned in the order their names first appear.
func (t *Tags) FindOrCreate(names ...string) ([]*Tag, error) {
	var normalised []string
	for _, name := range names {
		if n, ok := text.NormalizeHashtag(name); ok {
			normalised = append(normalised, n)
		}
	}
	normalised = algorithms.Uniq(normalised)
	if len(normalised) == 0 {
		return nil, nil
	}

	rows := algorithms.Map(normalised, func(name string) *Tag { return &Tag{Name: name} })
	if err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&rows).Error; err != nil {
		return nil, err
	}

	var found []*Tag
	if err := t.db.Where("name IN ?", normalised).Find(&found).Error; err != nil {
		return nil, err
	}
	byName := make(map[string]*Tag, len(found))
	for _, tag := range found {
		byName[tag.Name] = tag
	}
	var tags []*Tag
	for _, name := range normalised {
		if tag, ok := byName[name]; ok {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

func (t *Tags) recordUsage(actorID snowflake.ID, tagIDs []uint32, now time.Time) error {
	usages := algorithms.Map(tagIDs, func(id uint32) TagUsage {
		return TagUsage{TagID: id, ActorID: actorID, UsedAt: now}
	})
	return forEach(t.db,
		func(tx *gorm.DB) error {
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "tag_id"}, {Name: "actor_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"used_at"}),
			}).Create(&usages).Error
		},
		func(tx *gorm.DB) error {
			return tx.Model(&Tag{}).Where("id IN ?", tagIDs).Update("last_status_at", now).Error
		},
	)
}

// updateFeatured adjusts the counters of the actor's featured tags which
// were added to or removed from status.
func (t *Tags) updateFeatured(status *Status, added, removed []uint32) error {
	return forEach(t.db,
		func(tx *gorm.DB) error {
			if len(added) == 0 {
				return nil
			}
			return tx.Model(&FeaturedTag{}).Where("actor_id = ? AND tag_id IN ?", status.ActorID, added).UpdateColumns(map[string]any{
				"statuses_count": gorm.Expr("statuses_count + 1"),
				"last_status_at": status.CreatedAt(),
			}).Error
		},
		func(tx *gorm.DB) error {
			if len(removed) == 0 {
				return nil
			}
			return tx.Model(&FeaturedTag{}).Where("actor_id = ? AND tag_id IN ?", status.ActorID, removed).UpdateColumns(map[string]any{
				"statuses_count": gorm.Expr("CASE WHEN statuses_count > 0 THEN statuses_count - 1 ELSE 0 END"),
			}).Error
		},
	)
}
