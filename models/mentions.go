package models

import (
	"fmt"

	"github.com/davecheney/revise/internal/algorithms"
	"github.com/davecheney/revise/internal/snowflake"
	"github.com/davecheney/revise/internal/text"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatusMention struct {
	StatusID snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	ActorID  snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	Actor    *Actor       `gorm:"constraint:OnDelete:CASCADE;<-:false;"` // don't update actor on mention update
}

// Mentions reconciles the mentions of a status.
type Mentions struct {
	db *gorm.DB
}

func NewMentions(db *gorm.DB) *Mentions {
	return &Mentions{db: db}
}

// Reconcile replaces the mentions of status with the known actors named in mentions.
// Mentions without a domain refer to actors on the same domain as the status' author.
// Actors which are not already known are ignored.
func (m *Mentions) Reconcile(status *Status, author *Actor, mentions []text.Mention) error {
	pairs := algorithms.Map(mentions, func(mention text.Mention) [2]string {
		domain := mention.Domain
		if domain == "" {
			domain = author.Domain
		}
		return [2]string{mention.Username, domain}
	})
	actors, err := NewActors(m.db).FindByNames(pairs...)
	if err != nil {
		return fmt.Errorf("Mentions.Reconcile: %w", err)
	}
	var current []StatusMention
	if err := m.db.Where("status_id = ?", status.ID).Find(&current).Error; err != nil {
		return fmt.Errorf("Mentions.Reconcile: %w", err)
	}

	nextIDs := algorithms.Map(actors, func(a *Actor) snowflake.ID { return a.ID })
	currentIDs := algorithms.Map(current, func(sm StatusMention) snowflake.ID { return sm.ActorID })
	if added := algorithms.Difference(nextIDs, currentIDs); len(added) > 0 {
		rows := algorithms.Map(added, func(id snowflake.ID) StatusMention {
			return StatusMention{StatusID: status.ID, ActorID: id}
		})
		if err := m.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
			return fmt.Errorf("Mentions.Reconcile: %w", err)
		}
	}
	if removed := algorithms.Difference(currentIDs, nextIDs); len(removed) > 0 {
		if err := m.db.Where("status_id = ? AND actor_id IN ?", status.ID, removed).Delete(&StatusMention{}).Error; err != nil {
			return fmt.Errorf("Mentions.Reconcile: %w", err)
		}
	}
	status.Mentions = algorithms.Map(actors, func(a *Actor) StatusMention {
		return StatusMention{StatusID: status.ID, ActorID: a.ID, Actor: a}
	})
	return nil
}
