package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/davecheney/revise/internal/algorithms"
	"github.com/davecheney/revise/internal/snowflake"
	"gorm.io/gorm"
)

// A StatusPoll is a poll attached to a Status. A poll's options never change;
// a status whose options change receives a new poll.
type StatusPoll struct {
	ID         snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	StatusID   snowflake.ID `gorm:"uniqueIndex;not null"`
	ExpiresAt  time.Time
	Multiple   bool               `gorm:"not null;default:false"`
	HideTotals bool               `gorm:"not null;default:false"`
	VotesCount int                `gorm:"not null;default:0"`
	Options    []StatusPollOption `gorm:"constraint:OnDelete:CASCADE;"`
}

func (st *StatusPoll) AfterCreate(tx *gorm.DB) error {
	return forEach(tx, st.updateVotesCount)
}

func (st *StatusPoll) updateVotesCount(tx *gorm.DB) error {
	votesCount := tx.Select("COALESCE(SUM(count), 0)").Where("status_poll_id = ?", st.ID).Table("status_poll_options")
	poll := &StatusPoll{ID: st.ID}
	return tx.Model(poll).UpdateColumns(map[string]interface{}{
		"votes_count": votesCount,
	}).Error
}

// OptionTitles returns the titles of the poll's options, in order.
func (st *StatusPoll) OptionTitles() []string {
	return algorithms.Map(st.Options, func(o StatusPollOption) string { return o.Title })
}

// Expired returns true if the poll has expired at time now.
func (st *StatusPoll) Expired(now time.Time) bool {
	return !st.ExpiresAt.IsZero() && !now.Before(st.ExpiresAt)
}

type StatusPollOption struct {
	ID           uint32       `gorm:"primarykey;autoIncrement:true"`
	StatusPollID snowflake.ID `gorm:"index;not null"`
	Title        string       `gorm:"size:255;not null"`
	Count        int          `gorm:"not null;default:0"`
}

// A StatusPollExpiryRequest schedules the expiry notification of a poll.
// Requests are not processed before RunAt.
type StatusPollExpiryRequest struct {
	Request
	StatusPollID snowflake.ID `gorm:"uniqueIndex;not null"`
	StatusPoll   *StatusPoll  `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
	RunAt        time.Time    `gorm:"index;not null"`
}

// A PollTarget is the desired state of a status' poll.
type PollTarget struct {
	Options    []string
	Multiple   bool
	HideTotals bool
	ExpiresAt  time.Time
}

// Polls reconciles the poll of a status.
type Polls struct {
	db *gorm.DB
}

func NewPolls(db *gorm.DB) *Polls {
	return &Polls{db: db}
}

// Reconcile brings the poll of status into line with target.
// A nil target removes the poll. If the status already has a poll with
// the same options, in the same order, it is updated in place and its votes are
// kept, otherwise the existing poll is replaced.
// Reconcile returns true if a poll was created or destroyed.
func (p *Polls) Reconcile(status *Status, target *PollTarget) (bool, error) {
	existing, err := p.find(status)
	if err != nil {
		return false, fmt.Errorf("Polls.Reconcile: %w", err)
	}
	if target == nil {
		if existing == nil {
			status.Poll = nil
			return false, nil
		}
		if err := p.destroy(existing); err != nil {
			return false, fmt.Errorf("Polls.Reconcile: %w", err)
		}
		status.Poll = nil
		return true, nil
	}

	if existing != nil && algorithms.SliceEqual(existing.OptionTitles(), target.Options) {
		existing.Multiple = target.Multiple
		existing.HideTotals = target.HideTotals
		existing.ExpiresAt = target.ExpiresAt
		err := p.db.Model(existing).Select("Multiple", "HideTotals", "ExpiresAt").Updates(existing).Error
		if err != nil {
			return false, fmt.Errorf("Polls.Reconcile: %w", err)
		}
		status.Poll = existing
		return false, nil
	}

	if existing != nil {
		if err := p.destroy(existing); err != nil {
			return false, fmt.Errorf("Polls.Reconcile: %w", err)
		}
	}
	poll := &StatusPoll{
		ID:         snowflake.Now(),
		StatusID:   status.ID,
		ExpiresAt:  target.ExpiresAt,
		Multiple:   target.Multiple,
		HideTotals: target.HideTotals,
		Options: algorithms.Map(target.Options, func(title string) StatusPollOption {
			return StatusPollOption{Title: title}
		}),
	}
	if err := p.db.Create(poll).Error; err != nil {
		return false, fmt.Errorf("Polls.Reconcile: %w", err)
	}
	status.Poll = poll
	return true, nil
}

// DestroyOnly removes the poll of status, if any. Remote statuses never have
// their poll options updated, they only lose their poll when they stop being
// a Question.
func (p *Polls) DestroyOnly(status *Status) (bool, error) {
	return p.Reconcile(status, nil)
}

func (p *Polls) find(status *Status) (*StatusPoll, error) {
	var poll StatusPoll
	err := p.db.Preload("Options", orderByID).Where("status_id = ?", status.ID).Take(&poll).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	default:
		return &poll, nil
	}
}

func (p *Polls) destroy(poll *StatusPoll) error {
	return forEach(p.db,
		func(tx *gorm.DB) error {
			return tx.Where("status_poll_id = ?", poll.ID).Delete(&StatusPollExpiryRequest{}).Error
		},
		func(tx *gorm.DB) error {
			return tx.Where("status_poll_id = ?", poll.ID).Delete(&StatusPollOption{}).Error
		},
		func(tx *gorm.DB) error {
			return tx.Delete(poll).Error
		},
	)
}
