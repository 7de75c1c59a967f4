package models

import (
	"time"

	"github.com/davecheney/revise/internal/snowflake"
)

// An Account is a local login. It posts as its Actor.
type Account struct {
	ID        snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
	ActorID   snowflake.ID `gorm:"uniqueIndex;not null"`
	Actor     *Actor       `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
	Email     string       `gorm:"size:64;not null"`
}
