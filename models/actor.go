package models

import (
	"errors"
	"time"

	"github.com/davecheney/revise/internal/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// An Actor is an account which can author statuses, local or remote.
type Actor struct {
	ID          snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	UpdatedAt   time.Time
	Type        ActorType `gorm:"default:'Person';not null"`
	URI         string    `gorm:"uniqueIndex;size:255;not null"`
	Name        string    `gorm:"size:64;uniqueIndex:idx_actor_name_domain;not null"`
	Domain      string    `gorm:"size:64;uniqueIndex:idx_actor_name_domain;not null"`
	DisplayName string    `gorm:"size:255;not null"`
	// Sensitized marks every status from this actor as sensitive, regardless
	// of what the status itself claims.
	Sensitized bool `gorm:"not null;default:false"`
}

type ActorType string

func (ActorType) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "enum('Person', 'Application', 'Service', 'Group', 'Organization', 'LocalPerson', 'LocalService')"
	default:
		return "TEXT"
	}
}

// IsLocal returns true if the actor is hosted on this instance.
func (a *Actor) IsLocal() bool {
	switch a.Type {
	case "LocalPerson", "LocalService":
		return true
	default:
		return false
	}
}

// Acct returns the actor's name, qualified with its domain.
func (a *Actor) Acct() string {
	return a.Name + "@" + a.Domain
}

type Actors struct {
	db *gorm.DB
}

func NewActors(db *gorm.DB) *Actors {
	return &Actors{db: db}
}

// FindByURI returns the actor with the given URI.
func (a *Actors) FindByURI(uri string) (*Actor, error) {
	if uri == "" {
		return nil, errors.New("Actors.FindByURI: uri is empty")
	}
	var actor Actor
	if err := a.db.Where("uri = ?", uri).Take(&actor).Error; err != nil {
		return nil, err
	}
	return &actor, nil
}

// FindByNames returns the known actors whose name and domain match any of
// the given pairs. Unknown pairs are ignored.
func (a *Actors) FindByNames(pairs ...[2]string) ([]*Actor, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	query := a.db.Where("name = ? AND domain = ?", pairs[0][0], pairs[0][1])
	for _, p := range pairs[1:] {
		query = query.Or("name = ? AND domain = ?", p[0], p[1])
	}
	var actors []*Actor
	if err := query.Find(&actors).Error; err != nil {
		return nil, err
	}
	return actors, nil
}
