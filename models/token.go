package models

import (
	"time"

	"github.com/davecheney/revise/internal/snowflake"
	"gorm.io/gorm"
)

// A Token is a bearer token granting access to an Account.
type Token struct {
	AccessToken string `gorm:"size:64;primaryKey;autoIncrement:false"`
	CreatedAt   time.Time
	AccountID   snowflake.ID `gorm:"not null"`
	Account     *Account     `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
	Scope       string       `gorm:"size:64;not null;default:''"`
}

type Tokens struct {
	db *gorm.DB
}

func NewTokens(db *gorm.DB) *Tokens {
	return &Tokens{db: db}
}

// FindByAccessToken returns the token, with its account and actor, for
// the given bearer token.
func (t *Tokens) FindByAccessToken(accessToken string) (*Token, error) {
	var token Token
	if err := t.db.Preload("Account").Preload("Account.Actor").Where("access_token = ?", accessToken).Take(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}
