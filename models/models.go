// Package models contains the persistent data model and the services which
// reconcile a status with a description of its desired state.
package models

import (
	"time"

	"gorm.io/gorm"
)

// A Request is the common header of a background job row.
// Job rows are drained by the workers package; a row is deleted once
// it has been processed successfully.
type Request struct {
	ID uint32 `gorm:"primarykey"`
	// CreatedAt is the time the request was created.
	CreatedAt time.Time
	// UpdatedAt is the time the request was last updated.
	UpdatedAt time.Time
	// Attempts is the number of times the request has been attempted.
	Attempts uint32 `gorm:"not null;default:0"`
	// LastAttempt is the time the request was last attempted.
	LastAttempt time.Time
	// LastResult is the result of the last attempt if it failed.
	LastResult string `gorm:"size:255;not null;default:''"`
}

// forEach calls each function with the given transaction, returning the first error.
func forEach(tx *gorm.DB, fns ...func(*gorm.DB) error) error {
	for _, fn := range fns {
		if err := fn(tx); err != nil {
			return err
		}
	}
	return nil
}
