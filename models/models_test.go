package models

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/davecheney/revise/internal/config"
	"github.com/davecheney/revise/internal/snowflake"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// WithType sets the type of an actor.
func WithType(t ActorType) func(*Actor) {
	return func(a *Actor) {
		a.Type = t
	}
}

// MockActor creates a new actor in the database.
func MockActor(t *testing.T, tx *gorm.DB, name, domain string, opts ...func(*Actor)) *Actor {
	t.Helper()
	require := require.New(t)

	actor := &Actor{
		ID:          snowflake.Now(),
		Type:        "Person",
		URI:         fmt.Sprintf("https://%s/users/%s", domain, name),
		Name:        name,
		Domain:      domain,
		DisplayName: name,
	}
	for _, opt := range opts {
		opt(actor)
	}
	require.NoError(tx.Create(actor).Error)
	return actor
}

// WithVisibility sets the visibility of a status.
func WithVisibility(v Visibility) func(*Status) {
	return func(s *Status) {
		s.Visibility = v
	}
}

// WithCreatedAt backdates a status.
func WithCreatedAt(ts time.Time) func(*Status) {
	return func(s *Status) {
		s.ID = snowflake.TimeToID(ts)
	}
}

// MockStatus creates a new public status in the database.
func MockStatus(t *testing.T, tx *gorm.DB, actor *Actor, note string, opts ...func(*Status)) *Status {
	t.Helper()
	require := require.New(t)

	status := &Status{
		ID:         snowflake.Now(),
		ActorID:    actor.ID,
		Actor:      actor,
		Visibility: "public",
		Note:       note,
	}
	for _, opt := range opts {
		opt(status)
	}
	status.URI = fmt.Sprintf("https://%s/users/%s/statuses/%d", actor.Domain, actor.Name, status.ID)
	require.NoError(tx.Create(status).Error)
	return status
}

// Unprocessed marks an attachment as not yet processed.
func Unprocessed(att *StatusAttachment) {
	att.ProcessedAt = nil
}

// WithMediaType sets the media type of an attachment.
func WithMediaType(mediaType string) func(*StatusAttachment) {
	return func(att *StatusAttachment) {
		att.MediaType = mediaType
	}
}

// MockAttachment creates a processed, unattached image owned by actor.
func MockAttachment(t *testing.T, tx *gorm.DB, actor *Actor, opts ...func(*StatusAttachment)) *StatusAttachment {
	t.Helper()
	require := require.New(t)

	processedAt := time.Now()
	att := &StatusAttachment{
		ID:          snowflake.Now(),
		ActorID:     actor.ID,
		MediaType:   "image/png",
		URL:         fmt.Sprintf("https://%s/media/%d.png", actor.Domain, snowflake.Now()),
		Width:       640,
		Height:      480,
		ProcessedAt: &processedAt,
	}
	for _, opt := range opts {
		opt(att)
	}
	require.NoError(tx.Create(att).Error)
	return att
}

func testConfig() *config.Config {
	cfg := config.Default()
	return &cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	require := require.New(t)
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger: logger.Default.LogMode(func() logger.LogLevel {
			return logger.Warn
		}()),
	})
	require.NoError(err)

	err = db.AutoMigrate(AllTables()...)
	require.NoError(err)

	// enable foreign key constraints
	err = db.Exec("PRAGMA foreign_keys = ON").Error
	require.NoError(err)

	return db
}
