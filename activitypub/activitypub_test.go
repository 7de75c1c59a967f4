package activitypub

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/davecheney/revise/internal/config"
	"github.com/davecheney/revise/internal/lock"
	"github.com/davecheney/revise/internal/snowflake"
	"github.com/davecheney/revise/models"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	require := require.New(t)
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	require.NoError(err)

	err = db.AutoMigrate(models.AllTables()...)
	require.NoError(err)

	// enable foreign key constraints
	err = db.Exec("PRAGMA foreign_keys = ON").Error
	require.NoError(err)

	return db
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestUpdates(tx *gorm.DB, client *goredis.Client) *Updates {
	cfg := config.Default()
	updater := models.NewStatusUpdater(tx, testLogger(), &cfg)
	return NewUpdates(lock.NewLocker(client, cfg.Redis.LockPrefix, testLogger()), updater, cfg.Statuses.LockTTL, testLogger())
}

// mockRemoteStatus creates a status authored by name@domain.
func mockRemoteStatus(t *testing.T, tx *gorm.DB, name, domain, note string) *models.Status {
	t.Helper()
	require := require.New(t)

	actor := &models.Actor{
		ID:          snowflake.Now(),
		Type:        "Person",
		URI:         fmt.Sprintf("https://%s/users/%s", domain, name),
		Name:        name,
		Domain:      domain,
		DisplayName: name,
	}
	require.NoError(tx.Create(actor).Error)
	status := &models.Status{
		ID:         snowflake.TimeToID(time.Now().Add(-time.Hour)),
		ActorID:    actor.ID,
		Visibility: "public",
		Note:       note,
	}
	status.URI = fmt.Sprintf("https://%s/users/%s/statuses/%d", domain, name, status.ID)
	require.NoError(tx.Create(status).Error)
	status.Actor = actor
	return status
}

func countEdits(t *testing.T, tx *gorm.DB, status *models.Status) int64 {
	t.Helper()
	var n int64
	require.NoError(t, tx.Model(&models.StatusEdit{}).Where("status_id = ?", status.ID).Count(&n).Error)
	return n
}
