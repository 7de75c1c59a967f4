package mastodon

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/davecheney/revise/internal/config"
	"github.com/davecheney/revise/internal/httpx"
	"github.com/davecheney/revise/internal/snowflake"
	"github.com/davecheney/revise/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-json-experiment/json"
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

// testServer returns a router serving the status API from tx.
func testServer(tx *gorm.DB) http.Handler {
	cfg := config.Default()
	env := &Env{
		Env: &models.Env{
			DB:     tx,
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
		Config: &cfg,
	}
	envFn := func(*http.Request) *Env { return env }
	r := chi.NewRouter()
	r.Get("/api/v1/statuses/{id}", httpx.HandlerFunc(envFn, StatusesShow))
	r.Put("/api/v1/statuses/{id}", httpx.HandlerFunc(envFn, StatusesUpdate))
	r.Get("/api/v1/statuses/{id}/history", httpx.HandlerFunc(envFn, StatusesHistory))
	r.Get("/api/v1/statuses/{id}/source", httpx.HandlerFunc(envFn, StatusesSource))
	return r
}

// mockAccount creates a local account and returns it with its bearer token.
func mockAccount(t *testing.T, tx *gorm.DB, name string) (*models.Account, string) {
	t.Helper()
	require := require.New(t)

	actor := &models.Actor{
		ID:          snowflake.Now(),
		Type:        "LocalPerson",
		URI:         fmt.Sprintf("https://example.com/users/%s", name),
		Name:        name,
		Domain:      "example.com",
		DisplayName: name,
	}
	require.NoError(tx.Create(actor).Error)
	account := &models.Account{
		ID:      snowflake.Now(),
		ActorID: actor.ID,
		Email:   name + "@example.com",
	}
	require.NoError(tx.Create(account).Error)
	account.Actor = actor
	token := fmt.Sprintf("token-%s-%d", name, account.ID)
	require.NoError(tx.Create(&models.Token{AccessToken: token, AccountID: account.ID}).Error)
	return account, token
}

func mockStatus(t *testing.T, tx *gorm.DB, actor *models.Actor, note string, visibility models.Visibility) *models.Status {
	t.Helper()
	status := &models.Status{
		ID:         snowflake.TimeToID(time.Now().Add(-time.Hour)),
		ActorID:    actor.ID,
		Visibility: visibility,
		Note:       note,
	}
	status.URI = fmt.Sprintf("%s/statuses/%d", actor.URI, status.ID)
	require.NoError(t, tx.Create(status).Error)
	return status
}

func mockAttachment(t *testing.T, tx *gorm.DB, actor *models.Actor) *models.StatusAttachment {
	t.Helper()
	now := time.Now()
	att := &models.StatusAttachment{
		ID:          snowflake.Now(),
		ActorID:     actor.ID,
		MediaType:   "image/png",
		URL:         fmt.Sprintf("https://example.com/media/%d.png", snowflake.Now()),
		Description: "a picture",
		Width:       640,
		Height:      480,
		ProcessedAt: &now,
	}
	require.NoError(t, tx.Create(att).Error)
	return att
}

func do(t *testing.T, h http.Handler, method, path, token, contentType, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var res map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	}
	return rec.Code, res
}
