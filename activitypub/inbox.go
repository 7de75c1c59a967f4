package activitypub

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/davecheney/revise/internal/httpx"
	"github.com/davecheney/revise/models"
	"github.com/go-json-experiment/json"
	"golang.org/x/exp/slog"
	"gorm.io/gorm"
)

type Env struct {
	*models.Env
}

// InboxCreate accepts an activity and queues it for processing.
func InboxCreate(env *Env, w http.ResponseWriter, r *http.Request) error {
	var body map[string]any
	if err := json.UnmarshalFull(r.Body, &body); err != nil {
		return httpx.Error(http.StatusBadRequest, err)
	}
	if stringFromAny(body["type"]) == "" {
		return httpx.Error(http.StatusBadRequest, errors.New("activity has no type"))
	}
	activity := models.InboxActivity{
		ObjectURI: idFromAny(body["object"]),
		Activity:  body,
	}
	if err := env.DB.Create(&activity).Error; err != nil {
		return err
	}
	w.WriteHeader(http.StatusAccepted)
	return nil
}

// Inbox processes queued activities.
type Inbox struct {
	db      *gorm.DB
	updates *Updates
	logger  *slog.Logger
}

func NewInbox(db *gorm.DB, updates *Updates, logger *slog.Logger) *Inbox {
	return &Inbox{
		db:      db,
		updates: updates,
		logger:  logger,
	}
}

// Process handles a single activity. Updates to known statuses are applied,
// everything else is ignored.
func (i *Inbox) Process(ctx context.Context, activity map[string]any) error {
	switch typ := stringFromAny(activity["type"]); typ {
	case "Update":
		return i.processUpdate(ctx, activity)
	default:
		i.logger.Debug("ignoring activity", "type", typ, "id", stringFromAny(activity["id"]))
		return nil
	}
}

func (i *Inbox) processUpdate(ctx context.Context, activity map[string]any) error {
	obj := mapFromAny(activity["object"])
	if obj == nil {
		i.logger.Debug("ignoring update by reference", "object", idFromAny(activity["object"]))
		return nil
	}
	uri := stringFromAny(obj["id"])
	if uri == "" {
		i.logger.Debug("ignoring update of anonymous object")
		return nil
	}
	status, err := models.NewStatuses(i.db.WithContext(ctx)).FindByURI(uri)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		i.logger.Debug("ignoring update of unknown status", "uri", uri)
		return nil
	}
	if err != nil {
		return fmt.Errorf("Inbox.processUpdate: %w", err)
	}
	if actor := idFromAny(activity["actor"]); status.Actor == nil || actor != status.Actor.URI {
		i.logger.Warn("ignoring update from non owner", "uri", uri, "actor", actor)
		return nil
	}
	if status.IsLocal() {
		i.logger.Warn("ignoring remote update of local status", "uri", uri)
		return nil
	}
	if _, err := i.updates.Process(ctx, status, obj); err != nil {
		return err
	}
	return nil
}
