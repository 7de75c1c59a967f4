package activitypub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davecheney/revise/internal/lock"
	"github.com/davecheney/revise/models"
	"golang.org/x/exp/slog"
)

// ErrRaceCondition is returned when another process is already applying an
// update to the same object. Nothing has been written; the update may be
// retried.
var ErrRaceCondition = fmt.Errorf("race condition: %w", lock.ErrNotAcquired)

// Updates applies federated updates to remote statuses.
type Updates struct {
	locker  *lock.Locker
	updater *models.StatusUpdater
	ttl     time.Duration
	logger  *slog.Logger
}

// NewUpdates returns an Updates which serialises updates to the same object
// with leases from locker, each held for at most ttl.
func NewUpdates(locker *lock.Locker, updater *models.StatusUpdater, ttl time.Duration, logger *slog.Logger) *Updates {
	return &Updates{
		locker:  locker,
		updater: updater,
		ttl:     ttl,
		logger:  logger,
	}
}

// Process applies obj, the current state of a Note or Question, to status.
// Objects of any other type are ignored and Process returns false.
// If the object is being updated elsewhere Process returns ErrRaceCondition.
func (u *Updates) Process(ctx context.Context, status *models.Status, obj map[string]any) (bool, error) {
	note := parseNote(obj)
	switch note.Type {
	case "Note", "Question":
	default:
		u.logger.Debug("ignoring update", "type", note.Type, "uri", note.ID)
		return false, nil
	}
	if note.ID == "" {
		note.ID = status.URI
	}
	key := "create:" + note.ID
	err := u.locker.With(ctx, key, u.ttl, func() error {
		return u.updater.UpdateRemote(ctx, status, note)
	})
	switch {
	case errors.Is(err, lock.ErrNotAcquired):
		return false, fmt.Errorf("Updates.Process: %s: %w", key, ErrRaceCondition)
	case err != nil:
		return false, fmt.Errorf("Updates.Process: %w", err)
	}
	return true, nil
}
