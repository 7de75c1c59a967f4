// Package mastodon implements the status editing parts of the Mastodon API.
package mastodon

import (
	"errors"
	"net/http"
	"strings"

	"github.com/davecheney/revise/internal/config"
	"github.com/davecheney/revise/internal/httpx"
	"github.com/davecheney/revise/models"
	"gorm.io/gorm"
)

type Env struct {
	*models.Env
	Config *config.Config
}

// authenticate authenticates the bearer token attached to the request and, if
// successful, returns the account associated with the token.
func (e *Env) authenticate(r *http.Request) (*models.Account, error) {
	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if bearer == "" {
		return nil, httpx.Error(http.StatusUnauthorized, errors.New("missing bearer token"))
	}
	token, err := models.NewTokens(e.DB).FindByAccessToken(bearer)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httpx.Error(http.StatusUnauthorized, errors.New("invalid bearer token"))
		}
		return nil, err
	}
	return token.Account, nil
}

// findStatus returns the status named by the id URL parameter.
func (e *Env) findStatus(r *http.Request) (*models.Status, error) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		return nil, err
	}
	status, err := models.NewStatuses(e.DB).FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httpx.Error(http.StatusNotFound, errors.New("record not found"))
		}
		return nil, err
	}
	return status, nil
}

// findVisibleStatus returns the status named by the id URL parameter if it
// may be seen by the caller. Statuses which are not public or unlisted are
// only visible to their author.
func (e *Env) findVisibleStatus(r *http.Request) (*models.Status, error) {
	status, err := e.findStatus(r)
	if err != nil {
		return nil, err
	}
	if status.IsDistributable() {
		return status, nil
	}
	account, err := e.authenticate(r)
	if err != nil {
		return nil, err
	}
	if account.ActorID != status.ActorID {
		// pretend it doesn't exist
		return nil, httpx.Error(http.StatusNotFound, errors.New("record not found"))
	}
	return status, nil
}
