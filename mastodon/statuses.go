package mastodon

import (
	"errors"
	"net/http"

	"github.com/davecheney/revise/internal/httpx"
	"github.com/davecheney/revise/internal/snowflake"
	"github.com/davecheney/revise/models"
)

func StatusesShow(env *Env, w http.ResponseWriter, r *http.Request) error {
	status, err := env.findVisibleStatus(r)
	if err != nil {
		return err
	}
	return httpx.JSON(w, serialiseStatus(status))
}

// StatusesUpdate edits a status authored by the caller.
func StatusesUpdate(env *Env, w http.ResponseWriter, r *http.Request) error {
	account, err := env.authenticate(r)
	if err != nil {
		return err
	}
	status, err := env.findStatus(r)
	if err != nil {
		return err
	}
	if status.ActorID != account.ActorID {
		return httpx.Error(http.StatusForbidden, errors.New("this action is not allowed"))
	}
	opts, err := decodeStatusUpdate(r)
	if err != nil {
		return err
	}
	updater := models.NewStatusUpdater(env.DB, env.Logger, env.Config)
	if _, err := updater.UpdateLocal(r.Context(), status, account.Actor, opts); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return httpx.Error(http.StatusUnprocessableEntity, verr)
		}
		return err
	}
	// reload to pick up the post commit changes to tags and mentions.
	status, err = models.NewStatuses(env.DB.WithContext(r.Context())).FindByID(status.ID)
	if err != nil {
		return err
	}
	return httpx.JSON(w, serialiseStatus(status))
}

// StatusesHistory returns the edits of a status, oldest first.
// A status which has never been edited has a history of one entry, itself.
func StatusesHistory(env *Env, w http.ResponseWriter, r *http.Request) error {
	status, err := env.findVisibleStatus(r)
	if err != nil {
		return err
	}
	edits, err := models.NewStatusEdits(env.DB).History(status.ID)
	if err != nil {
		return err
	}
	if len(edits) == 0 {
		edits = append(edits, &models.StatusEdit{
			StatusID:           status.ID,
			Note:               status.Note,
			SpoilerText:        status.SpoilerText,
			Sensitive:          status.Sensitive,
			MediaAttachmentIDs: status.MediaAttachmentIDs,
			PollOptions: func() []string {
				if status.Poll == nil {
					return nil
				}
				return status.Poll.OptionTitles()
			}(),
			CreatedAt: status.CreatedAt(),
		})
	}
	attachments, err := historyAttachments(env, edits)
	if err != nil {
		return err
	}
	res := make([]*StatusEdit, 0, len(edits))
	for _, edit := range edits {
		res = append(res, serialiseStatusEdit(status, edit, attachments))
	}
	return httpx.JSON(w, res)
}

// historyAttachments loads every attachment referred to by edits.
func historyAttachments(env *Env, edits []*models.StatusEdit) (map[snowflake.ID]*models.StatusAttachment, error) {
	var ids []snowflake.ID
	for _, edit := range edits {
		ids = append(ids, edit.MediaAttachmentIDs...)
	}
	res := make(map[snowflake.ID]*models.StatusAttachment)
	if len(ids) == 0 {
		return res, nil
	}
	var attachments []*models.StatusAttachment
	if err := env.DB.Where("id IN ?", ids).Find(&attachments).Error; err != nil {
		return nil, err
	}
	for _, att := range attachments {
		res[att.ID] = att
	}
	return res, nil
}

// StatusesSource returns the unrendered text of a status authored by the caller.
func StatusesSource(env *Env, w http.ResponseWriter, r *http.Request) error {
	account, err := env.authenticate(r)
	if err != nil {
		return err
	}
	status, err := env.findStatus(r)
	if err != nil {
		return err
	}
	if status.ActorID != account.ActorID {
		return httpx.Error(http.StatusForbidden, errors.New("this action is not allowed"))
	}
	return httpx.JSON(w, serialiseStatusSource(status))
}
