package mastodon

import (
	"fmt"
	"net/http"
	"time"

	"github.com/davecheney/revise/internal/algorithms"
	"github.com/davecheney/revise/internal/httpx"
	"github.com/davecheney/revise/internal/snowflake"
	"github.com/davecheney/revise/models"
)

// statusUpdateParams are the parameters of PUT /api/v1/statuses/:id.
// JSON bodies carry the poll as an object, form bodies flatten it into
// poll[...] keys.
type statusUpdateParams struct {
	Status      *string     `json:"status" schema:"status"`
	SpoilerText *string     `json:"spoiler_text" schema:"spoiler_text"`
	Sensitive   *bool       `json:"sensitive" schema:"sensitive"`
	Language    *string     `json:"language" schema:"language"`
	MediaIDs    []string    `json:"media_ids" schema:"media_ids[]"`
	Poll        *pollParams `json:"poll" schema:"-"`

	FormMediaIDs       []string `json:"-" schema:"media_ids"`
	FormPollOptions    []string `json:"-" schema:"poll[options][]"`
	FormPollExpiresIn  int      `json:"-" schema:"poll[expires_in]"`
	FormPollMultiple   bool     `json:"-" schema:"poll[multiple]"`
	FormPollHideTotals bool     `json:"-" schema:"poll[hide_totals]"`
}

type pollParams struct {
	Options    []string `json:"options"`
	ExpiresIn  int      `json:"expires_in"`
	Multiple   bool     `json:"multiple"`
	HideTotals bool     `json:"hide_totals"`
}

func decodeStatusUpdate(r *http.Request) (*models.UpdateOptions, error) {
	var params statusUpdateParams
	if err := httpx.Params(r, &params); err != nil {
		return nil, err
	}
	return params.options()
}

// options converts the parameters to UpdateOptions. Omitting media_ids or
// poll removes the status' attachments or poll.
func (p *statusUpdateParams) options() (*models.UpdateOptions, error) {
	ids := append(p.MediaIDs, p.FormMediaIDs...)
	mediaIDs := make([]snowflake.ID, 0, len(ids))
	for _, s := range ids {
		id, err := snowflake.Parse(s)
		if err != nil {
			return nil, httpx.Error(http.StatusUnprocessableEntity, fmt.Errorf("invalid media id %q", s))
		}
		mediaIDs = append(mediaIDs, id)
	}
	poll := p.Poll
	if poll == nil && len(p.FormPollOptions) > 0 {
		poll = &pollParams{
			Options:    p.FormPollOptions,
			ExpiresIn:  p.FormPollExpiresIn,
			Multiple:   p.FormPollMultiple,
			HideTotals: p.FormPollHideTotals,
		}
	}
	opts := &models.UpdateOptions{
		Text:        p.Status,
		SpoilerText: p.SpoilerText,
		Sensitive:   p.Sensitive,
		Language:    p.Language,
		MediaIDs:    algorithms.Uniq(mediaIDs),
	}
	if poll != nil {
		opts.Poll = &models.PollOptions{
			Options:    poll.Options,
			Multiple:   poll.Multiple,
			HideTotals: poll.HideTotals,
			ExpiresIn:  time.Duration(poll.ExpiresIn) * time.Second,
		}
	}
	return opts, nil
}
