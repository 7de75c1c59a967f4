package mastodon

import (
	"fmt"
	"time"

	"github.com/davecheney/revise/internal/algorithms"
	"github.com/davecheney/revise/internal/snowflake"
	"github.com/davecheney/revise/models"
)

// serialisers for various mastodon API responses.

const timestampFormat = "2006-01-02T15:04:05.000Z"

func timestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

type Account struct {
	ID          snowflake.ID     `json:"id,string"`
	Username    string           `json:"username"`
	Acct        string           `json:"acct"`
	DisplayName string           `json:"display_name"`
	Bot         bool             `json:"bot"`
	CreatedAt   string           `json:"created_at"`
	URL         string           `json:"url"`
	Emojis      []map[string]any `json:"emojis"`
	Fields      []map[string]any `json:"fields"`
}

func serialiseAccount(a *models.Actor) *Account {
	acct := a.Acct()
	if a.IsLocal() {
		acct = a.Name
	}
	return &Account{
		ID:          a.ID,
		Username:    a.Name,
		Acct:        acct,
		DisplayName: a.DisplayName,
		Bot:         a.Type == "Service" || a.Type == "LocalService",
		CreatedAt:   a.ID.ToTime().Round(time.Hour).Format("2006-01-02T00:00:00.000Z"),
		URL:         fmt.Sprintf("https://%s/@%s", a.Domain, a.Name),
		Emojis:      make([]map[string]any, 0), // must be an empty array -- not null
		Fields:      make([]map[string]any, 0), // ditto
	}
}

func serialiseStatus(s *models.Status) map[string]any {
	return map[string]any{
		"id":         s.ID.String(),
		"created_at": timestamp(s.CreatedAt()),
		"edited_at": func() any {
			if s.EditedAt == nil {
				return nil
			}
			return timestamp(*s.EditedAt)
		}(),
		"sensitive":    s.Sensitive,
		"spoiler_text": s.SpoilerText,
		"visibility":   s.Visibility,
		"language": func() any {
			if s.Language == "" {
				return nil
			}
			return s.Language
		}(),
		"uri":               s.URI,
		"url":               s.URI,
		"content":           s.Note,
		"account":           serialiseAccount(s.Actor),
		"media_attachments": serialiseAttachments(s.OrderedAttachments()),
		"mentions":          serialiseMentions(s.Mentions),
		"tags":              serialiseTags(s.Tags),
		"emojis":            []map[string]any{},
		"card":              serialiseCard(s.Card),
		"poll":              serialisePoll(s.Poll),
	}
}

type MediaAttachment struct {
	ID          snowflake.ID   `json:"id,string"`
	Type        string         `json:"type"`
	URL         string         `json:"url"`
	PreviewURL  string         `json:"preview_url"`
	RemoteURL   any            `json:"remote_url"`
	Meta        map[string]any `json:"meta"`
	Description string         `json:"description"`
	Blurhash    string         `json:"blurhash"`
}

func serialiseAttachments(atts []*models.StatusAttachment) []MediaAttachment {
	res := []MediaAttachment{} // ensure we return a slice, not null
	for _, att := range atts {
		res = append(res, serialiseAttachment(att))
	}
	return res
}

func serialiseAttachment(att *models.StatusAttachment) MediaAttachment {
	url := att.URL
	if url == "" {
		url = att.RemoteURL
	}
	preview := att.ThumbnailRemoteURL
	if preview == "" {
		preview = url
	}
	meta := map[string]any{
		"focus": map[string]any{
			"x": att.FocalPoint.X,
			"y": att.FocalPoint.Y,
		},
	}
	if att.Width > 0 && att.Height > 0 {
		meta["original"] = map[string]any{
			"width":  att.Width,
			"height": att.Height,
			"size":   fmt.Sprintf("%dx%d", att.Width, att.Height),
			"aspect": float64(att.Width) / float64(att.Height),
		}
	}
	return MediaAttachment{
		ID:         att.ID,
		Type:       att.Type(),
		URL:        url,
		PreviewURL: preview,
		RemoteURL: func() any {
			if att.RemoteURL == "" {
				return nil
			}
			return att.RemoteURL
		}(),
		Meta:        meta,
		Description: att.Description,
		Blurhash:    att.Blurhash,
	}
}

type Mention struct {
	ID       snowflake.ID `json:"id,string"`
	Username string       `json:"username"`
	URL      string       `json:"url"`
	Acct     string       `json:"acct"`
}

func serialiseMentions(mentions []models.StatusMention) []Mention {
	res := []Mention{}
	for _, m := range mentions {
		if m.Actor == nil {
			continue
		}
		res = append(res, Mention{
			ID:       m.Actor.ID,
			Username: m.Actor.Name,
			URL:      m.Actor.URI,
			Acct:     m.Actor.Acct(),
		})
	}
	return res
}

type Tag struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func serialiseTags(tags []models.StatusTag) []Tag {
	res := []Tag{}
	for _, t := range tags {
		if t.Tag == nil {
			continue
		}
		res = append(res, Tag{
			Name: t.Tag.Name,
			URL:  "/tags/" + t.Tag.Name,
		})
	}
	return res
}

func serialiseCard(c *models.StatusCard) any {
	if c == nil {
		return nil
	}
	return map[string]any{
		"url":         c.URL,
		"title":       c.Title,
		"description": c.Description,
		"type":        "link",
		"image": func() any {
			if c.Image == "" {
				return nil
			}
			return c.Image
		}(),
	}
}

type Poll struct {
	ID          snowflake.ID `json:"id,string"`
	ExpiresAt   string       `json:"expires_at"`
	Expired     bool         `json:"expired"`
	Multiple    bool         `json:"multiple"`
	VotesCount  int          `json:"votes_count"`
	VotersCount *int         `json:"voters_count"`
	Options     []PollOption `json:"options"`
	Emojis      []any        `json:"emojis"`
}

type PollOption struct {
	Title      string `json:"title"`
	VotesCount *int   `json:"votes_count"`
}

func serialisePoll(p *models.StatusPoll) any {
	if p == nil {
		return nil
	}
	expired := p.Expired(time.Now())
	return &Poll{
		ID:         p.ID,
		ExpiresAt:  timestamp(p.ExpiresAt),
		Expired:    expired,
		Multiple:   p.Multiple,
		VotesCount: p.VotesCount,
		Options: algorithms.Map(p.Options, func(o models.StatusPollOption) PollOption {
			opt := PollOption{Title: o.Title}
			if !p.HideTotals || expired {
				count := o.Count
				opt.VotesCount = &count
			}
			return opt
		}),
		Emojis: []any{},
	}
}

// StatusEdit is an entry of a status' edit history.
type StatusEdit struct {
	Content          string            `json:"content"`
	SpoilerText      string            `json:"spoiler_text"`
	Sensitive        bool              `json:"sensitive"`
	CreatedAt        string            `json:"created_at"`
	Account          *Account          `json:"account"`
	Poll             any               `json:"poll"`
	MediaAttachments []MediaAttachment `json:"media_attachments"`
	Emojis           []any             `json:"emojis"`
}

// serialiseStatusEdit serialises edit of status. attachments holds every
// attachment the edit may refer to; the edit's own descriptions replace
// their current descriptions.
func serialiseStatusEdit(status *models.Status, edit *models.StatusEdit, attachments map[snowflake.ID]*models.StatusAttachment) *StatusEdit {
	account := status.Actor
	if edit.Actor != nil {
		account = edit.Actor
	}
	se := &StatusEdit{
		Content:          edit.Note,
		SpoilerText:      edit.SpoilerText,
		Sensitive:        edit.Sensitive,
		CreatedAt:        timestamp(edit.CreatedAt),
		Account:          serialiseAccount(account),
		MediaAttachments: []MediaAttachment{},
		Emojis:           []any{},
	}
	for i, id := range edit.MediaAttachmentIDs {
		att, ok := attachments[id]
		if !ok {
			continue
		}
		ma := serialiseAttachment(att)
		if i < len(edit.MediaDescriptions) {
			ma.Description = edit.MediaDescriptions[i]
		}
		se.MediaAttachments = append(se.MediaAttachments, ma)
	}
	if len(edit.PollOptions) > 0 {
		se.Poll = map[string]any{
			"options": algorithms.Map(edit.PollOptions, func(title string) map[string]any {
				return map[string]any{"title": title}
			}),
		}
	}
	return se
}

type StatusSource struct {
	ID          snowflake.ID `json:"id,string"`
	Text        string       `json:"text"`
	SpoilerText string       `json:"spoiler_text"`
}

func serialiseStatusSource(s *models.Status) *StatusSource {
	return &StatusSource{
		ID:          s.ID,
		Text:        s.Note,
		SpoilerText: s.SpoilerText,
	}
}
