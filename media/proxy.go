package media

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/carlmjohnson/requests"
	"github.com/davecheney/revise/internal/httpx"
	"github.com/davecheney/revise/models"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// Show proxies the original file or the thumbnail of a remote attachment.
func Show(env *models.Env, w http.ResponseWriter, r *http.Request) error {
	id, err := httpx.ID(r, "id")
	if err != nil {
		return err
	}
	var att models.StatusAttachment
	if err := env.DB.Take(&att, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Error(http.StatusNotFound, err)
		}
		return err
	}
	var url string
	switch kind := chi.URLParam(r, "kind"); kind {
	case "original":
		url = att.RemoteURL
	case "small":
		url = stringOrDefault(att.ThumbnailRemoteURL, att.RemoteURL)
	default:
		return httpx.Error(http.StatusNotFound, fmt.Errorf("unknown kind %q", kind))
	}
	if url == "" {
		return httpx.Error(http.StatusNotFound, fmt.Errorf("attachment %d is not remote", att.ID))
	}
	return fetch(r, w, url)
}

func fetch(r *http.Request, w http.ResponseWriter, url string) error {
	err := requests.URL(url).
		Handle(func(res *http.Response) error {
			w.Header().Set("Content-Type", res.Header.Get("Content-Type"))
			w.Header().Set("Cache-Control", "public, max-age=86400")
			w.WriteHeader(http.StatusOK)
			_, err := io.Copy(w, res.Body)
			return err
		}).
		Fetch(r.Context())
	if err != nil {
		return httpx.Error(http.StatusBadGateway, err)
	}
	return nil
}

// ProxyURL returns the path at which Show serves the attachment.
func ProxyURL(att *models.StatusAttachment) string {
	return fmt.Sprintf("/media/original/%d", att.ID)
}

// ProxyThumbnailURL returns the path at which Show serves the thumbnail of the attachment.
func ProxyThumbnailURL(att *models.StatusAttachment) string {
	return fmt.Sprintf("/media/small/%d", att.ID)
}

func stringOrDefault(s string, def string) string {
	if s == "" {
		return def
	}
	return s
}
