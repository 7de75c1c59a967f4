// Package media fetches, inspects and proxies the files behind media attachments.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"

	// image.DecodeConfig expects image decoders to be registered in the
	// global image package.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/carlmjohnson/requests"
	_ "golang.org/x/image/webp"
)

// ErrTooLarge is returned when a remote file is larger than the fetcher allows.
var ErrTooLarge = errors.New("media: file too large")

// Info describes the contents of a media file.
type Info struct {
	MediaType string
	// Width and Height are zero for files which are not images.
	Width  int
	Height int
}

// Probe sniffs the media type of b and, for images, decodes its dimensions.
func Probe(b []byte) (Info, error) {
	info := Info{
		MediaType: strings.TrimSpace(strings.Split(http.DetectContentType(b), ";")[0]),
	}
	if !strings.HasPrefix(info.MediaType, "image/") {
		return info, nil
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return info, fmt.Errorf("media.Probe: %s: %w", info.MediaType, err)
	}
	info.MediaType = "image/" + format
	info.Width = cfg.Width
	info.Height = cfg.Height
	return info, nil
}

// Fetcher downloads remote media.
type Fetcher struct {
	client  *http.Client
	maxSize int64
}

// NewFetcher returns a Fetcher which downloads with client and refuses
// files larger than maxSize bytes.
func NewFetcher(client *http.Client, maxSize int64) *Fetcher {
	return &Fetcher{
		client:  client,
		maxSize: maxSize,
	}
}

// Fetch returns the contents of url.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var buf bytes.Buffer
	err := requests.URL(url).
		Client(f.client).
		Accept("*/*").
		Handle(func(res *http.Response) error {
			n, err := io.Copy(&buf, io.LimitReader(res.Body, f.maxSize+1))
			if err != nil {
				return err
			}
			if n > f.maxSize {
				return ErrTooLarge
			}
			return nil
		}).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetcher.Fetch: %s: %w", url, err)
	}
	return buf.Bytes(), nil
}
