package workers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/carlmjohnson/requests"
	"github.com/davecheney/revise/internal/config"
	"github.com/davecheney/revise/internal/text"
	"github.com/davecheney/revise/models"
	"golang.org/x/exp/slog"
	"golang.org/x/net/html"
	"gorm.io/gorm"
)

// NewStatusCardRequestProcessor crawls the first link of a status and
// stores its preview card.
func NewStatusCardRequestProcessor(db *gorm.DB, client *http.Client, cfg *config.Config, logger *slog.Logger) func(context.Context) error {
	p := &statusCardProcessor{
		client:  client,
		maxSize: cfg.Media.MaxSize,
		logger:  logger.With("worker", "cards"),
	}
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Scopes(retryable(cfg.Workers.MaxAttempts)).Preload("Status")
	}
	return func(ctx context.Context) error {
		return loop(ctx, "StatusCardRequestProcessor", logger, cfg.Workers.Interval, func(ctx context.Context) error {
			return process(db.WithContext(ctx), scope, p.process)
		})
	}
}

type statusCardProcessor struct {
	client  *http.Client
	maxSize int64
	logger  *slog.Logger
}

func (p *statusCardProcessor) process(tx *gorm.DB, request *models.StatusCardRequest) error {
	status := request.Status
	if status == nil || status.SpoilerText != "" {
		return nil
	}
	links := text.Links(status.Note)
	if len(links) == 0 {
		return nil
	}
	link := links[0]
	p.logger.Debug("crawling", "status_id", status.ID, "url", link)

	var card *models.StatusCard
	err := requests.URL(link).
		Client(p.client).
		Accept("text/html").
		CheckContentType("text/html").
		Handle(func(res *http.Response) error {
			doc, err := html.Parse(io.LimitReader(res.Body, p.maxSize))
			if err != nil {
				return err
			}
			card = extractCard(doc)
			return nil
		}).
		Fetch(tx.Statement.Context)
	if err != nil {
		return fmt.Errorf("processStatusCardRequest: %s: %w", link, err)
	}
	if card.Title == "" {
		p.logger.Debug("no title", "status_id", status.ID, "url", link)
		return nil
	}
	card.StatusID = status.ID
	card.URL = link
	return models.NewCards(tx).Save(card)
}

// extractCard returns the preview of an HTML document. OpenGraph
// properties take precedence over the title and description elements.
func extractCard(doc *html.Node) *models.StatusCard {
	var title, description, ogTitle, ogDescription, ogImage string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = n.FirstChild.Data
				}
			case "meta":
				content := attr(n, "content")
				switch strings.ToLower(attr(n, "property") + attr(n, "name")) {
				case "og:title":
					ogTitle = content
				case "og:description":
					ogDescription = content
				case "og:image":
					ogImage = content
				case "description":
					description = content
				}
			case "body":
				// metadata lives in the head
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return &models.StatusCard{
		Title:       truncate(strings.TrimSpace(firstNonEmpty(ogTitle, title)), 255),
		Description: strings.TrimSpace(firstNonEmpty(ogDescription, description)),
		Image:       truncate(ogImage, 512),
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
