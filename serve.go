package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/davecheney/revise/activitypub"
	"github.com/davecheney/revise/internal/config"
	"github.com/davecheney/revise/internal/group"
	"github.com/davecheney/revise/internal/httpx"
	"github.com/davecheney/revise/internal/lock"
	"github.com/davecheney/revise/mastodon"
	"github.com/davecheney/revise/media"
	"github.com/davecheney/revise/models"
	"github.com/davecheney/revise/workers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"
	"gorm.io/gorm"
)

type ServeCmd struct {
	Addr string `help:"address to listen" default:"127.0.0.1:9999"`
}

func (s *ServeCmd) Run(ctx *Context) error {
	db, err := ctx.openDB()
	if err != nil {
		return err
	}
	cfg := &ctx.Settings
	logger := ctx.Logger

	redis := newRedisClient(ctx)
	defer redis.Close()
	locker := lock.NewLocker(redis, cfg.Redis.LockPrefix, logger)
	updater := models.NewStatusUpdater(db, logger, cfg)
	inbox := activitypub.NewInbox(db, activitypub.NewUpdates(locker, updater, cfg.Statuses.LockTTL, logger), logger)

	client := &http.Client{Timeout: cfg.Media.Timeout}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g := group.New(sigCtx, logger)
	g.Go("http", func(ctx context.Context) error {
		svr := &http.Server{
			Addr:         s.Addr,
			Handler:      newRouter(db, cfg, logger),
			WriteTimeout: 15 * time.Second,
			ReadTimeout:  15 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			svr.Shutdown(shutdown)
		}()
		if err := svr.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go("attachments", workers.NewStatusAttachmentRequestProcessor(db, media.NewFetcher(client, cfg.Media.MaxSize), cfg, logger))
	g.Go("cards", workers.NewStatusCardRequestProcessor(db, client, cfg, logger))
	g.Go("polls", workers.NewStatusPollExpiryRequestProcessor(db, cfg, logger))
	g.Go("inbox", workers.NewInboxProcessor(db, inbox, cfg, logger))
	return g.Wait()
}

func newRouter(db *gorm.DB, cfg *config.Config, logger *slog.Logger) http.Handler {
	env := &models.Env{
		DB:     db,
		Logger: logger,
	}
	apiEnv := func(r *http.Request) *mastodon.Env {
		return &mastodon.Env{
			Env:    env.ForContext(r.Context()),
			Config: cfg,
		}
	}
	apEnv := func(r *http.Request) *activitypub.Env {
		return &activitypub.Env{
			Env: env.ForContext(r.Context()),
		}
	}
	mediaEnv := func(r *http.Request) *models.Env {
		return env.ForContext(r.Context())
	}

	c := chi.NewRouter()
	c.Use(middleware.RequestID)
	c.Use(middleware.RealIP)
	c.Use(middleware.Logger)
	c.Use(middleware.Recoverer)

	c.Route("/", func(r chi.Router) {
		r.Route("/api/v1/statuses/{id:[0-9]+}", func(r chi.Router) {
			r.Get("/", httpx.HandlerFunc(apiEnv, mastodon.StatusesShow))
			r.Put("/", httpx.HandlerFunc(apiEnv, mastodon.StatusesUpdate))
			r.Get("/history", httpx.HandlerFunc(apiEnv, mastodon.StatusesHistory))
			r.Get("/source", httpx.HandlerFunc(apiEnv, mastodon.StatusesSource))
		})

		r.Post("/inbox", httpx.HandlerFunc(apEnv, activitypub.InboxCreate))

		r.Get("/media/{kind}/{id:[0-9]+}", httpx.HandlerFunc(mediaEnv, media.Show))
	})

	walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
		route = strings.Replace(route, "/*/", "/", -1)
		logger.Debug("route", "method", method, "route", route)
		return nil
	}
	if err := chi.Walk(c, walkFunc); err != nil {
		logger.Warn("walk routes", "err", err)
	}
	return c
}

func newRedisClient(ctx *Context) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     ctx.Settings.Redis.Addr,
		Password: ctx.Settings.Redis.Password,
		DB:       ctx.Settings.Redis.DB,
	})
}
