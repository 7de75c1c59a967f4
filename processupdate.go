package main

import (
	"context"
	"os"

	"github.com/davecheney/revise/activitypub"
	"github.com/davecheney/revise/internal/lock"
	"github.com/davecheney/revise/models"
	"github.com/go-json-experiment/json"
)

type ProcessUpdateCmd struct {
	Path string `arg:"" help:"path to a JSON encoded Update activity, - for stdin" default:"-"`
}

func (p *ProcessUpdateCmd) Run(ctx *Context) error {
	db, err := ctx.openDB()
	if err != nil {
		return err
	}
	f := os.Stdin
	if p.Path != "-" {
		if f, err = os.Open(p.Path); err != nil {
			return err
		}
		defer f.Close()
	}
	var activity map[string]any
	if err := json.UnmarshalFull(f, &activity); err != nil {
		return err
	}

	cfg := &ctx.Settings
	redis := newRedisClient(ctx)
	defer redis.Close()
	updates := activitypub.NewUpdates(
		lock.NewLocker(redis, cfg.Redis.LockPrefix, ctx.Logger),
		models.NewStatusUpdater(db, ctx.Logger, cfg),
		cfg.Statuses.LockTTL,
		ctx.Logger,
	)
	return activitypub.NewInbox(db, updates, ctx.Logger).Process(context.Background(), activity)
}
