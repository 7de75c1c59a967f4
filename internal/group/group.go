// Package group runs a set of named, long lived goroutines which share a
// lifetime.
package group

import (
	"context"
	"sync"

	"golang.org/x/exp/slog"
)

// A G manages the lifetime of a set of goroutines from a common context.
// The first goroutine in the group to return cancels the context,
// terminating the remaining goroutines.
type G struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	done   sync.WaitGroup

	errOnce sync.Once
	err     error
}

// New returns a new group derived from ctx.
func New(ctx context.Context, logger *slog.Logger) *G {
	ctx, cancel := context.WithCancel(ctx)
	return &G{
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Go runs fn in a new goroutine. fn should return when its context is canceled.
func (g *G) Go(name string, fn func(context.Context) error) {
	g.done.Add(1)
	go func() {
		defer g.done.Done()
		defer g.cancel()
		g.logger.Info("started", "name", name)
		err := fn(g.ctx)
		g.logger.Info("stopped", "name", name, "err", err)
		if err != nil {
			g.errOnce.Do(func() { g.err = err })
		}
	}()
}

// Wait waits for all goroutines in the group to exit and returns the
// first error reported, if any.
func (g *G) Wait() error {
	g.done.Wait()
	g.errOnce.Do(func() {})
	return g.err
}
