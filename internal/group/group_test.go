package group

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestGroupStopsAllMembersOnFirstReturn(t *testing.T) {
	require := require.New(t)

	g := New(context.Background(), slog.Default())
	boom := errors.New("boom")
	g.Go("waiter", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	g.Go("failer", func(ctx context.Context) error {
		return boom
	})
	require.Equal(boom, g.Wait())
}

func TestGroupParentCancellation(t *testing.T) {
	require := require.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	g := New(ctx, slog.Default())
	for _, name := range []string{"a", "b"} {
		g.Go(name, func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		})
	}
	cancel()
	require.NoError(g.Wait())
}
