package models

import (
	"context"
	"testing"
	"time"

	"github.com/davecheney/revise/internal/snowflake"
	"github.com/stretchr/testify/require"
)

func TestStatusEdits(t *testing.T) {
	db := setupTestDB(t)

	t.Run("Assert baseline is recorded once at the creation time of the status", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		created := time.Now().Add(-48 * time.Hour).Truncate(time.Millisecond)
		alice := MockActor(t, tx, "alice", "example.com")
		status := MockStatus(t, tx, alice, "original", WithCreatedAt(created))
		edits := NewStatusEdits(tx)

		require.NoError(edits.EnsureBaseline(status))
		status.Note = "changed in memory"
		require.NoError(edits.EnsureBaseline(status))

		history, err := edits.History(status.ID)
		require.NoError(err)
		require.Len(history, 1)
		require.Equal("original", history[0].Note)
		require.False(history[0].MediaChanged)
		require.Nil(history[0].ActorID)
		require.True(created.Equal(history[0].CreatedAt), "want %v, got %v", created, history[0].CreatedAt)
	})

	t.Run("Assert recorded edits follow the baseline", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockActor(t, tx, "alice", "example.com")
		status := MockStatus(t, tx, alice, "first", WithCreatedAt(time.Now().Add(-time.Hour)))
		edits := NewStatusEdits(tx)
		require.NoError(edits.EnsureBaseline(status))

		att := MockAttachment(t, tx, alice, func(att *StatusAttachment) {
			att.Description = "a dog"
		})
		changed, err := NewMediaAttachments(tx, testLogger(), 4).AttachLocal(status, alice, []snowflake.ID{att.ID})
		require.NoError(err)
		require.True(changed)

		editedAt := time.Now().Truncate(time.Millisecond)
		status.Note = "second"
		status.SpoilerText = "cw"
		status.EditedAt = &editedAt
		edit, err := edits.Record(status, &alice.ID, true)
		require.NoError(err)
		require.True(editedAt.Equal(edit.CreatedAt))

		history, err := edits.History(status.ID)
		require.NoError(err)
		require.Len(history, 2)
		require.Equal("first", history[0].Note)
		require.Empty(history[0].MediaAttachmentIDs)
		require.Equal("second", history[1].Note)
		require.Equal("cw", history[1].SpoilerText)
		require.True(history[1].MediaChanged)
		require.Equal(alice.ID, *history[1].ActorID)
		require.Equal([]snowflake.ID{att.ID}, []snowflake.ID(history[1].MediaAttachmentIDs))
		require.Equal([]string{"a dog"}, []string(history[1].MediaDescriptions))
	})

	t.Run("Assert the baseline stays first when an edit is dated before the status", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		bob := MockActor(t, tx, "bob", "remote.example")
		status := MockStatus(t, tx, bob, "old")
		err := NewStatusUpdater(tx, testLogger(), testConfig()).UpdateRemote(context.Background(), status, &RemoteNote{
			Type:    "Note",
			Content: "new",
			Updated: status.CreatedAt().Add(-time.Minute),
		})
		require.NoError(err)

		history, err := NewStatusEdits(tx).History(status.ID)
		require.NoError(err)
		require.Len(history, 2)
		require.Equal("old", history[0].Note)
		require.True(status.CreatedAt().Equal(history[0].CreatedAt))
		require.Equal("new", history[1].Note)
	})

	t.Run("Assert the baseline includes attachments linked only by status", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockActor(t, tx, "alice", "example.com")
		status := MockStatus(t, tx, alice, "first")
		second := MockAttachment(t, tx, alice, func(att *StatusAttachment) {
			att.StatusID = &status.ID
			att.Description = "second"
		})
		first := MockAttachment(t, tx, alice, func(att *StatusAttachment) {
			att.StatusID = &status.ID
			att.Description = "first"
		})
		require.Empty(status.MediaAttachmentIDs)

		edits := NewStatusEdits(tx)
		require.NoError(edits.EnsureBaseline(status))
		history, err := edits.History(status.ID)
		require.NoError(err)
		require.Len(history, 1)
		require.Equal([]snowflake.ID{second.ID, first.ID}, []snowflake.ID(history[0].MediaAttachmentIDs))
		require.Equal([]string{"second", "first"}, []string(history[0].MediaDescriptions))
	})

	t.Run("Assert edits cannot be modified", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockActor(t, tx, "alice", "example.com")
		status := MockStatus(t, tx, alice, "first")
		edits := NewStatusEdits(tx)
		require.NoError(edits.EnsureBaseline(status))
		history, err := edits.History(status.ID)
		require.NoError(err)

		history[0].Note = "rewritten"
		require.Error(tx.Save(history[0]).Error)
	})
}
