package models

import (
	"testing"

	"github.com/davecheney/revise/internal/snowflake"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func attachmentIDs(t *testing.T, tx *gorm.DB, status *Status) []snowflake.ID {
	t.Helper()
	var ids []snowflake.ID
	require.NoError(t, tx.Model(&StatusAttachment{}).Where("status_id = ?", status.ID).Order("id").Pluck("id", &ids).Error)
	return ids
}

func countRows(t *testing.T, tx *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, tx.Model(model).Count(&n).Error)
	return n
}

func TestMediaAttachmentsReconcileRemote(t *testing.T) {
	db := setupTestDB(t)

	t.Run("Assert new remote attachments are created and attached", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockActor(t, tx, "alice", "remote.example")
		status := MockStatus(t, tx, alice, "hello")

		media := NewMediaAttachments(tx, testLogger(), 4)
		changed, err := media.ReconcileRemote(status, []RemoteAttachment{
			{URL: "https://remote.example/a.png", MediaType: "image/png", Description: "a cat"},
			{URL: "https://remote.example/b.png", MediaType: "image/png", FocalPoint: FocalPoint{X: 0.5, Y: -0.5}},
		})
		require.NoError(err)
		require.True(changed)
		require.Len(status.MediaAttachmentIDs, 2)
		require.ElementsMatch([]snowflake.ID(status.MediaAttachmentIDs), attachmentIDs(t, tx, status))

		var first StatusAttachment
		require.NoError(tx.First(&first, status.MediaAttachmentIDs[0]).Error)
		require.Equal("https://remote.example/a.png", first.RemoteURL)
		require.Equal("a cat", first.Description)
		require.Equal(alice.ID, first.ActorID)

		var reloaded Status
		require.NoError(tx.First(&reloaded, status.ID).Error)
		require.Equal(status.MediaAttachmentIDs, reloaded.MediaAttachmentIDs)

		require.EqualValues(2, countRows(t, tx.Where("status_attachment_id IN ?", []snowflake.ID(status.MediaAttachmentIDs)), &StatusAttachmentRequest{}))
	})

	t.Run("Assert matching urls reuse attachments", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockActor(t, tx, "alice", "remote.example")
		status := MockStatus(t, tx, alice, "hello")
		media := NewMediaAttachments(tx, testLogger(), 4)

		targets := []RemoteAttachment{{URL: "https://remote.example/a.png"}}
		changed, err := media.ReconcileRemote(status, targets)
		require.NoError(err)
		require.True(changed)
		first := status.MediaAttachmentIDs[0]
		before := countRows(t, tx, &StatusAttachment{})

		changed, err = media.ReconcileRemote(status, []RemoteAttachment{{URL: "HTTPS://Remote.Example:443/./a.png#top", Description: "edited"}})
		require.NoError(err)
		require.False(changed)
		require.Equal(first, status.MediaAttachmentIDs[0])
		require.Equal(before, countRows(t, tx, &StatusAttachment{}))

		var att StatusAttachment
		require.NoError(tx.First(&att, first).Error)
		require.Equal("edited", att.Description)
	})

	t.Run("Assert changed thumbnail requests a redownload", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockActor(t, tx, "alice", "remote.example")
		status := MockStatus(t, tx, alice, "hello")
		media := NewMediaAttachments(tx, testLogger(), 4)

		_, err := media.ReconcileRemote(status, []RemoteAttachment{{URL: "https://remote.example/a.mp4", ThumbnailURL: "https://remote.example/a.jpg"}})
		require.NoError(err)
		id := status.MediaAttachmentIDs[0]
		require.NoError(tx.Model(&StatusAttachmentRequest{}).Where("status_attachment_id = ?", id).Update("attempts", 3).Error)

		// unchanged, the exhausted request is left alone
		_, err = media.ReconcileRemote(status, []RemoteAttachment{{URL: "https://remote.example/a.mp4", ThumbnailURL: "https://remote.example/a.jpg"}})
		require.NoError(err)
		var req StatusAttachmentRequest
		require.NoError(tx.Where("status_attachment_id = ?", id).Take(&req).Error)
		require.EqualValues(3, req.Attempts)

		_, err = media.ReconcileRemote(status, []RemoteAttachment{{URL: "https://remote.example/a.mp4", ThumbnailURL: "https://remote.example/b.jpg"}})
		require.NoError(err)
		require.NoError(tx.Where("status_attachment_id = ?", id).Take(&req).Error)
		require.EqualValues(0, req.Attempts)
	})

	t.Run("Assert malformed urls are skipped", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockActor(t, tx, "alice", "remote.example")
		status := MockStatus(t, tx, alice, "hello")
		media := NewMediaAttachments(tx, testLogger(), 4)

		changed, err := media.ReconcileRemote(status, []RemoteAttachment{
			{URL: "ftp://remote.example/a.png"},
			{URL: "https://remote.example/%zz"},
			{URL: "https://remote.example/ok.png"},
		})
		require.NoError(err)
		require.True(changed)
		require.Len(status.MediaAttachmentIDs, 1)
		require.Equal("https://remote.example/ok.png", status.Attachments[0].RemoteURL)
	})

	t.Run("Assert at most four attachments are kept", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockActor(t, tx, "alice", "remote.example")
		status := MockStatus(t, tx, alice, "hello")
		media := NewMediaAttachments(tx, testLogger(), 4)

		var targets []RemoteAttachment
		for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
			targets = append(targets, RemoteAttachment{URL: "https://remote.example/" + name + ".png"})
		}
		_, err := media.ReconcileRemote(status, targets)
		require.NoError(err)
		require.Len(status.MediaAttachmentIDs, 4)
		require.Len(attachmentIDs(t, tx, status), 4)
		require.Equal("https://remote.example/d.png", status.Attachments[3].RemoteURL)
	})

	t.Run("Assert targets past the fourth are ignored even when earlier ones are malformed", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockActor(t, tx, "alice", "remote.example")
		status := MockStatus(t, tx, alice, "hello")
		media := NewMediaAttachments(tx, testLogger(), 4)

		_, err := media.ReconcileRemote(status, []RemoteAttachment{
			{URL: "ftp://remote.example/a.png"},
			{URL: "https://remote.example/b.png"},
			{URL: "https://remote.example/%zz"},
			{URL: "https://remote.example/d.png"},
			{URL: "https://remote.example/e.png"},
		})
		require.NoError(err)
		require.Len(status.MediaAttachmentIDs, 2)
		require.Equal("https://remote.example/b.png", status.Attachments[0].RemoteURL)
		require.Equal("https://remote.example/d.png", status.Attachments[1].RemoteURL)
		require.EqualValues(2, countRows(t, tx, &StatusAttachment{}))
	})

	t.Run("Assert removed attachments are detached not deleted", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockActor(t, tx, "alice", "remote.example")
		status := MockStatus(t, tx, alice, "hello")
		media := NewMediaAttachments(tx, testLogger(), 4)

		_, err := media.ReconcileRemote(status, []RemoteAttachment{
			{URL: "https://remote.example/a.png"},
			{URL: "https://remote.example/b.png"},
		})
		require.NoError(err)
		removed := status.MediaAttachmentIDs[1]

		changed, err := media.ReconcileRemote(status, []RemoteAttachment{{URL: "https://remote.example/a.png"}})
		require.NoError(err)
		require.True(changed)
		require.Len(status.MediaAttachmentIDs, 1)

		var att StatusAttachment
		require.NoError(tx.First(&att, removed).Error)
		require.Nil(att.StatusID)
	})

	t.Run("Assert reordering is not a change", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockActor(t, tx, "alice", "remote.example")
		status := MockStatus(t, tx, alice, "hello")
		media := NewMediaAttachments(tx, testLogger(), 4)

		_, err := media.ReconcileRemote(status, []RemoteAttachment{
			{URL: "https://remote.example/a.png"},
			{URL: "https://remote.example/b.png"},
		})
		require.NoError(err)
		a, b := status.MediaAttachmentIDs[0], status.MediaAttachmentIDs[1]

		changed, err := media.ReconcileRemote(status, []RemoteAttachment{
			{URL: "https://remote.example/b.png"},
			{URL: "https://remote.example/a.png"},
		})
		require.NoError(err)
		require.False(changed)
		require.Equal([]snowflake.ID{b, a}, []snowflake.ID(status.MediaAttachmentIDs))
	})
}

func TestMediaAttachmentsAttachLocal(t *testing.T) {
	db := setupTestDB(t)

	t.Run("Assert owned attachments are attached in request order", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockActor(t, tx, "alice", "example.com", WithType("LocalPerson"))
		bob := MockActor(t, tx, "bob", "example.com", WithType("LocalPerson"))
		status := MockStatus(t, tx, alice, "hello")
		other := MockStatus(t, tx, alice, "other")

		a := MockAttachment(t, tx, alice)
		b := MockAttachment(t, tx, alice)
		bobs := MockAttachment(t, tx, bob)
		elsewhere := MockAttachment(t, tx, alice)
		require.NoError(tx.Model(elsewhere).Update("status_id", other.ID).Error)

		media := NewMediaAttachments(tx, testLogger(), 4)
		changed, err := media.AttachLocal(status, alice, []snowflake.ID{b.ID, bobs.ID, a.ID, elsewhere.ID})
		require.NoError(err)
		require.True(changed)
		require.Equal([]snowflake.ID{b.ID, a.ID}, []snowflake.ID(status.MediaAttachmentIDs))
		require.ElementsMatch([]snowflake.ID{a.ID, b.ID}, attachmentIDs(t, tx, status))
		require.Equal([]snowflake.ID{elsewhere.ID}, attachmentIDs(t, tx, other))
	})

	t.Run("Assert attaching the same set is not a change", func(t *testing.T) {
		require := require.New(t)
		tx := db.Begin()
		defer tx.Rollback()

		alice := MockActor(t, tx, "alice", "example.com", WithType("LocalPerson"))
		status := MockStatus(t, tx, alice, "hello")
		a := MockAttachment(t, tx, alice)
		media := NewMediaAttachments(tx, testLogger(), 4)

		_, err := media.AttachLocal(status, alice, []snowflake.ID{a.ID})
		require.NoError(err)
		changed, err := media.AttachLocal(status, alice, []snowflake.ID{a.ID})
		require.NoError(err)
		require.False(changed)

		changed, err = media.AttachLocal(status, alice, nil)
		require.NoError(err)
		require.True(changed)
		require.Empty(attachmentIDs(t, tx, status))
	})
}
