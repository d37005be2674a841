package ports

import (
	"context"
	"testing"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunHistoryStoreContract runs a suite of tests to verify that a HistoryStore implementation
// adheres to the defined interface contract.
func RunHistoryStoreContract(t *testing.T, store HistoryStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")
	at := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		conv := domain.NewConversation(sessionID)
		conv.Append(domain.Turn{Query: "아반떼 연비 알려줘", Intent: domain.IntentText, Response: "15km/L", CreatedAt: at})
		conv.Append(domain.Turn{Query: "그려줘", Intent: domain.IntentImage, Response: "설명", Image: "generated_images/a.png", CreatedAt: at.Add(time.Minute)})

		err := store.Save(ctx, sessionID, conv)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded.Turns, 2)
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, "아반떼 연비 알려줘", loaded.Turns[0].Query)
		assert.Equal(t, domain.IntentImage, loaded.Turns[1].Intent)
		assert.Equal(t, "generated_images/a.png", loaded.Turns[1].Image)
		assert.True(t, at.Equal(loaded.Turns[0].CreatedAt), "timestamps must round-trip")
	})

	t.Run("Save replaces previous conversation", func(t *testing.T) {
		conv := domain.NewConversation(sessionID)
		conv.Append(domain.Turn{Query: "only", Intent: domain.IntentText, CreatedAt: at})
		require.NoError(t, store.Save(ctx, sessionID, conv))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, loaded.Turns, 1)
		assert.Equal(t, "only", loaded.Turns[0].Query)
	})

	t.Run("Loaded value is isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Turns[0].Query = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "only", again.Turns[0].Query)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewConversation(sessionID)))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewConversation(id1))
		_ = store.Save(ctx, id2, domain.NewConversation(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
