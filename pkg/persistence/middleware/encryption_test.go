package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/adapters/memory"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/persistence/middleware"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func conversation(sessionID, query string) *domain.Conversation {
	conv := domain.NewConversation(sessionID)
	conv.Append(domain.Turn{Query: query, Intent: domain.IntentText, Response: "answer", CreatedAt: time.Now()})
	return conv
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)

	ctx := context.Background()
	sessionID := "test-session"
	require.NoError(t, secureStore.Save(ctx, sessionID, conversation(sessionID, "my-secret-sauce")))

	stored, err := underlyingStore.Load(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, stored.Turns, 1)
	assert.Equal(t, "__encrypted__", stored.Turns[0].Query)
	assert.NotContains(t, stored.Turns[0].Response, "my-secret-sauce")

	loaded, err := secureStore.Load(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.Turns[0].Query)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(memory.NewStore())
	ports.RunHistoryStoreContract(t, store)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)

	ctx := context.Background()
	sessionID := "rotation-session"
	require.NoError(t, secureStoreOld.Save(ctx, sessionID, conversation(sessionID, "encrypted-with-old-key")))

	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, sessionID)
	require.NoError(t, err, "Load with rotated key failed")
	assert.Equal(t, "encrypted-with-old-key", loaded.Turns[0].Query)

	loaded.Turns[0].Query = "encrypted-with-new-key"
	require.NoError(t, secureStoreNew.Save(ctx, sessionID, loaded))

	_, err = secureStoreOld.Load(ctx, sessionID)
	assert.Error(t, err, "Expected failure when loading new-key encryption with old-key middleware")
}

func TestEncryptionMiddleware_RejectsPlainRecords(t *testing.T) {
	underlyingStore := NewMockStore()
	require.NoError(t, underlyingStore.Save(context.Background(), "plain", conversation("plain", "q")))

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	_, err := secureStore.Load(context.Background(), "plain")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}
