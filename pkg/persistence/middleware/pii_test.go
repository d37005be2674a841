package middleware_test

import (
	"context"
	"testing"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/adapters/memory"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/persistence/middleware"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlyingStore := NewMockStore()
	secureStore := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)(underlyingStore)

	ctx := context.Background()
	sessionID := "pii-session"
	conv := domain.NewConversation(sessionID)
	conv.Append(domain.Turn{
		Query:     "시승 예약 010-1234-5678 으로 연락주세요, kim@example.com",
		Intent:    domain.IntentText,
		Response:  "주민번호 900101-1234567 는 필요하지 않습니다",
		CreatedAt: time.Now(),
	})

	require.NoError(t, secureStore.Save(ctx, sessionID, conv))

	assert.Contains(t, conv.Turns[0].Query, "010-1234-5678", "Middleware modified original conversation in memory")

	stored, err := underlyingStore.Load(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "시승 예약 *** 으로 연락주세요, ***", stored.Turns[0].Query)
	assert.Equal(t, "주민번호 *** 는 필요하지 않습니다", stored.Turns[0].Response)
}

func TestPIIMiddleware_Contract(t *testing.T) {
	store := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)(memory.NewStore())
	ports.RunHistoryStoreContract(t, store)
}

func TestChain_OrderIsOutermostFirst(t *testing.T) {
	underlying := NewMockStore()
	key := generateKey(t)
	store := middleware.Chain(underlying,
		middleware.NewPIIMiddleware([]string{`secret`}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)

	ctx := context.Background()
	conv := domain.NewConversation("s")
	conv.Append(domain.Turn{Query: "my secret plan", CreatedAt: time.Now()})
	require.NoError(t, store.Save(ctx, "s", conv))

	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "my *** plan", loaded.Turns[0].Query, "masking happens before encryption")
}
