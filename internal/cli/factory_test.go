package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/config"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/session"
)

func offlineConfig() *config.Config {
	cfg := config.Default()
	cfg.LLM.Provider = "none"
	cfg.VectorDB.Provider = "none"
	cfg.WebSearch.Provider = "none"
	return cfg
}

func TestBuild_OfflineDefaults(t *testing.T) {
	ctx := context.Background()
	app, err := Build(ctx, config.Default(), nil, BuildOptions{})
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Indexer, "no embedder means no vector store")
	assert.Equal(t, 2, app.Engine.MaxRefinements())

	state, err := app.Sessions.Ask(ctx, "s1", "캐스퍼 3D 모델 보여줘")
	require.NoError(t, err)
	assert.Equal(t, domain.Intent3D, state.Intent)
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfg := offlineConfig()
	cfg.Store.Backend = "etcd"

	app, err := Build(context.Background(), cfg, nil, BuildOptions{})
	assert.Error(t, err)
	assert.Nil(t, app)
}

func TestBuild_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := offlineConfig()
	cfg.Store.Backend = "redis"
	cfg.Store.RedisAddr = mr.Addr()

	ctx := context.Background()
	app, err := Build(ctx, cfg, nil, BuildOptions{})
	require.NoError(t, err)

	_, err = app.Sessions.Ask(ctx, "redis-session", "쏘나타 동영상 만들어줘")
	require.NoError(t, err)

	ids, err := app.Sessions.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"redis-session"}, ids)
	assert.True(t, mr.Exists("babsim:session:redis-session"))
	assert.Equal(t, 10*time.Minute, app.Sessions.LockTTL(), "lock outlives a run with two refinements")

	require.NoError(t, app.Close())
}

func TestSessionLockTTL(t *testing.T) {
	tests := []struct {
		name string
		p    config.PipelineConfig
		want time.Duration
	}{
		{"defaults", config.PipelineConfig{MaxRefinements: 2, GenerationTimeout: time.Minute}, 10 * time.Minute},
		{"no refinement", config.PipelineConfig{GenerationTimeout: time.Minute}, 4 * time.Minute},
		{"short timeout keeps the floor", config.PipelineConfig{MaxRefinements: 1, GenerationTimeout: time.Second}, session.DefaultLockTTL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sessionLockTTL(tt.p))
		})
	}
}

func TestBuild_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := offlineConfig()
	cfg.Store.Backend = "redis"
	cfg.Store.RedisAddr = addr

	_, err := Build(context.Background(), cfg, nil, BuildOptions{})
	require.Error(t, err)
	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
}

func TestBuild_ProtectedSQLiteStore(t *testing.T) {
	cfg := offlineConfig()
	cfg.Store.Backend = "sqlite"
	cfg.Store.DSN = "file::memory:"
	cfg.Store.MaskPII = true
	cfg.Store.EncryptionKey = "MDEyMzQ1Njc4OTAxMjM0NTY3ODkwMTIzNDU2Nzg5MDE="

	ctx := context.Background()
	app, err := Build(ctx, cfg, nil, BuildOptions{})
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Sessions.Ask(ctx, "pii", "user@example.com 아반떼 연비 알려줘")
	require.NoError(t, err)

	conv, err := app.Sessions.History(ctx, "pii")
	require.NoError(t, err)
	require.Len(t, conv.Turns, 1)
	assert.False(t, strings.Contains(conv.Turns[0].Query, "user@example.com"))
	assert.Contains(t, conv.Turns[0].Query, "***")
}

func TestBuild_HooksAreMerged(t *testing.T) {
	var completed int
	hooks := domain.LifecycleHooks{
		OnRunComplete: func(context.Context, *domain.RunEvent) { completed++ },
	}

	ctx := context.Background()
	app, err := Build(ctx, offlineConfig(), nil, BuildOptions{Hooks: hooks, Debug: true})
	require.NoError(t, err)
	defer app.Close()

	app.Engine.Run(ctx, "그랜저 그려줘")
	assert.Equal(t, 1, completed)
}
