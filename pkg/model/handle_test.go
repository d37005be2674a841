package model

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHandle_LoadsLazilyOnce(t *testing.T) {
	loads := atomic.NewInt32(0)
	h := NewHandle("exaone", func(ctx context.Context) (string, error) {
		loads.Inc()
		return "weights", nil
	})
	assert.False(t, h.Loaded())
	assert.EqualValues(t, 0, loads.Load())

	for i := 0; i < 3; i++ {
		v, release, err := h.Acquire(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "weights", v)
		release()
		release() // second call is a no-op
	}
	assert.True(t, h.Loaded())
	assert.EqualValues(t, 1, loads.Load())
}

func TestHandle_SingleHolder(t *testing.T) {
	h := NewHandle("sd", func(ctx context.Context) (int, error) { return 1, nil })

	active := atomic.NewInt32(0)
	maxSeen := atomic.NewInt32(0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := h.With(context.Background(), func(int) error {
				n := active.Inc()
				if n > maxSeen.Load() {
					maxSeen.Store(n)
				}
				time.Sleep(2 * time.Millisecond)
				active.Dec()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, maxSeen.Load())
}

func TestHandle_AcquireHonoursDeadline(t *testing.T) {
	h := NewHandle("sd", func(ctx context.Context) (int, error) { return 1, nil })
	_, release, err := h.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, _, err = h.Acquire(ctx)
	require.Error(t, err)
	assert.Equal(t, domain.KindCallFailure, domain.KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHandle_LoadFailureIsRetried(t *testing.T) {
	fail := atomic.NewBool(true)
	h := NewHandle("exaone", func(ctx context.Context) (string, error) {
		if fail.Load() {
			return "", errors.New("no gpu")
		}
		return "ok", nil
	})

	_, _, err := h.Acquire(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
	assert.False(t, h.Loaded())

	fail.Store(false)
	v, release, err := h.Acquire(context.Background())
	require.NoError(t, err, "a failed load must release the handle")
	defer release()
	assert.Equal(t, "ok", v)
}
