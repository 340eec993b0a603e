package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/issuedesk/internal/security/auth"
)

type countingPurger struct {
	calls atomic.Int32
}

func (p *countingPurger) Purge() int {
	p.calls.Add(1)
	return 2
}

func TestRevocationSweeper_Sweep(t *testing.T) {
	store := auth.NewMemoryRevocationStore()
	ctx := context.Background()
	require.NoError(t, store.Revoke(ctx, "short", time.Now().Add(20*time.Millisecond)))
	require.NoError(t, store.Revoke(ctx, "long", time.Now().Add(time.Hour)))

	sweeper := NewRevocationSweeper(store, nil, time.Minute)
	assert.Equal(t, 0, sweeper.Sweep())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, sweeper.Sweep())

	revoked, err := store.IsRevoked(ctx, "long")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevocationSweeper_StartStopsWithContext(t *testing.T) {
	purger := &countingPurger{}
	sweeper := NewRevocationSweeper(purger, nil, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return purger.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
