package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raykavin/ruleforge/core"
	"github.com/raykavin/ruleforge/storage"
)

func testKey() core.LimitKey {
	return core.LimitKey{
		ConfigSetID:     "set-1",
		Symbol:          "BTCUSDT",
		CombinationHash: "abc123",
		Direction:       core.DirectionLong,
	}
}

func newTestTracker(t *testing.T, opts ...Option) *Tracker {
	t.Helper()

	store, err := storage.NewFromMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	base := []Option{
		WithOpenCooldown(0),
		WithCloseCooldown(0),
	}
	return NewTracker(store, core.NewNopLogger(), append(base, opts...)...)
}

func TestEnsure_CreatesAndRefreshesMax(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()
	key := testKey()

	require.NoError(t, tracker.Ensure(ctx, key, 2))

	granted, err := tracker.CanOpen(ctx, key)
	require.NoError(t, err)
	require.True(t, granted)

	require.NoError(t, tracker.OnOpen(ctx, key))
	require.NoError(t, tracker.OnOpen(ctx, key))
	require.ErrorIs(t, tracker.OnOpen(ctx, key), core.ErrAtCapacity)

	// Raising the maximum keeps the current counter.
	require.NoError(t, tracker.Ensure(ctx, key, 3))
	require.NoError(t, tracker.OnOpen(ctx, key))
	require.ErrorIs(t, tracker.OnOpen(ctx, key), core.ErrAtCapacity)
}

func TestCanOpen_UnknownKey(t *testing.T) {
	tracker := newTestTracker(t)

	granted, err := tracker.CanOpen(context.Background(), testKey())
	require.NoError(t, err)
	require.False(t, granted)
}

func TestOnClose_ReleasesCapacity(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()
	key := testKey()

	require.NoError(t, tracker.Ensure(ctx, key, 1))
	require.NoError(t, tracker.OnOpen(ctx, key))
	require.ErrorIs(t, tracker.OnOpen(ctx, key), core.ErrAtCapacity)

	require.NoError(t, tracker.OnClose(ctx, key))
	require.NoError(t, tracker.OnOpen(ctx, key))
}

func TestOnClose_ClampsAtZero(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()
	key := testKey()

	require.NoError(t, tracker.Ensure(ctx, key, 2))
	require.NoError(t, tracker.OnClose(ctx, key))
	require.NoError(t, tracker.OnClose(ctx, key))

	// A clamped counter still leaves full capacity available.
	require.NoError(t, tracker.OnOpen(ctx, key))
	require.NoError(t, tracker.OnOpen(ctx, key))
	require.ErrorIs(t, tracker.OnOpen(ctx, key), core.ErrAtCapacity)
}

func TestOnClose_UnknownKeyIsIgnored(t *testing.T) {
	tracker := newTestTracker(t)
	require.NoError(t, tracker.OnClose(context.Background(), testKey()))
}

func TestOpenCooldown_BlocksUntilElapsed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now

	tracker := newTestTracker(t,
		WithOpenCooldown(5*time.Minute),
		WithClock(func() time.Time { return *clock }),
	)
	ctx := context.Background()
	key := testKey()

	require.NoError(t, tracker.Ensure(ctx, key, 5))
	require.NoError(t, tracker.OnOpen(ctx, key))
	require.ErrorIs(t, tracker.OnOpen(ctx, key), core.ErrCooldownActive)

	granted, err := tracker.CanOpen(ctx, key)
	require.NoError(t, err)
	require.False(t, granted)

	later := now.Add(5 * time.Minute)
	clock = &later

	granted, err = tracker.CanOpen(ctx, key)
	require.NoError(t, err)
	require.True(t, granted)
	require.NoError(t, tracker.OnOpen(ctx, key))
}

func TestCloseCooldown_BlocksReopen(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now

	tracker := newTestTracker(t,
		WithCloseCooldown(30*time.Second),
		WithClock(func() time.Time { return *clock }),
	)
	ctx := context.Background()
	key := testKey()

	require.NoError(t, tracker.Ensure(ctx, key, 1))
	require.NoError(t, tracker.OnOpen(ctx, key))
	require.NoError(t, tracker.OnClose(ctx, key))

	require.ErrorIs(t, tracker.OnOpen(ctx, key), core.ErrCooldownActive)

	later := now.Add(time.Minute)
	clock = &later
	require.NoError(t, tracker.OnOpen(ctx, key))
}

// Concurrent opens against one key must never push the counter past the
// maximum.
func TestOnOpen_ConcurrentNeverExceedsMax(t *testing.T) {
	store, err := storage.NewFromMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tracker := NewTracker(store, core.NewNopLogger(), WithOpenCooldown(0), WithCloseCooldown(0))
	ctx := context.Background()
	key := testKey()

	const maxPositions = 3
	require.NoError(t, tracker.Ensure(ctx, key, maxPositions))

	var wg sync.WaitGroup
	granted := make(chan struct{}, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tracker.OnOpen(ctx, key); err == nil {
				granted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(granted)

	require.Len(t, granted, maxPositions)

	limit, err := store.LoadLimit(ctx, key)
	require.NoError(t, err)
	require.Equal(t, maxPositions, limit.CurrentPositions)
}
