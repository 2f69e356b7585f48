// Package ledger tracks, per (configuration, symbol, combination,
// direction), how many pseudo positions are currently open against the
// allowed maximum, plus the cooldown gate. All mutations for one key are
// serialized; distinct keys proceed in parallel.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/raykavin/ruleforge/core"
)

// Defaults for ledger behaviour.
const (
	DefaultMaxPositions  = 3
	DefaultOpenCooldown  = 5 * time.Minute
	DefaultCloseCooldown = 30 * time.Second
)

// Option configures a Tracker.
type Option func(*Tracker)

// WithDefaultMaxPositions sets the MaxPositions for lazily created entries.
func WithDefaultMaxPositions(n int) Option {
	return func(t *Tracker) { t.defaultMax = n }
}

// WithOpenCooldown sets the cooldown applied after a position opens.
func WithOpenCooldown(d time.Duration) Option {
	return func(t *Tracker) { t.openCooldown = d }
}

// WithCloseCooldown sets the short cooldown applied after a position closes
// to prevent immediate re-open thrash.
func WithCloseCooldown(d time.Duration) Option {
	return func(t *Tracker) { t.closeCooldown = d }
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) { t.clock = clock }
}

// Tracker is the position-limit ledger. The store is the system of record;
// the tracker serializes access per key so concurrent opens and closes for
// the same key can never race.
type Tracker struct {
	store core.LimitStore
	log   core.Logger

	mu    sync.Mutex
	locks map[core.LimitKey]*sync.Mutex

	defaultMax    int
	openCooldown  time.Duration
	closeCooldown time.Duration
	clock         func() time.Time
}

// NewTracker creates a ledger tracker backed by the given store.
func NewTracker(store core.LimitStore, log core.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		store:         store,
		log:           log,
		locks:         make(map[core.LimitKey]*sync.Mutex),
		defaultMax:    DefaultMaxPositions,
		openCooldown:  DefaultOpenCooldown,
		closeCooldown: DefaultCloseCooldown,
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// keyLock returns the mutex serializing one ledger key.
func (t *Tracker) keyLock(key core.LimitKey) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[key] = lock
	}
	return lock
}

// Ensure lazily creates the ledger entry for a key the first time its
// combination validates. Existing entries keep their counters; only the
// maximum is refreshed.
func (t *Tracker) Ensure(ctx context.Context, key core.LimitKey, maxPositions int) error {
	if maxPositions <= 0 {
		maxPositions = t.defaultMax
	}

	lock := t.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	limit, err := t.store.LoadLimit(ctx, key)
	switch {
	case errors.Is(err, core.ErrNotFound):
		limit = &core.PositionLimit{
			ConfigSetID:     key.ConfigSetID,
			Symbol:          key.Symbol,
			CombinationHash: key.CombinationHash,
			Direction:       key.Direction,
			MaxPositions:    maxPositions,
		}
	case err != nil:
		return fmt.Errorf("load limit %s: %w", key, err)
	default:
		limit.MaxPositions = maxPositions
	}

	return t.store.SaveLimit(ctx, limit)
}

// CanOpen reports whether the key currently has capacity and is outside its
// cooldown window. A key without a ledger entry cannot open.
func (t *Tracker) CanOpen(ctx context.Context, key core.LimitKey) (bool, error) {
	lock := t.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	limit, err := t.store.LoadLimit(ctx, key)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load limit %s: %w", key, err)
	}

	return t.canOpenLocked(limit), nil
}

func (t *Tracker) canOpenLocked(limit *core.PositionLimit) bool {
	if limit.CurrentPositions >= limit.MaxPositions {
		return false
	}
	if limit.CooldownUntil != nil && t.clock().Before(*limit.CooldownUntil) {
		return false
	}
	return true
}

// OnOpen atomically increments the open count, records the open time and
// arms the post-open cooldown. It re-checks capacity under the key lock so
// a concurrent open cannot exceed the maximum.
func (t *Tracker) OnOpen(ctx context.Context, key core.LimitKey) error {
	lock := t.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	limit, err := t.store.LoadLimit(ctx, key)
	if err != nil {
		return fmt.Errorf("load limit %s: %w", key, err)
	}

	if limit.CurrentPositions >= limit.MaxPositions {
		return core.ErrAtCapacity
	}
	now := t.clock()
	if limit.CooldownUntil != nil && now.Before(*limit.CooldownUntil) {
		return core.ErrCooldownActive
	}

	limit.CurrentPositions++
	limit.LastPositionOpenedAt = &now
	if t.openCooldown > 0 {
		until := now.Add(t.openCooldown)
		limit.CooldownUntil = &until
	}

	return t.store.SaveLimit(ctx, limit)
}

// OnClose atomically decrements the open count and arms the short post-close
// cooldown. A counter that would go negative is clamped to zero and logged
// for audit instead of failing the caller.
func (t *Tracker) OnClose(ctx context.Context, key core.LimitKey) error {
	lock := t.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	limit, err := t.store.LoadLimit(ctx, key)
	if errors.Is(err, core.ErrNotFound) {
		t.log.Warnf("close for unknown ledger key %s", key)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load limit %s: %w", key, err)
	}

	limit.CurrentPositions--
	if limit.CurrentPositions < 0 {
		t.log.Warnf("ledger key %s counter went negative, clamping to 0", key)
		limit.CurrentPositions = 0
	}

	if t.closeCooldown > 0 {
		until := t.clock().Add(t.closeCooldown)
		limit.CooldownUntil = &until
	}

	return t.store.SaveLimit(ctx, limit)
}
