// Package lifecycle maintains all open pseudo positions in memory and ticks
// them against fresh prices to detect exits. The manager exclusively owns
// in-memory position mutation during a tick; the position store is a mirror
// written after each state transition.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/StudioSol/set"
	"github.com/samber/lo"

	"github.com/raykavin/ruleforge/core"
	"github.com/raykavin/ruleforge/ledger"
	"github.com/raykavin/ruleforge/simulator"
)

// Defaults for tick behaviour.
const (
	DefaultBatchSize = 50
	DefaultMaxHold   = 24 * time.Hour
)

// Option configures a Manager.
type Option func(*Manager)

// WithBatchSize sets how many positions are evaluated concurrently per
// sequential batch.
func WithBatchSize(n int) Option {
	return func(m *Manager) { m.batchSize = n }
}

// WithMaxHold sets how long a position may stay open before it is closed
// with reason timeout.
func WithMaxHold(d time.Duration) Option {
	return func(m *Manager) { m.maxHold = d }
}

// WithNotifier attaches a notifier for open/close events.
func WithNotifier(notifier core.Notifier) Option {
	return func(m *Manager) { m.notifier = notifier }
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// Manager holds the open pseudo-position set and advances it once per tick.
type Manager struct {
	feeder  core.Feeder
	store   core.PositionStore
	tracker *ledger.Tracker

	notifier core.Notifier
	log      core.Logger

	// tickMu is the single-flight guard: a tick that is still running when
	// the next one fires makes the new tick skip entirely.
	tickMu sync.Mutex

	mu       sync.Mutex
	open     map[string]*core.PseudoPosition
	trailing map[string]*simulator.TrailingStop

	batchSize int
	maxHold   time.Duration
	clock     func() time.Time
	seq       atomic.Int64
}

// NewManager creates a lifecycle manager.
func NewManager(feeder core.Feeder, store core.PositionStore, tracker *ledger.Tracker, log core.Logger, opts ...Option) *Manager {
	m := &Manager{
		feeder:    feeder,
		store:     store,
		tracker:   tracker,
		log:       log,
		open:      make(map[string]*core.PseudoPosition),
		trailing:  make(map[string]*simulator.TrailingStop),
		batchSize: DefaultBatchSize,
		maxHold:   DefaultMaxHold,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Rehydrate loads all open positions from the store into memory. Called
// once at startup before the tick loop begins.
func (m *Manager) Rehydrate(ctx context.Context) error {
	positions, err := m.store.OpenPositions(ctx)
	if err != nil {
		return fmt.Errorf("list open positions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range positions {
		m.open[p.ID] = p
		if p.Combination.TrailingEnabled {
			m.trailing[p.ID] = simulator.NewTrailingStop(
				p.Direction, p.EntryPrice, p.Combination.TrailStart/100, p.Combination.TrailStop/100)
		}
	}

	m.log.Infof("rehydrated %d open pseudo positions", len(positions))
	return nil
}

// OpenCount returns the number of open positions held in memory.
func (m *Manager) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

// Open creates a new pseudo position after the ledger grants capacity. The
// ledger increment and the position insert form one logical unit: a failed
// insert releases the reserved slot again.
func (m *Manager) Open(ctx context.Context, configSetID, symbol string, direction core.Direction,
	combination core.ParameterCombination, entryPrice, quantity, leverage float64) (*core.PseudoPosition, error) {

	position := &core.PseudoPosition{
		ID:           m.nextID(symbol),
		ConfigSetID:  configSetID,
		Symbol:       symbol,
		Direction:    direction,
		Combination:  combination,
		EntryPrice:   entryPrice,
		Quantity:     quantity,
		Leverage:     leverage,
		Status:       core.StatusOpen,
		CurrentPrice: entryPrice,
		OpenedAt:     m.clock(),
	}

	key := position.LimitKey()
	if err := m.tracker.OnOpen(ctx, key); err != nil {
		return nil, err
	}

	if err := m.store.InsertPosition(ctx, position); err != nil {
		if releaseErr := m.tracker.OnClose(ctx, key); releaseErr != nil {
			m.log.WithError(releaseErr).Errorf("release ledger slot %s after failed insert", key)
		}
		return nil, fmt.Errorf("insert position: %w", err)
	}

	m.mu.Lock()
	m.open[position.ID] = position
	if combination.TrailingEnabled {
		m.trailing[position.ID] = simulator.NewTrailingStop(
			direction, entryPrice, combination.TrailStart/100, combination.TrailStop/100)
	}
	m.mu.Unlock()

	if m.notifier != nil {
		m.notifier.OnPositionOpened(position)
	}

	return position, nil
}

// nextID builds a position id that is never reused, even across rapid
// open/close cycles on the same symbol.
func (m *Manager) nextID(symbol string) string {
	return fmt.Sprintf("%s-%d-%d", symbol, m.clock().UnixNano(), m.seq.Add(1))
}

// Tick advances every open position against fresh prices. A tick that fires
// while the previous one is still running is skipped entirely, never queued.
func (m *Manager) Tick(ctx context.Context) error {
	if !m.tickMu.TryLock() {
		m.log.Debug("previous tick still running, skipping")
		return nil
	}
	defer m.tickMu.Unlock()

	positions, symbols := m.snapshot()
	if len(positions) == 0 {
		return nil
	}

	prices, err := m.feeder.CurrentPrices(ctx, symbols)
	if err != nil {
		return fmt.Errorf("fetch current prices: %w", err)
	}

	// Batches run sequentially; positions inside a batch run concurrently.
	for _, batch := range lo.Chunk(positions, m.batchSize) {
		var wg sync.WaitGroup
		for _, position := range batch {
			price, ok := prices[position.Symbol]
			if !ok || price <= 0 {
				continue
			}

			wg.Add(1)
			go func(p *core.PseudoPosition, price float64) {
				defer wg.Done()
				if err := m.advance(ctx, p, price); err != nil {
					m.log.WithError(err).Errorf("advance position %s", p.ID)
				}
			}(position, price)
		}
		wg.Wait()
	}

	return nil
}

// snapshot copies the open set and its distinct symbols so tick evaluation
// never iterates shared state.
func (m *Manager) snapshot() ([]*core.PseudoPosition, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	positions := make([]*core.PseudoPosition, 0, len(m.open))
	symbols := set.NewLinkedHashSetString()
	for _, p := range m.open {
		positions = append(positions, p)
		symbols.Add(p.Symbol)
	}

	return positions, symbols.AsSlice()
}

// advance evaluates one position's exit rules against the fresh price and
// persists the outcome. Rules run in fixed order: take-profit, stop-loss,
// trailing stop (only once armed), then timeout. The first match wins.
func (m *Manager) advance(ctx context.Context, position *core.PseudoPosition, price float64) error {
	if reason, exitPrice, ok := m.exitCheck(position, price); ok {
		return m.close(ctx, position, exitPrice, reason)
	}

	position.CurrentPrice = price
	position.UnrealizedPnL = position.PnL(price) * position.Quantity * position.Leverage

	return m.store.UpdatePosition(ctx, position)
}

func (m *Manager) exitCheck(position *core.PseudoPosition, price float64) (core.ExitReason, float64, bool) {
	takeProfit, stopLoss := exitPrices(position)

	if crossed(position.Direction, price, takeProfit, true) {
		return core.ExitTakeProfit, takeProfit, true
	}
	if crossed(position.Direction, price, stopLoss, false) {
		return core.ExitStopLoss, stopLoss, true
	}

	m.mu.Lock()
	trailing := m.trailing[position.ID]
	m.mu.Unlock()
	if trailing != nil && trailing.Update(price) {
		return core.ExitTrailingStop, price, true
	}

	if m.maxHold > 0 && m.clock().Sub(position.OpenedAt) >= m.maxHold {
		return core.ExitTimeout, price, true
	}

	return "", 0, false
}

// close transitions the position to closed, mirrors the close to storage,
// releases the ledger slot and drops the position from the open set.
func (m *Manager) close(ctx context.Context, position *core.PseudoPosition, exitPrice float64, reason core.ExitReason) error {
	now := m.clock()

	position.Status = core.StatusClosed
	position.CurrentPrice = exitPrice
	position.ExitPrice = exitPrice
	position.ExitReason = reason
	position.UnrealizedPnL = position.PnL(exitPrice) * position.Quantity * position.Leverage
	position.ClosedAt = &now

	if err := m.store.ClosePosition(ctx, position); err != nil {
		return fmt.Errorf("persist close: %w", err)
	}

	if err := m.tracker.OnClose(ctx, position.LimitKey()); err != nil {
		return fmt.Errorf("release ledger slot: %w", err)
	}

	m.mu.Lock()
	delete(m.open, position.ID)
	delete(m.trailing, position.ID)
	m.mu.Unlock()

	m.log.WithField("position", position.ID).
		WithField("reason", string(reason)).
		Infof("closed pseudo position %s at %.8f", position.Symbol, exitPrice)

	if m.notifier != nil {
		m.notifier.OnPositionClosed(position)
	}

	return nil
}

func exitPrices(position *core.PseudoPosition) (takeProfit, stopLoss float64) {
	tp := position.Combination.TakeProfitFactor / 100
	sl := position.Combination.StopLossRatio / 100

	if position.Direction == core.DirectionShort {
		return position.EntryPrice * (1 - tp), position.EntryPrice * (1 + sl)
	}
	return position.EntryPrice * (1 + tp), position.EntryPrice * (1 - sl)
}

// crossed reports whether price has crossed the target in the profitable
// (takeProfit=true) or losing direction for the position side.
func crossed(direction core.Direction, price, target float64, takeProfit bool) bool {
	if direction == core.DirectionShort {
		if takeProfit {
			return price <= target
		}
		return price >= target
	}
	if takeProfit {
		return price >= target
	}
	return price <= target
}
