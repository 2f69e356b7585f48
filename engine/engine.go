// Package engine orchestrates the combination pipeline on two cadences: an
// hours-scale re-evaluation cycle that re-scores combinations and opens new
// pseudo positions, and a seconds-scale tick that advances open positions.
// Both activities are single-flight; a fire while the previous run is still
// in progress is skipped.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/raykavin/ruleforge/core"
	"github.com/raykavin/ruleforge/ledger"
	"github.com/raykavin/ruleforge/lifecycle"
	"github.com/raykavin/ruleforge/scoring"
	"github.com/raykavin/ruleforge/simulator"
	"github.com/raykavin/ruleforge/sweep"
)

// Settings bound the engine's scheduling and simulation load.
type Settings struct {
	CycleInterval   time.Duration // re-evaluation cadence
	TickInterval    time.Duration // live tick cadence
	SimBatchSize    int           // combinations simulated concurrently per batch
	BatchDelay      time.Duration // pause between simulation batches
	MaxCombinations int           // hard cap on combinations per (set, symbol)
}

// DefaultSettings returns the scheduling defaults.
func DefaultSettings() Settings {
	return Settings{
		CycleInterval:   4 * time.Hour,
		TickInterval:    time.Second,
		SimBatchSize:    10,
		BatchDelay:      200 * time.Millisecond,
		MaxCombinations: 300,
	}
}

// ConfigSet is a named bundle of symbols, an indicator family and sweep
// ranges that the generator expands.
type ConfigSet struct {
	ID              string             `json:"id" mapstructure:"id"`
	Symbols         []string           `json:"symbols" mapstructure:"symbols"`
	IndicatorType   string             `json:"indicator_type" mapstructure:"indicator_type"`
	BaseParams      map[string]float64 `json:"base_params" mapstructure:"base_params"`
	Ranges          sweep.Ranges       `json:"ranges" mapstructure:"ranges"`
	HistoryDays     int                `json:"history_days" mapstructure:"history_days"`
	MaxCombinations int                `json:"max_combinations" mapstructure:"max_combinations"`
	MaxPositions    int                `json:"max_positions" mapstructure:"max_positions"`
	Quantity        float64            `json:"quantity" mapstructure:"quantity"`
	Leverage        float64            `json:"leverage" mapstructure:"leverage"`
}

// base returns the combination the sweep expands around.
func (c ConfigSet) base() core.ParameterCombination {
	return core.ParameterCombination{
		IndicatorType:   c.IndicatorType,
		IndicatorParams: c.BaseParams,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier attaches a notifier for engine and position events.
func WithNotifier(notifier core.Notifier) Option {
	return func(e *Engine) { e.notifier = notifier }
}

// WithThresholds overrides the validation thresholds.
func WithThresholds(t scoring.Thresholds) Option {
	return func(e *Engine) { e.scorer = scoring.NewScorer(t) }
}

// WithLedgerOptions forwards options to the position-limit tracker.
func WithLedgerOptions(opts ...ledger.Option) Option {
	return func(e *Engine) { e.ledgerOpts = opts }
}

// WithLifecycleOptions forwards options to the lifecycle manager.
func WithLifecycleOptions(opts ...lifecycle.Option) Option {
	return func(e *Engine) { e.lifecycleOpts = opts }
}

// Engine owns the full pipeline. It is constructed by the process entry
// point and carries no package-level state.
type Engine struct {
	feeder   core.Feeder
	storage  core.Storage
	notifier core.Notifier
	log      core.Logger

	generator *sweep.Generator
	sim       *simulator.Simulator
	scorer    *scoring.Scorer
	tracker   *ledger.Tracker
	manager   *lifecycle.Manager

	settings   Settings
	configSets []ConfigSet

	ledgerOpts    []ledger.Option
	lifecycleOpts []lifecycle.Option

	// cycleMu is the single-slot scheduler lock for the re-evaluation cycle;
	// the lifecycle manager guards its own tick the same way.
	cycleMu sync.Mutex

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates an engine with its pipeline components wired to the given
// feeder and storage.
func New(feeder core.Feeder, storage core.Storage, log core.Logger, settings Settings, configSets []ConfigSet, opts ...Option) *Engine {
	e := &Engine{
		feeder:     feeder,
		storage:    storage,
		log:        log,
		settings:   settings,
		configSets: configSets,
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.generator = sweep.NewGenerator(log)
	e.sim = simulator.New(log)
	if e.scorer == nil {
		e.scorer = scoring.NewScorer(scoring.DefaultThresholds())
	}
	e.tracker = ledger.NewTracker(storage, log, e.ledgerOpts...)

	lifecycleOpts := e.lifecycleOpts
	if e.notifier != nil {
		lifecycleOpts = append(lifecycleOpts, lifecycle.WithNotifier(e.notifier))
	}
	e.manager = lifecycle.NewManager(feeder, storage, e.tracker, log, lifecycleOpts...)

	return e
}

// Manager exposes the lifecycle manager, mainly for status reporting.
func (e *Engine) Manager() *lifecycle.Manager {
	return e.manager
}

// Start rehydrates open positions and launches the two scheduled loops. The
// first re-evaluation cycle runs immediately.
func (e *Engine) Start(ctx context.Context) error {
	select {
	case <-e.stop:
		return core.ErrEngineStopped
	default:
	}

	if err := e.manager.Rehydrate(ctx); err != nil {
		return err
	}

	e.wg.Add(2)
	go e.cycleLoop(ctx)
	go e.tickLoop(ctx)

	e.log.Infof("engine started: %d configuration sets, cycle %s, tick %s",
		len(e.configSets), e.settings.CycleInterval, e.settings.TickInterval)
	return nil
}

// Stop prevents new ticks and cycles from starting, waits for in-flight
// runs to finish so ledger counters stay consistent, then releases the
// timers.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
	e.wg.Wait()
	e.log.Info("engine stopped")
}

func (e *Engine) cycleLoop(ctx context.Context) {
	defer e.wg.Done()

	e.RunCycle(ctx)

	ticker := time.NewTicker(e.settings.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.RunCycle(ctx)
		case <-e.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) tickLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.settings.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := e.manager.Tick(ctx); err != nil {
				e.log.WithError(err).Error("tick failed")
			}
		case <-e.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
