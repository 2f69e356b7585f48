package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/raykavin/ruleforge/core"
	"github.com/raykavin/ruleforge/indicator"
)

// RunCycle executes one re-evaluation pass over every (configuration set,
// symbol) pair. A cycle that fires while the previous one is still running
// is skipped. Per-symbol failures are isolated so one bad symbol cannot
// abort the whole cycle.
func (e *Engine) RunCycle(ctx context.Context) {
	if !e.cycleMu.TryLock() {
		e.log.Debug("previous cycle still running, skipping")
		return
	}
	defer e.cycleMu.Unlock()

	started := time.Now()
	e.log.Info("re-evaluation cycle started")

	for _, configSet := range e.configSets {
		for _, symbol := range configSet.Symbols {
			select {
			case <-e.stop:
				return
			case <-ctx.Done():
				return
			default:
			}

			if err := e.evaluateSymbol(ctx, configSet, symbol); err != nil {
				e.log.WithError(err).Errorf("cycle failed for %s/%s", configSet.ID, symbol)
				if e.notifier != nil {
					e.notifier.OnError(fmt.Errorf("cycle %s/%s: %w", configSet.ID, symbol, err))
				}
			}
		}
	}

	elapsed := time.Since(started).Round(time.Millisecond)
	e.log.Infof("re-evaluation cycle finished in %s", elapsed)
	if e.notifier != nil {
		e.notifier.Notify(fmt.Sprintf("Re-evaluation cycle finished in %s, %d pseudo positions open",
			elapsed, e.manager.OpenCount()))
	}
}

// evaluateSymbol runs the generator, simulates every combination in bounded
// parallel batches, upserts the scored results and opens pseudo positions
// for valid combinations with a live signal and ledger capacity.
func (e *Engine) evaluateSymbol(ctx context.Context, configSet ConfigSet, symbol string) error {
	candles, err := e.feeder.HistoricalCandles(ctx, symbol, configSet.HistoryDays)
	if err != nil {
		return fmt.Errorf("historical prices: %w", err)
	}

	combinations := e.generator.Generate(configSet.base(), configSet.Ranges)

	limit := configSet.MaxCombinations
	if limit <= 0 {
		limit = e.settings.MaxCombinations
	}
	if len(combinations) > limit {
		e.log.Warnf("%s/%s: capping combinations from %d to %d",
			configSet.ID, symbol, len(combinations), limit)
		combinations = combinations[:limit]
	}

	results := e.simulateAll(ctx, configSet, symbol, candles, combinations)

	// Persist failures are logged per record; the record is retried on the
	// next cycle and never blocks the rest of the batch.
	for _, result := range results {
		if err := e.storage.UpsertResult(ctx, result); err != nil {
			e.log.WithError(err).Errorf("upsert result %s/%s/%s",
				result.ConfigSetID, result.Symbol, result.CombinationHash)
		}
	}

	e.openPositions(ctx, configSet, symbol, candles, results)
	return nil
}

// simulateAll scores every combination in sequential batches; combinations
// within a batch run concurrently. A small inter-batch delay keeps pressure
// off any rate-limited downstream.
func (e *Engine) simulateAll(ctx context.Context, configSet ConfigSet, symbol string,
	candles []core.Candle, combinations []core.ParameterCombination) []*core.CoordinationResult {

	var results []*core.CoordinationResult

	batches := lo.Chunk(combinations, e.settings.SimBatchSize)
	for i, batch := range batches {
		type scored struct {
			result *core.CoordinationResult
		}
		out := make(chan scored, len(batch))

		for _, combination := range batch {
			go func(combination core.ParameterCombination) {
				result, err := e.simulateOne(configSet, symbol, candles, combination)
				if err != nil {
					if !errors.Is(err, core.ErrInsufficientData) {
						e.log.WithError(err).Errorf("simulate %s/%s", symbol, combination.Hash())
					}
					out <- scored{}
					return
				}
				out <- scored{result: result}
			}(combination)
		}

		for range batch {
			if s := <-out; s.result != nil {
				results = append(results, s.result)
			}
		}

		if e.settings.BatchDelay > 0 && i < len(batches)-1 {
			select {
			case <-time.After(e.settings.BatchDelay):
			case <-ctx.Done():
				return results
			}
		}
	}

	return results
}

func (e *Engine) simulateOne(configSet ConfigSet, symbol string,
	candles []core.Candle, combination core.ParameterCombination) (*core.CoordinationResult, error) {

	trades, err := e.sim.Run(combination, candles, signalFunc(combination))
	if err != nil {
		return nil, err
	}

	result := &core.CoordinationResult{
		ConfigSetID:     configSet.ID,
		Symbol:          symbol,
		CombinationHash: combination.Hash(),
		Combination:     combination,
	}
	e.scorer.Apply(result, trades, time.Now())

	return result, nil
}

// openPositions initializes ledgers for valid combinations and opens a
// pseudo position where a live signal exists and the ledger grants capacity.
func (e *Engine) openPositions(ctx context.Context, configSet ConfigSet, symbol string,
	candles []core.Candle, results []*core.CoordinationResult) {

	if len(candles) == 0 {
		return
	}
	currentPrice := candles[len(candles)-1].Close

	for _, result := range results {
		if !result.IsValid {
			continue
		}

		signal := signalFunc(result.Combination)(candles)
		if signal.Direction == core.DirectionNeutral || signal.Strength < e.sim.MinStrength() {
			continue
		}

		key := core.LimitKey{
			ConfigSetID:     result.ConfigSetID,
			Symbol:          symbol,
			CombinationHash: result.CombinationHash,
			Direction:       signal.Direction,
		}
		if err := e.tracker.Ensure(ctx, key, configSet.MaxPositions); err != nil {
			e.log.WithError(err).Errorf("ensure ledger %s", key)
			continue
		}

		granted, err := e.tracker.CanOpen(ctx, key)
		if err != nil {
			e.log.WithError(err).Errorf("check ledger %s", key)
			continue
		}
		if !granted {
			continue
		}

		_, err = e.manager.Open(ctx, configSet.ID, symbol, signal.Direction,
			result.Combination, currentPrice, configSet.Quantity, configSet.Leverage)
		if err != nil && !errors.Is(err, core.ErrAtCapacity) && !errors.Is(err, core.ErrCooldownActive) {
			e.log.WithError(err).Errorf("open position %s/%s", symbol, result.CombinationHash)
		}
	}
}

// signalFunc builds the pure signal function for one combination.
func signalFunc(combination core.ParameterCombination) core.SignalFunc {
	cfg := indicator.Config{
		Type:   combination.IndicatorType,
		Params: combination.IndicatorParams,
	}
	return func(candles []core.Candle) core.Signal {
		return indicator.GenerateSignal(cfg, candles)
	}
}
