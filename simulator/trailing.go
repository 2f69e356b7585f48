package simulator

import "github.com/raykavin/ruleforge/core"

// TrailingStop implements a trailing stop that only arms once unrealized
// profit crosses a start threshold, then follows the best price seen and
// triggers when price retraces by a fixed fraction from that best.
type TrailingStop struct {
	direction  core.Direction
	entryPrice float64
	startAt    float64 // profit fraction that arms the stop
	retrace    float64 // retrace fraction from the best price that triggers
	bestPrice  float64
	armed      bool
}

// NewTrailingStop creates a trailing stop for a position entered at
// entryPrice. startAt and retrace are fractions (0.03 = 3%).
func NewTrailingStop(direction core.Direction, entryPrice, startAt, retrace float64) *TrailingStop {
	return &TrailingStop{
		direction:  direction,
		entryPrice: entryPrice,
		startAt:    startAt,
		retrace:    retrace,
	}
}

// Armed returns whether the stop has been activated by reaching the start
// threshold.
func (t *TrailingStop) Armed() bool {
	return t.armed
}

// Update advances the stop with a new price and reports whether it
// triggered. Before arming it only watches for the start threshold.
func (t *TrailingStop) Update(price float64) bool {
	if t.entryPrice <= 0 || price <= 0 {
		return false
	}

	profit := (price - t.entryPrice) / t.entryPrice
	if t.direction == core.DirectionShort {
		profit = (t.entryPrice - price) / t.entryPrice
	}

	if !t.armed {
		if profit >= t.startAt {
			t.armed = true
			t.bestPrice = price
		}
		return false
	}

	if t.direction == core.DirectionShort {
		if price < t.bestPrice {
			t.bestPrice = price
		}
		return (price-t.bestPrice)/t.bestPrice >= t.retrace
	}

	if price > t.bestPrice {
		t.bestPrice = price
	}
	return (t.bestPrice-price)/t.bestPrice >= t.retrace
}
