package core

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
)

// ParameterCombination is one concrete assignment of indicator parameters
// plus take-profit/stop-loss and trailing settings. Combinations are
// immutable once generated and are identified by Hash().
type ParameterCombination struct {
	IndicatorType    string             `json:"indicator_type"`
	IndicatorParams  map[string]float64 `json:"indicator_params" gorm:"serializer:json"`
	TakeProfitFactor float64            `json:"take_profit_factor"`
	StopLossRatio    float64            `json:"stop_loss_ratio"`
	TrailingEnabled  bool               `json:"trailing_enabled"`
	TrailStart       float64            `json:"trail_start,omitempty"`
	TrailStop        float64            `json:"trail_stop,omitempty"`
}

// Hash returns a stable identifier derived from every field of the
// combination. It is used as the natural key for coordination results and
// for position-limit bucketing, so readers and writers always agree on the
// key format.
func (c ParameterCombination) Hash() string {
	h := fnv.New64a()

	fmt.Fprintf(h, "type=%s;", c.IndicatorType)

	keys := make([]string, 0, len(c.IndicatorParams))
	for k := range c.IndicatorParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%.8f;", k, c.IndicatorParams[k])
	}

	fmt.Fprintf(h, "tp=%.8f;sl=%.8f;trail=%t;", c.TakeProfitFactor, c.StopLossRatio, c.TrailingEnabled)
	if c.TrailingEnabled {
		fmt.Fprintf(h, "ts=%.8f;tx=%.8f;", c.TrailStart, c.TrailStop)
	}

	return strconv.FormatUint(h.Sum64(), 16)
}

// Clone returns a deep copy so callers can derive new combinations without
// sharing the params map.
func (c ParameterCombination) Clone() ParameterCombination {
	params := make(map[string]float64, len(c.IndicatorParams))
	for k, v := range c.IndicatorParams {
		params[k] = v
	}
	clone := c
	clone.IndicatorParams = params
	return clone
}
