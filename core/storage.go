package core

import "context"

// ResultStore persists coordination results keyed by
// (configSetID, symbol, combinationHash).
type ResultStore interface {
	// UpsertResult creates or replaces the result identified by its natural key.
	UpsertResult(ctx context.Context, result *CoordinationResult) error

	// Results returns every stored result for the given configuration set and
	// symbol. Symbol may be empty to list all symbols of the set.
	Results(ctx context.Context, configSetID, symbol string) ([]*CoordinationResult, error)
}

// LimitStore persists position-limit ledger entries.
type LimitStore interface {
	// LoadLimit returns the limit for the key, or ErrNotFound when no entry
	// exists yet.
	LoadLimit(ctx context.Context, key LimitKey) (*PositionLimit, error)

	// SaveLimit creates or replaces a ledger entry.
	SaveLimit(ctx context.Context, limit *PositionLimit) error
}

// PositionStore persists pseudo positions. It is a mirror of the in-memory
// state owned by the lifecycle manager, written after each state transition.
type PositionStore interface {
	InsertPosition(ctx context.Context, position *PseudoPosition) error
	UpdatePosition(ctx context.Context, position *PseudoPosition) error
	ClosePosition(ctx context.Context, position *PseudoPosition) error

	// OpenPositions lists all positions with status open, used at startup to
	// rehydrate the in-memory open set.
	OpenPositions(ctx context.Context) ([]*PseudoPosition, error)
}

// Storage bundles the three stores the engine needs.
type Storage interface {
	ResultStore
	LimitStore
	PositionStore
}
