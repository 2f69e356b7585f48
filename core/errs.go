package core

import "errors"

var (
	// ErrInsufficientData indicates there is too little price history to
	// simulate or compute an indicator. Callers degrade to a neutral result.
	ErrInsufficientData = errors.New("insufficient price data")

	// ErrNotFound indicates a storage lookup matched no record.
	ErrNotFound = errors.New("record not found")

	// ErrAtCapacity indicates a ledger key already holds its maximum number
	// of concurrent positions.
	ErrAtCapacity = errors.New("position limit reached")

	// ErrCooldownActive indicates a ledger key is inside its cooldown window.
	ErrCooldownActive = errors.New("cooldown active")

	// ErrEngineStopped indicates an operation was requested after Stop.
	ErrEngineStopped = errors.New("engine stopped")
)
