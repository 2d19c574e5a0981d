package core

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer. Callers classify failures with
// errors.Is against these sentinels; layers add context with fmt.Errorf
// and %w so the class survives wrapping.
var (
	// ErrValidation marks malformed or invariant-violating input:
	// non-positive amounts, self-transfers, overdraws, credit-limit
	// breaches. Not retryable.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a reference to an absent account, debt,
	// transaction or recurring payment id.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a concurrent-mutation serialization failure
	// that survived the store's bounded retries. Safe to retry.
	ErrConflict = errors.New("conflict")

	// ErrStoreUnavailable marks an unreachable or timed-out backing
	// store. Safe to retry with backoff; never data corruption.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Frequent validation failures, pre-wrapped so errors.Is matches both
// the specific sentinel and ErrValidation.
var (
	ErrInvalidAmount    = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrEmptyName        = fmt.Errorf("%w: empty name", ErrValidation)
	ErrEmptyDescription = fmt.Errorf("%w: empty description", ErrValidation)
)
