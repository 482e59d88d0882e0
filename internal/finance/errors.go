package finance

import (
	"errors"
	"fmt"
)

// BalanceCalculationError reports a failed balance aggregation together with
// the account it was computed for, so report callers can tell which account
// broke the statement.
type BalanceCalculationError struct {
	AccountRef string
	Err        error
}

func (e *BalanceCalculationError) Error() string {
	return fmt.Sprintf("finance: balance calculation for account %s: %v", e.AccountRef, e.Err)
}

func (e *BalanceCalculationError) Unwrap() error {
	return e.Err
}

var (
	// ErrInvalidPeriod indicates a malformed or inverted reporting period.
	ErrInvalidPeriod = errors.New("finance: invalid reporting period")
	// ErrUnknownMethod indicates an unsupported cash flow method.
	ErrUnknownMethod = errors.New("finance: unknown cash flow method")
)
