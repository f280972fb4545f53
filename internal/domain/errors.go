package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrInvalidOrder    = errors.New("invalid order")
	ErrNoPosition      = errors.New("no position")
	ErrLastAccount     = errors.New("at least one account must remain")
)

// InsufficientFundsError reports a buy whose total cost (commission included)
// exceeds available cash. No ledger state is mutated when it is returned.
type InsufficientFundsError struct {
	Required   float64
	Commission float64
	Available  float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %.2f (incl. commission %.2f), available %.2f",
		e.Required, e.Commission, e.Available)
}

// InsufficientPositionError reports an interactive sell exceeding the held
// quantity. The webhook path clamps instead of returning this.
type InsufficientPositionError struct {
	Symbol    string
	Requested int64
	Held      int64
}

func (e *InsufficientPositionError) Error() string {
	return fmt.Sprintf("insufficient position: %s requested %d, held %d",
		e.Symbol, e.Requested, e.Held)
}
