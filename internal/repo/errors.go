package repo

import (
	"errors"
	"fmt"
)

// Errors returned by the repositories.
var (
	ErrComboNotFound = errors.New("combo not found")
	ErrComboInactive = errors.New("combo is not available")
)

// ValidationError reports malformed or missing input on a mutating call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientStockError is returned when an order asks for more units than
// the combo has left. Remaining carries the exact quota still available so
// the message can surface it to the user.
type InsufficientStockError struct {
	Remaining int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d units left in stock", e.Remaining)
}
