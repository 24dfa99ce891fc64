package ledger

import "errors"

// Validation failures are detected before any mutation, so every error here
// implies the transaction was a no-op.
var (
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrAccountNotFound      = errors.New("account not found")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient stock quantity")
)
