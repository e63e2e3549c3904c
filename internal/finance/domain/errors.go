package finance

import "errors"

var (
	// ErrInvalidAmount is returned when a ledger amount is not positive.
	ErrInvalidAmount = errors.New("finance: invalid amount")
	// ErrInvalidType is returned for an unknown income or expense type.
	ErrInvalidType = errors.New("finance: invalid type")
	// ErrIncomeNotFound is returned when an income row does not exist.
	ErrIncomeNotFound = errors.New("finance: income not found")
	// ErrExpenseNotFound is returned when an expense row does not exist.
	ErrExpenseNotFound = errors.New("finance: expense not found")
	// ErrEmptyID is returned when a ledger row id is empty.
	ErrEmptyID = errors.New("finance: empty id")
)
