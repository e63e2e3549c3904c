package slips

import "errors"

var (
	// ErrEmptySlipURL is returned when attaching a slip without a blob ref.
	ErrEmptySlipURL = errors.New("slips: empty slip url")
	// ErrEmptyPaymentID is returned when a payment id is empty.
	ErrEmptyPaymentID = errors.New("slips: empty payment id")
	// ErrPaymentNotFound is returned when the referenced payment does not exist.
	ErrPaymentNotFound = errors.New("slips: payment not found")
	// ErrNilSlip is returned when persisting a nil slip.
	ErrNilSlip = errors.New("slips: nil slip")
)
