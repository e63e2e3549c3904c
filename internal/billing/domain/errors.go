package billing

import "errors"

var (
	// ErrInvalidQuantity is returned when a metered or ad-hoc value is negative.
	ErrInvalidQuantity = errors.New("billing: invalid quantity")
	// ErrStayNotFound is returned when the referenced stay does not exist.
	ErrStayNotFound = errors.New("billing: stay not found")
	// ErrPaymentNotFound is returned when a payment does not exist.
	ErrPaymentNotFound = errors.New("billing: payment not found")
	// ErrIllegalTransition is returned for a status move outside the table.
	ErrIllegalTransition = errors.New("billing: illegal status transition")
	// ErrDuplicatePeriod is returned when a stay already has a payment
	// for the billing period.
	ErrDuplicatePeriod = errors.New("billing: duplicate payment for period")
	// ErrPaymentSettled is returned when a paid payment would be edited
	// or deleted.
	ErrPaymentSettled = errors.New("billing: payment already settled")
	// ErrVersionConflict is returned when a concurrent update won the race.
	ErrVersionConflict = errors.New("billing: version conflict")
	// ErrNilPayment is returned when persisting a nil payment.
	ErrNilPayment = errors.New("billing: nil payment")
	// ErrEmptyPaymentID is returned when a payment id is empty.
	ErrEmptyPaymentID = errors.New("billing: empty payment id")
)
