package stays

import "errors"

var (
	// ErrEmptyStayID is returned when a stay id is empty.
	ErrEmptyStayID = errors.New("stays: empty stay id")
	// ErrStayNotFound is returned when a stay does not exist.
	ErrStayNotFound = errors.New("stays: not found")
)
