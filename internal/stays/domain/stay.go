package stays

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the occupancy state of a stay.
type Status string

const (
	StatusCheckedIn  Status = "checked-in"
	StatusActive     Status = "active"
	StatusCheckedOut Status = "checked-out"
)

// ParseStatus validates a status string.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusCheckedIn, StatusActive, StatusCheckedOut:
		return Status(value), true
	default:
		return "", false
	}
}

// StatusFromLegacyCode converts the numeric codes used by older records.
func StatusFromLegacyCode(code int) (Status, bool) {
	switch code {
	case 1:
		return StatusCheckedIn, true
	case 2:
		return StatusActive, true
	case 3:
		return StatusCheckedOut, true
	default:
		return "", false
	}
}

// LegacyCode returns the numeric code for older consumers.
func (s Status) LegacyCode() int {
	switch s {
	case StatusCheckedIn:
		return 1
	case StatusActive:
		return 2
	case StatusCheckedOut:
		return 3
	default:
		return 0
	}
}

// Stay is a tenancy interval linking an occupant to a room. The room
// price is captured when the stay begins and stays fixed for billing.
type Stay struct {
	ID        string
	UserID    string
	UserName  string
	RoomID    string
	RoomNum   string
	RoomPrice decimal.Decimal
	StayDate  time.Time
	DateOut   *time.Time
	Status    Status
}

// Occupied reports whether the stay is currently billable.
func (s Stay) Occupied() bool {
	return s.Status == StatusCheckedIn || s.Status == StatusActive
}
