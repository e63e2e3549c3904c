package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentSettled is raised when a payment reaches the paid state.
type PaymentSettled struct {
	EventID     string          `json:"event_id"`
	PaymentID   string          `json:"payment_id"`
	StayID      string          `json:"stay_id"`
	AdminID     string          `json:"admin_id"`
	RoomPart    decimal.Decimal `json:"room_part"`
	OtherPart   decimal.Decimal `json:"other_part"`
	OtherDetail string          `json:"other_detail,omitempty"`
	Total       decimal.Decimal `json:"total"`
	IssueDate   time.Time       `json:"issue_date"`
	OccurredAt  time.Time       `json:"occurred_at"`
}
