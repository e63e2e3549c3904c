package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// IncomeType classifies a ledger income row.
type IncomeType string

const (
	IncomeTypeRoom  IncomeType = "room"
	IncomeTypeOther IncomeType = "other"
)

// ParseIncomeType validates an income type string.
func ParseIncomeType(value string) (IncomeType, bool) {
	switch IncomeType(value) {
	case IncomeTypeRoom, IncomeTypeOther:
		return IncomeType(value), true
	default:
		return "", false
	}
}

// Income is one ledger income row. Rows derived from settled payments
// carry the source PaymentID; manual rows leave it empty.
type Income struct {
	ID          string
	Type        IncomeType
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	PaymentID   string
}

// Derived reports whether the row was produced from a settled payment.
func (i Income) Derived() bool {
	return i.PaymentID != ""
}
