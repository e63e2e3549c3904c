package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is one ledger expense row, always admin-entered.
type Expense struct {
	ID          string
	Type        string
	Amount      decimal.Decimal
	Date        time.Time
	AdminID     string
	Description string
}
