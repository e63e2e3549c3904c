package finance

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/shopspring/decimal"
)

// SettledBill carries the facts of a settled payment the aggregator
// derives income from.
type SettledBill struct {
	PaymentID   string
	RoomPart    decimal.Decimal
	OtherPart   decimal.Decimal
	OtherDetail string
	IssueDate   time.Time
}

// DeriveIncome computes the income rows for a settled bill: a room row
// for rent plus utilities and, when an ad-hoc charge with a detail is
// present, an other row. Row ids are a pure function of the payment,
// so replays produce the same rows.
func DeriveIncome(bill SettledBill) []Income {
	var rows []Income
	if bill.PaymentID == "" {
		return rows
	}
	date := bill.IssueDate.UTC()
	if bill.RoomPart.Sign() > 0 {
		rows = append(rows, Income{
			ID:          DerivedIncomeID(bill.PaymentID, IncomeTypeRoom),
			Type:        IncomeTypeRoom,
			Amount:      bill.RoomPart,
			Date:        date,
			Description: "room and utilities",
			PaymentID:   bill.PaymentID,
		})
	}
	if bill.OtherPart.Sign() > 0 && bill.OtherDetail != "" {
		rows = append(rows, Income{
			ID:          DerivedIncomeID(bill.PaymentID, IncomeTypeOther),
			Type:        IncomeTypeOther,
			Amount:      bill.OtherPart,
			Date:        date,
			Description: bill.OtherDetail,
			PaymentID:   bill.PaymentID,
		})
	}
	return rows
}

// DerivedIncomeID builds the deterministic id for a derived income row.
func DerivedIncomeID(paymentID string, incomeType IncomeType) string {
	sum := sha256.Sum256([]byte(paymentID + "|" + string(incomeType)))
	return "inc-" + hex.EncodeToString(sum[:8])
}
