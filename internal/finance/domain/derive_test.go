package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func settledFixture() SettledBill {
	return SettledBill{
		PaymentID:   "pay-1",
		RoomPart:    d("3960"),
		OtherPart:   d("150"),
		OtherDetail: "key replacement",
		IssueDate:   time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestDeriveIncomeSplitsRoomAndOther(t *testing.T) {
	rows := DeriveIncome(settledFixture())
	require.Len(t, rows, 2)

	assert.Equal(t, IncomeTypeRoom, rows[0].Type)
	assert.True(t, rows[0].Amount.Equal(d("3960")))
	assert.Equal(t, "pay-1", rows[0].PaymentID)

	assert.Equal(t, IncomeTypeOther, rows[1].Type)
	assert.True(t, rows[1].Amount.Equal(d("150")))
	assert.Equal(t, "key replacement", rows[1].Description)
}

func TestDeriveIncomeIsDeterministic(t *testing.T) {
	first := DeriveIncome(settledFixture())
	second := DeriveIncome(settledFixture())
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestDeriveIncomeSkipsEmptyParts(t *testing.T) {
	bill := settledFixture()
	bill.OtherPart = decimal.Zero
	rows := DeriveIncome(bill)
	require.Len(t, rows, 1)
	assert.Equal(t, IncomeTypeRoom, rows[0].Type)

	bill = settledFixture()
	bill.OtherDetail = ""
	rows = DeriveIncome(bill)
	require.Len(t, rows, 1)

	bill = settledFixture()
	bill.RoomPart = decimal.Zero
	rows = DeriveIncome(bill)
	require.Len(t, rows, 1)
	assert.Equal(t, IncomeTypeOther, rows[0].Type)

	assert.Empty(t, DeriveIncome(SettledBill{}))
}

func TestDerivedIncomeIDDistinguishesComponents(t *testing.T) {
	roomID := DerivedIncomeID("pay-1", IncomeTypeRoom)
	otherID := DerivedIncomeID("pay-1", IncomeTypeOther)
	assert.NotEqual(t, roomID, otherID)
	assert.NotEqual(t, roomID, DerivedIncomeID("pay-2", IncomeTypeRoom))
}

func TestBuildChartAlwaysTwelveBuckets(t *testing.T) {
	chart := BuildChart(nil, nil)
	require.Len(t, chart, 12)
	for i, bucket := range chart {
		assert.Equal(t, time.Month(i+1), bucket.Month)
		assert.True(t, bucket.Income.IsZero())
		assert.True(t, bucket.Expense.IsZero())
	}
}

func TestBuildChartPlacesSums(t *testing.T) {
	incomes := map[time.Month]decimal.Decimal{time.March: d("3960")}
	expenses := map[time.Month]decimal.Decimal{time.July: d("500")}

	chart := BuildChart(incomes, expenses)
	assert.True(t, chart[2].Income.Equal(d("3960")))
	assert.True(t, chart[6].Expense.Equal(d("500")))
	assert.True(t, chart[0].Income.IsZero())
}
