package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthBucket is one month in the income-versus-expense chart.
type MonthBucket struct {
	Month   time.Month
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// BuildChart distributes monthly sums into exactly twelve buckets.
// Months without activity appear with zero values.
func BuildChart(incomes, expenses map[time.Month]decimal.Decimal) [12]MonthBucket {
	var chart [12]MonthBucket
	for i := range chart {
		month := time.Month(i + 1)
		chart[i] = MonthBucket{
			Month:   month,
			Income:  incomes[month],
			Expense: expenses[month],
		}
	}
	return chart
}
