package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dorm-billing/internal/auth"
	billingevents "dorm-billing/internal/billing/application/events"
	"dorm-billing/internal/eventing"
	eventmemory "dorm-billing/internal/eventing/infrastructure/memory"
	finance "dorm-billing/internal/finance/domain"
	"dorm-billing/internal/finance/infrastructure/memory"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func newFinanceFixture(t *testing.T) (*FinanceService, *memory.IncomeRepository, *memory.ExpenseRepository) {
	t.Helper()
	incomes := memory.NewIncomeRepository()
	expenses := memory.NewExpenseRepository()
	service, err := NewFinanceService(incomes, expenses,
		WithClock(func() time.Time {
			return time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
		}))
	require.NoError(t, err)
	return service, incomes, expenses
}

func TestRecordIncomeValidation(t *testing.T) {
	service, _, _ := newFinanceFixture(t)
	ctx := context.Background()

	_, err := service.RecordIncome(ctx, "salary", d("100"), time.Time{}, "")
	assert.ErrorIs(t, err, finance.ErrInvalidType)

	_, err = service.RecordIncome(ctx, "room", d("0"), time.Time{}, "")
	assert.ErrorIs(t, err, finance.ErrInvalidAmount)

	_, err = service.RecordIncome(ctx, "other", d("-5"), time.Time{}, "")
	assert.ErrorIs(t, err, finance.ErrInvalidAmount)

	income, err := service.RecordIncome(ctx, "other", d("250"), time.Time{}, "vending machines")
	require.NoError(t, err)
	assert.False(t, income.Derived())
	assert.Equal(t, 2026, income.Date.Year())
}

func TestRecordExpenseTakesActorFromContext(t *testing.T) {
	service, _, _ := newFinanceFixture(t)
	ctx := auth.WithActor(context.Background(), "admin-3", auth.RoleStaff, "Lin")

	expense, err := service.RecordExpense(ctx, "maintenance", d("800"), time.Time{}, "boiler repair")
	require.NoError(t, err)
	assert.Equal(t, "admin-3", expense.AdminID)

	_, err = service.RecordExpense(ctx, "", d("10"), time.Time{}, "")
	assert.ErrorIs(t, err, finance.ErrInvalidType)
}

func TestMonthlyChartTwelveBucketsWithZeroYear(t *testing.T) {
	service, _, _ := newFinanceFixture(t)

	chart, err := service.MonthlyChart(context.Background(), 2031)
	require.NoError(t, err)
	require.Len(t, chart, 12)
	for _, bucket := range chart {
		assert.True(t, bucket.Income.IsZero())
		assert.True(t, bucket.Expense.IsZero())
	}
}

func TestMonthlyChartAndBalance(t *testing.T) {
	service, _, _ := newFinanceFixture(t)
	ctx := context.Background()

	march := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	july := time.Date(2026, time.July, 2, 0, 0, 0, 0, time.UTC)
	lastYear := time.Date(2025, time.July, 2, 0, 0, 0, 0, time.UTC)

	_, err := service.RecordIncome(ctx, "room", d("3960"), march, "")
	require.NoError(t, err)
	_, err = service.RecordIncome(ctx, "other", d("40"), march, "laundry")
	require.NoError(t, err)
	_, err = service.RecordExpense(ctx, "maintenance", d("500"), july, "")
	require.NoError(t, err)
	_, err = service.RecordExpense(ctx, "maintenance", d("999"), lastYear, "")
	require.NoError(t, err)

	chart, err := service.MonthlyChart(ctx, 2026)
	require.NoError(t, err)
	assert.True(t, chart[2].Income.Equal(d("4000")))
	assert.True(t, chart[6].Expense.Equal(d("500")))
	assert.True(t, chart[6].Income.IsZero())

	balance, err := service.YearEndBalance(ctx, 2026)
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("3500")))

	allYears, err := service.YearEndBalance(ctx, 0)
	require.NoError(t, err)
	assert.True(t, allYears.Equal(d("2501")))
}

func settledEvent() billingevents.PaymentSettled {
	return billingevents.PaymentSettled{
		EventID:     "evt-1",
		PaymentID:   "pay-1",
		StayID:      "stay-1",
		RoomPart:    d("3960"),
		OtherPart:   d("150"),
		OtherDetail: "key replacement",
		Total:       d("4110"),
		IssueDate:   time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
		OccurredAt:  time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC),
	}
}

func TestSettledConsumerDerivesOnce(t *testing.T) {
	incomes := memory.NewIncomeRepository()
	consumer, err := NewSettledConsumer(incomes, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, consumer.Handle(ctx, settledEvent()))
	require.NoError(t, consumer.Handle(ctx, settledEvent()))

	rows, err := incomes.List(ctx, 2026)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	total, err := incomes.Total(ctx, 2026)
	require.NoError(t, err)
	assert.True(t, total.Equal(d("4110")))
}

func TestSettledConsumerThroughIdempotentSubscription(t *testing.T) {
	incomes := memory.NewIncomeRepository()
	consumer, err := NewSettledConsumer(incomes, nil)
	require.NoError(t, err)

	bus := eventing.NewInMemoryBus()
	store := eventmemory.NewProcessedStore()
	consumer.Register(bus, store)

	env := eventing.Envelope{EventID: "evt-1", EventType: eventing.EventTypeOf[billingevents.PaymentSettled]()}
	ctx := eventing.WithEnvelope(context.Background(), env)

	require.NoError(t, bus.Publish(ctx, settledEvent()))
	require.NoError(t, bus.Publish(ctx, settledEvent()))

	total, err := incomes.Total(context.Background(), 2026)
	require.NoError(t, err)
	assert.True(t, total.Equal(d("4110")))
}

func TestRemoveForPayment(t *testing.T) {
	service, incomes, _ := newFinanceFixture(t)
	consumer, err := NewSettledConsumer(incomes, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, consumer.Handle(ctx, settledEvent()))
	require.NoError(t, service.RemoveForPayment(ctx, "pay-1"))

	rows, err := incomes.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
