package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(t *testing.T) *Payment {
	t.Helper()
	issued := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	payment, err := NewPayment("pay-1", "stay-1", "admin-1", d("3500"),
		Rates{Water: d("10"), Electricity: d("40")}, d("18"), d("7"), decimal.Zero, "", issued, issued)
	require.NoError(t, err)
	return payment
}

func TestNewPaymentCapturesPricesAndPeriod(t *testing.T) {
	payment := newTestPayment(t)

	assert.Equal(t, "202603", payment.PeriodKey)
	assert.Equal(t, StatusUnpaid, payment.Status)
	assert.Equal(t, 1, payment.Version)
	assert.True(t, payment.WaterPrice.Equal(d("10")))
	assert.True(t, payment.ElePrice.Equal(d("40")))
	assert.True(t, payment.Total.Equal(d("3960")))
}

func TestNewPaymentRejectsNegativeReadings(t *testing.T) {
	now := time.Now().UTC()
	_, err := NewPayment("pay-1", "stay-1", "admin-1", d("3500"),
		Rates{Water: d("10")}, d("-1"), decimal.Zero, decimal.Zero, "", now, now)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestStatusTransitionTable(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusUnpaid, StatusProcessing, true},
		{StatusUnpaid, StatusPaid, true},
		{StatusProcessing, StatusPaid, true},
		{StatusProcessing, StatusUnpaid, false},
		{StatusPaid, StatusUnpaid, false},
		{StatusPaid, StatusProcessing, false},
		{StatusPaid, StatusPaid, false},
		{StatusUnpaid, StatusUnpaid, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransitionToPaidIsTerminal(t *testing.T) {
	payment := newTestPayment(t)
	now := time.Now().UTC()

	require.NoError(t, payment.TransitionTo(StatusProcessing, now))
	require.NoError(t, payment.TransitionTo(StatusPaid, now))

	err := payment.TransitionTo(StatusProcessing, now)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, StatusPaid, payment.Status)
}

func TestReviseRecomputesWithCapturedPrices(t *testing.T) {
	payment := newTestPayment(t)

	err := payment.Revise(d("20"), d("10"), d("100"), "broken lock", time.Now())
	require.NoError(t, err)

	// 3500 + 20*10 + 10*40 + 100
	assert.True(t, payment.Total.Equal(d("4200")))
	assert.Equal(t, "broken lock", payment.OtherDetail)
}

func TestReviseRejectedOnceSettled(t *testing.T) {
	payment := newTestPayment(t)
	now := time.Now().UTC()
	require.NoError(t, payment.TransitionTo(StatusPaid, now))

	err := payment.Revise(d("1"), d("1"), decimal.Zero, "", now)
	assert.ErrorIs(t, err, ErrPaymentSettled)
	assert.True(t, payment.Total.Equal(d("3960")))
}

func TestStatusLegacyCodes(t *testing.T) {
	for _, status := range []Status{StatusUnpaid, StatusProcessing, StatusPaid} {
		parsed, ok := StatusFromLegacyCode(status.LegacyCode())
		require.True(t, ok)
		assert.Equal(t, status, parsed)
	}
	_, ok := StatusFromLegacyCode("4")
	assert.False(t, ok)
}
