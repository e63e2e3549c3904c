package application

import (
	"context"

	"github.com/shopspring/decimal"

	billing "dorm-billing/internal/billing/domain"
	"dorm-billing/internal/eventing"
)

// StaySnapshot carries the stay fields billing reads at creation time.
type StaySnapshot struct {
	ID        string
	UserID    string
	UserName  string
	RoomID    string
	RoomNum   string
	RoomPrice decimal.Decimal
	Occupied  bool
}

// StayReader resolves stays from the stay registry.
type StayReader interface {
	ReadStay(ctx context.Context, stayID string) (StaySnapshot, error)
}

// RateSource resolves the per-unit prices in effect when a bill is issued.
type RateSource interface {
	CurrentRates(ctx context.Context) (billing.Rates, error)
}

// SettlementRecorder persists the paid payment and its outbox envelope
// as one write, so a settled status never exists without the event
// that announces it.
type SettlementRecorder interface {
	RecordSettlement(ctx context.Context, payment *billing.Payment, expectedVersion int, env eventing.Envelope) error
}

// DispatchTrigger nudges the outbox dispatcher after a settlement lands.
type DispatchTrigger interface {
	Dispatch(ctx context.Context, limit int) error
}

// DerivedIncomeRemover removes income rows derived from a payment.
type DerivedIncomeRemover interface {
	RemoveForPayment(ctx context.Context, paymentID string) error
}
