package application

import (
	"context"
	"errors"
	"log"

	billingevents "dorm-billing/internal/billing/application/events"
	"dorm-billing/internal/eventing"
	finance "dorm-billing/internal/finance/domain"
	"dorm-billing/internal/observability/metrics"
)

// ConsumerName identifies the income derivation consumer in the
// processed-event store.
const ConsumerName = "finance.derive_income"

// SettledConsumer turns PaymentSettled events into income rows.
type SettledConsumer struct {
	incomes finance.IncomeRepository
	logger  *log.Logger
}

// NewSettledConsumer constructs a consumer.
func NewSettledConsumer(incomes finance.IncomeRepository, logger *log.Logger) (*SettledConsumer, error) {
	if incomes == nil {
		return nil, errors.New("settled consumer: nil income repo")
	}
	return &SettledConsumer{incomes: incomes, logger: logger}, nil
}

// Handle derives and stores income rows for one settled payment.
// Deterministic row ids plus idempotent creates make replays harmless.
func (c *SettledConsumer) Handle(ctx context.Context, event any) error {
	settled, ok := asSettled(event)
	if !ok {
		return nil
	}
	result := metrics.ResultSuccess
	defer func() {
		metrics.IncIncomeDerive(result)
	}()

	rows := finance.DeriveIncome(finance.SettledBill{
		PaymentID:   settled.PaymentID,
		RoomPart:    settled.RoomPart,
		OtherPart:   settled.OtherPart,
		OtherDetail: settled.OtherDetail,
		IssueDate:   settled.IssueDate,
	})
	for i := range rows {
		if err := c.incomes.Create(ctx, &rows[i]); err != nil {
			result = metrics.ResultError
			return err
		}
	}
	if c.logger != nil {
		c.logger.Printf("finance: derived %d income rows for payment %s", len(rows), settled.PaymentID)
	}
	return nil
}

// Register subscribes the consumer on the bus with idempotency.
func (c *SettledConsumer) Register(bus eventing.EventBus, store eventing.ProcessedStore) {
	eventing.Subscribe(bus, eventing.EventTypeOf[billingevents.PaymentSettled](), ConsumerName, c.Handle, store)
}

func asSettled(event any) (billingevents.PaymentSettled, bool) {
	switch v := event.(type) {
	case billingevents.PaymentSettled:
		return v, true
	case *billingevents.PaymentSettled:
		if v != nil {
			return *v, true
		}
	}
	return billingevents.PaymentSettled{}, false
}
