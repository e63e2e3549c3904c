package eventing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dorm-billing/internal/eventing"
	"dorm-billing/internal/eventing/infrastructure/memory"
)

type settleEvent struct {
	PaymentID  string    `json:"payment_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func TestDispatcherDeliversPendingOutbox(t *testing.T) {
	bus := eventing.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(settleEvent{})
	outbox := memory.NewOutboxStore()
	dispatcher := eventing.NewDispatcher(bus, outbox, registry)

	var got settleEvent
	bus.Subscribe(eventing.EventTypeOf[settleEvent](), func(ctx context.Context, event any) error {
		evt, ok := event.(settleEvent)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		got = evt
		return nil
	})

	env, err := eventing.BuildEnvelope(settleEvent{PaymentID: "pay-2"}, eventing.Meta{})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	if _, err := outbox.Insert(context.Background(), env); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := dispatcher.Dispatch(context.Background(), 1); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got.PaymentID != "pay-2" {
		t.Fatalf("expected delivered event for pay-2, got %+v", got)
	}
	pending, err := outbox.ListPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected outbox drained, got %d pending", len(pending))
	}
}

func TestDispatcherRetriesFailedDelivery(t *testing.T) {
	bus := eventing.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(settleEvent{})
	outbox := memory.NewOutboxStore()
	dispatcher := eventing.NewDispatcher(bus, outbox, registry)

	calls := 0
	bus.Subscribe(eventing.EventTypeOf[settleEvent](), func(ctx context.Context, event any) error {
		calls++
		if calls == 1 {
			return errors.New("income store briefly down")
		}
		return nil
	})

	env, err := eventing.BuildEnvelope(settleEvent{PaymentID: "pay-9"}, eventing.Meta{})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	if _, err := outbox.Insert(context.Background(), env); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := dispatcher.Dispatch(context.Background(), 1); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	pending, err := outbox.ListPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected failed delivery to stay pending, got %d records", len(pending))
	}

	if err := dispatcher.Dispatch(context.Background(), 1); err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected handler retried after transient failure, called %d time(s)", calls)
	}
	pending, err = outbox.ListPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected record sent after retry, got %d pending", len(pending))
	}
}

func TestDispatcherParksRecordAtAttemptCap(t *testing.T) {
	bus := eventing.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(settleEvent{})
	outbox := memory.NewOutboxStore(memory.WithMaxAttempts(2))
	dispatcher := eventing.NewDispatcher(bus, outbox, registry)

	calls := 0
	bus.Subscribe(eventing.EventTypeOf[settleEvent](), func(ctx context.Context, event any) error {
		calls++
		return errors.New("income store down for good")
	})

	env, err := eventing.BuildEnvelope(settleEvent{PaymentID: "pay-4"}, eventing.Meta{})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	id, err := outbox.Insert(context.Background(), env)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	for i := 0; i < 4; i++ {
		if err := dispatcher.Dispatch(context.Background(), 1); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected delivery stopped at the attempt cap, handler called %d time(s)", calls)
	}
	if got := outbox.Attempts(id); got != 2 {
		t.Fatalf("expected 2 recorded attempts, got %d", got)
	}
}
