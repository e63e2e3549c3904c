package eventing

import (
	"context"
	"testing"
	"time"
)

type testEvent struct {
	PaymentID  string    `json:"payment_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type mapProcessedStore struct {
	seen map[string]struct{}
}

func (s *mapProcessedStore) HasProcessed(_ context.Context, eventID, consumer string) (bool, error) {
	_, ok := s.seen[eventID+"|"+consumer]
	return ok, nil
}

func (s *mapProcessedStore) MarkProcessed(_ context.Context, env Envelope, consumer string) error {
	s.seen[env.EventID+"|"+consumer] = struct{}{}
	return nil
}

func TestSubscribeIdempotent(t *testing.T) {
	bus := NewInMemoryBus()
	store := &mapProcessedStore{seen: make(map[string]struct{})}

	calls := 0
	Subscribe(bus, EventTypeOf[testEvent](), "test.consumer", func(ctx context.Context, event any) error {
		calls++
		return nil
	}, store)

	env, err := BuildEnvelope(testEvent{PaymentID: "pay-1"}, Meta{EventID: "evt-1"})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	ctx := WithEnvelope(context.Background(), env)

	if err := bus.Publish(ctx, testEvent{PaymentID: "pay-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := bus.Publish(ctx, testEvent{PaymentID: "pay-1"}); err != nil {
		t.Fatalf("republish: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected handler called once, got %d", calls)
	}
}

func TestBuildEnvelopeExtractsPaymentID(t *testing.T) {
	occurred := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env, err := BuildEnvelope(testEvent{PaymentID: "pay-7", OccurredAt: occurred}, Meta{})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	if env.PaymentID != "pay-7" {
		t.Fatalf("expected payment id pay-7, got %q", env.PaymentID)
	}
	if !env.OccurredAt.Equal(occurred) {
		t.Fatalf("expected occurred at %v, got %v", occurred, env.OccurredAt)
	}
	if env.EventID == "" || env.CorrelationID != env.EventID {
		t.Fatalf("expected generated event id to seed correlation id, got %q / %q", env.EventID, env.CorrelationID)
	}
}

func TestRegistryDecodesRegisteredTypes(t *testing.T) {
	registry := NewRegistry()
	registry.Register(testEvent{})

	if !registry.Known(EventTypeOf[testEvent]()) {
		t.Fatalf("expected registered type to be known")
	}

	env, err := BuildEnvelope(testEvent{PaymentID: "pay-3"}, Meta{})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	decoded, err := registry.DecodePayload(env)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	evt, ok := decoded.(testEvent)
	if !ok {
		t.Fatalf("expected value type testEvent, got %T", decoded)
	}
	if evt.PaymentID != "pay-3" {
		t.Fatalf("expected pay-3, got %q", evt.PaymentID)
	}

	env.EventType = "billing.Unknown"
	if _, err := registry.DecodePayload(env); err == nil {
		t.Fatalf("expected error for unregistered type")
	}
}
