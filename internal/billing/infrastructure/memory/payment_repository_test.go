package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	billing "dorm-billing/internal/billing/domain"
)

func newStoredPayment(t *testing.T) (*PaymentRepository, *billing.Payment) {
	t.Helper()
	repo := NewPaymentRepository()
	now := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)
	rates := billing.Rates{
		Water:       decimal.RequireFromString("10"),
		Electricity: decimal.RequireFromString("40"),
	}
	payment, err := billing.NewPayment("pay-1", "stay-1", "admin-7",
		decimal.RequireFromString("3500"), rates,
		decimal.RequireFromString("18"), decimal.RequireFromString("7"),
		decimal.Zero, "", now, now)
	if err != nil {
		t.Fatalf("new payment: %v", err)
	}
	if err := repo.Create(context.Background(), payment); err != nil {
		t.Fatalf("create: %v", err)
	}
	return repo, payment
}

func TestUpdateStaleVersionConflicts(t *testing.T) {
	repo, payment := newStoredPayment(t)
	ctx := context.Background()

	first, err := repo.GetByID(ctx, payment.ID)
	if err != nil {
		t.Fatalf("get first copy: %v", err)
	}
	second, err := repo.GetByID(ctx, payment.ID)
	if err != nil {
		t.Fatalf("get second copy: %v", err)
	}

	if err := repo.Update(ctx, first, first.Version); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := repo.Update(ctx, second, second.Version); err != billing.ErrVersionConflict {
		t.Fatalf("expected version conflict for stale update, got %v", err)
	}
}

func TestDeleteLosesRaceAgainstUpdate(t *testing.T) {
	repo, payment := newStoredPayment(t)
	ctx := context.Background()

	stale, err := repo.GetByID(ctx, payment.ID)
	if err != nil {
		t.Fatalf("get stale copy: %v", err)
	}
	winner, err := repo.GetByID(ctx, payment.ID)
	if err != nil {
		t.Fatalf("get winner copy: %v", err)
	}
	if err := winner.TransitionTo(billing.StatusProcessing, time.Now().UTC()); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := repo.Update(ctx, winner, winner.Version); err != nil {
		t.Fatalf("winning update: %v", err)
	}

	if err := repo.Delete(ctx, payment.ID, stale.Version); err != billing.ErrVersionConflict {
		t.Fatalf("expected version conflict for stale delete, got %v", err)
	}
	if _, err := repo.GetByID(ctx, payment.ID); err != nil {
		t.Fatalf("payment should survive the stale delete: %v", err)
	}

	if err := repo.Delete(ctx, payment.ID, winner.Version); err != nil {
		t.Fatalf("current-version delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, payment.ID); err != billing.ErrPaymentNotFound {
		t.Fatalf("expected payment gone, got %v", err)
	}
}

func TestDeleteUnknownPaymentNotFound(t *testing.T) {
	repo := NewPaymentRepository()
	if err := repo.Delete(context.Background(), "pay-missing", 1); err != billing.ErrPaymentNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
