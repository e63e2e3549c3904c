package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dorm-billing/internal/auth"
	"dorm-billing/internal/billing/application/events"
	billing "dorm-billing/internal/billing/domain"
	"dorm-billing/internal/eventing"
	"dorm-billing/internal/observability/metrics"
)

// PaymentService handles the payment ledger workflows.
type PaymentService struct {
	repo        billing.Repository
	stays       StayReader
	rates       RateSource
	settlements SettlementRecorder
	dispatch    DispatchTrigger
	incomes     DerivedIncomeRemover
	now         func() time.Time
	newID       func() string
}

// PaymentOption customizes the service.
type PaymentOption func(*PaymentService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) PaymentOption {
	return func(s *PaymentService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides payment id generation.
func WithIDGenerator(gen func() string) PaymentOption {
	return func(s *PaymentService) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithDispatchTrigger wires a best-effort outbox sweep after settling,
// so the settlement event usually lands without waiting for the ticker.
func WithDispatchTrigger(dispatch DispatchTrigger) PaymentOption {
	return func(s *PaymentService) {
		s.dispatch = dispatch
	}
}

// WithDerivedIncomeRemover wires cleanup of income rows on delete.
func WithDerivedIncomeRemover(remover DerivedIncomeRemover) PaymentOption {
	return func(s *PaymentService) {
		s.incomes = remover
	}
}

// NewPaymentService constructs a service.
func NewPaymentService(repo billing.Repository, stays StayReader, rates RateSource, settlements SettlementRecorder, opts ...PaymentOption) (*PaymentService, error) {
	if repo == nil {
		return nil, errors.New("payment service: nil repo")
	}
	if stays == nil {
		return nil, errors.New("payment service: nil stay reader")
	}
	if rates == nil {
		return nil, errors.New("payment service: nil rate source")
	}
	s := &PaymentService{
		repo:        repo,
		stays:       stays,
		rates:       rates,
		settlements: settlements,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return "pay-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateInput carries the readings for a new bill.
type CreateInput struct {
	StayID      string
	WaterUnits  decimal.Decimal
	EleUnits    decimal.Decimal
	Other       decimal.Decimal
	OtherDetail string
	IssueDate   time.Time
}

// Quote previews a bill total for a stay without persisting anything.
func (s *PaymentService) Quote(ctx context.Context, in CreateInput) (billing.Breakdown, error) {
	stay, err := s.stays.ReadStay(ctx, in.StayID)
	if err != nil {
		return billing.Breakdown{}, err
	}
	rates, err := s.rates.CurrentRates(ctx)
	if err != nil {
		return billing.Breakdown{}, err
	}
	return billing.Quote(stay.RoomPrice, rates, in.WaterUnits, in.EleUnits, in.Other)
}

// Create issues an unpaid bill for a stay. A second bill for the same
// stay and calendar month fails with ErrDuplicatePeriod.
func (s *PaymentService) Create(ctx context.Context, in CreateInput) (*billing.Payment, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObservePaymentCreate(result, time.Since(start))
	}()

	stay, err := s.stays.ReadStay(ctx, in.StayID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	rates, err := s.rates.CurrentRates(ctx)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	issueDate := in.IssueDate
	if issueDate.IsZero() {
		issueDate = s.now()
	}
	payment, err := billing.NewPayment(s.newID(), stay.ID, auth.ActorIDFromContext(ctx),
		stay.RoomPrice, rates, in.WaterUnits, in.EleUnits, in.Other, in.OtherDetail, issueDate, s.now())
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return payment, nil
}

// UpdateStatus moves a payment along the lifecycle. Entering the paid
// state settles the bill: the status write and the PaymentSettled
// outbox record land together or not at all.
func (s *PaymentService) UpdateStatus(ctx context.Context, paymentID string, target billing.Status) (*billing.Payment, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObservePaymentStatus(result, time.Since(start))
	}()

	payment, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	expectedVersion := payment.Version
	if err := payment.TransitionTo(target, s.now()); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if target == billing.StatusPaid && s.settlements != nil {
		env, err := s.settlementEnvelope(ctx, payment)
		if err != nil {
			result = metrics.ResultError
			return nil, err
		}
		if err := s.settlements.RecordSettlement(ctx, payment, expectedVersion, env); err != nil {
			result = metrics.ResultError
			return nil, err
		}
		if s.dispatch != nil {
			_ = s.dispatch.Dispatch(ctx, 1)
		}
		return payment, nil
	}
	if err := s.repo.Update(ctx, payment, expectedVersion); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return payment, nil
}

// Revise applies a corrective edit to an unsettled bill.
func (s *PaymentService) Revise(ctx context.Context, paymentID string, waterUnits, eleUnits, other decimal.Decimal, otherDetail string) (*billing.Payment, error) {
	payment, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	expectedVersion := payment.Version
	if err := payment.Revise(waterUnits, eleUnits, other, otherDetail, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, payment, expectedVersion); err != nil {
		return nil, err
	}
	return payment, nil
}

// Delete removes an unsettled payment together with any income rows
// already derived from it. Settled payments stay.
func (s *PaymentService) Delete(ctx context.Context, paymentID string) error {
	result := metrics.ResultSuccess
	defer func() {
		metrics.IncPaymentDelete(result)
	}()

	payment, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		result = metrics.ResultError
		return err
	}
	if payment.Status == billing.StatusPaid {
		result = metrics.ResultError
		return billing.ErrPaymentSettled
	}
	if err := s.repo.Delete(ctx, paymentID, payment.Version); err != nil {
		result = metrics.ResultError
		return err
	}
	if s.incomes != nil {
		if err := s.incomes.RemoveForPayment(ctx, paymentID); err != nil {
			result = metrics.ResultError
			return err
		}
	}
	return nil
}

// Get returns a payment by id.
func (s *PaymentService) Get(ctx context.Context, paymentID string) (*billing.Payment, error) {
	return s.repo.GetByID(ctx, paymentID)
}

// ListByPeriod returns payments issued in a calendar month.
func (s *PaymentService) ListByPeriod(ctx context.Context, year int, month time.Month) ([]*billing.Payment, error) {
	periodKey := billing.PeriodKeyFor(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
	return s.repo.ListByPeriod(ctx, periodKey)
}

// ListByStay returns the billing history of one stay.
func (s *PaymentService) ListByStay(ctx context.Context, stayID string) ([]*billing.Payment, error) {
	if stayID == "" {
		return nil, errors.New("payment service: stay_id required")
	}
	return s.repo.ListByStay(ctx, stayID)
}

func (s *PaymentService) settlementEnvelope(ctx context.Context, payment *billing.Payment) (eventing.Envelope, error) {
	now := s.now()
	event := events.PaymentSettled{
		EventID:     eventing.NewEventID(),
		PaymentID:   payment.ID,
		StayID:      payment.StayID,
		AdminID:     payment.AdminID,
		RoomPart:    payment.Total.Sub(payment.Other),
		OtherPart:   payment.Other,
		OtherDetail: payment.OtherDetail,
		Total:       payment.Total,
		IssueDate:   payment.IssueDate,
		OccurredAt:  now,
	}
	meta := eventing.MetaFromContext(ctx, auth.ActorIDFromContext(ctx))
	meta.EventID = event.EventID
	return eventing.BuildEnvelope(event, meta)
}
