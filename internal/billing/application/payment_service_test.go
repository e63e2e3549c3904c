package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dorm-billing/internal/auth"
	"dorm-billing/internal/billing/application/events"
	billing "dorm-billing/internal/billing/domain"
	"dorm-billing/internal/billing/infrastructure/memory"
	"dorm-billing/internal/eventing"
	eventingmemory "dorm-billing/internal/eventing/infrastructure/memory"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

type stubStayReader struct {
	snapshots map[string]StaySnapshot
}

func (r *stubStayReader) ReadStay(_ context.Context, stayID string) (StaySnapshot, error) {
	snapshot, ok := r.snapshots[stayID]
	if !ok {
		return StaySnapshot{}, billing.ErrStayNotFound
	}
	return snapshot, nil
}

type stubRateSource struct {
	rates billing.Rates
}

func (s *stubRateSource) CurrentRates(context.Context) (billing.Rates, error) {
	return s.rates, nil
}

type failingRecorder struct{}

func (failingRecorder) RecordSettlement(context.Context, *billing.Payment, int, eventing.Envelope) error {
	return errors.New("outbox insert failed")
}

type recordingRemover struct {
	removed []string
}

func (r *recordingRemover) RemoveForPayment(_ context.Context, paymentID string) error {
	r.removed = append(r.removed, paymentID)
	return nil
}

type serviceFixture struct {
	service *PaymentService
	repo    *memory.PaymentRepository
	outbox  *eventingmemory.OutboxStore
	remover *recordingRemover
}

func (fx *serviceFixture) pendingEnvelopes(t *testing.T) []eventing.Envelope {
	t.Helper()
	records, err := fx.outbox.ListPending(context.Background(), 10)
	require.NoError(t, err)
	envs := make([]eventing.Envelope, 0, len(records))
	for _, record := range records {
		envs = append(envs, record.Envelope)
	}
	return envs
}

func newFixture(t *testing.T, opts ...PaymentOption) *serviceFixture {
	t.Helper()
	outbox := eventingmemory.NewOutboxStore()
	repo := memory.NewPaymentRepository(memory.WithOutbox(outbox))
	stays := &stubStayReader{snapshots: map[string]StaySnapshot{
		"stay-1": {ID: "stay-1", UserName: "Ada", RoomNum: "101", RoomPrice: d("3500"), Occupied: true},
	}}
	rates := &stubRateSource{rates: billing.Rates{Water: d("10"), Electricity: d("40")}}
	remover := &recordingRemover{}

	var seq int
	base := []PaymentOption{
		WithClock(func() time.Time {
			return time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)
		}),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("pay-%d", seq)
		}),
		WithDerivedIncomeRemover(remover),
	}
	service, err := NewPaymentService(repo, stays, rates, repo, append(base, opts...)...)
	require.NoError(t, err)
	return &serviceFixture{service: service, repo: repo, outbox: outbox, remover: remover}
}

func actorContext() context.Context {
	return auth.WithActor(context.Background(), "admin-7", auth.RoleStaff, "Grace")
}

func TestCreateIssuesUnpaidPayment(t *testing.T) {
	fx := newFixture(t)

	payment, err := fx.service.Create(actorContext(), CreateInput{
		StayID:     "stay-1",
		WaterUnits: d("18"),
		EleUnits:   d("7"),
	})
	require.NoError(t, err)

	assert.Equal(t, billing.StatusUnpaid, payment.Status)
	assert.Equal(t, "admin-7", payment.AdminID)
	assert.Equal(t, "202603", payment.PeriodKey)
	assert.True(t, payment.Total.Equal(d("3960")))

	stored, err := fx.repo.GetByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(d("3960")))
	assert.Empty(t, fx.pendingEnvelopes(t))
}

func TestCreateUnknownStay(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.service.Create(actorContext(), CreateInput{StayID: "stay-9"})
	assert.ErrorIs(t, err, billing.ErrStayNotFound)
}

func TestCreateNegativeReadingPersistsNothing(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.service.Create(actorContext(), CreateInput{
		StayID:     "stay-1",
		WaterUnits: d("-3"),
	})
	assert.ErrorIs(t, err, billing.ErrInvalidQuantity)

	list, err := fx.repo.ListByStay(context.Background(), "stay-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateDuplicatePeriodRace(t *testing.T) {
	fx := newFixture(t)

	const racers = 2
	errs := make(chan error, racers)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < racers; i++ {
		go func() {
			start.Wait()
			_, err := fx.service.Create(actorContext(), CreateInput{
				StayID:     "stay-1",
				WaterUnits: d("18"),
				EleUnits:   d("7"),
			})
			errs <- err
		}()
	}
	start.Done()

	var ok, dup int
	for i := 0; i < racers; i++ {
		err := <-errs
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, billing.ErrDuplicatePeriod):
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, dup)

	list, err := fx.repo.ListByStay(context.Background(), "stay-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpdateStatusSettlesAndPublishes(t *testing.T) {
	fx := newFixture(t)
	payment, err := fx.service.Create(actorContext(), CreateInput{
		StayID:     "stay-1",
		WaterUnits: d("18"),
		EleUnits:   d("7"),
		Other:      d("100"),
	})
	require.NoError(t, err)

	_, err = fx.service.UpdateStatus(actorContext(), payment.ID, billing.StatusProcessing)
	require.NoError(t, err)
	assert.Empty(t, fx.pendingEnvelopes(t))

	settled, err := fx.service.UpdateStatus(actorContext(), payment.ID, billing.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPaid, settled.Status)

	envs := fx.pendingEnvelopes(t)
	require.Len(t, envs, 1)
	assert.Equal(t, payment.ID, envs[0].PaymentID)

	var event events.PaymentSettled
	require.NoError(t, json.Unmarshal(envs[0].Payload, &event))
	assert.Equal(t, payment.ID, event.PaymentID)
	assert.Equal(t, "stay-1", event.StayID)
	assert.True(t, event.OtherPart.Equal(d("100")))
	assert.True(t, event.RoomPart.Equal(event.Total.Sub(d("100"))))
}

func TestUpdateStatusFailedSettleLeavesPriorStatus(t *testing.T) {
	fx := newFixture(t)
	payment, err := fx.service.Create(actorContext(), CreateInput{
		StayID:     "stay-1",
		WaterUnits: d("18"),
		EleUnits:   d("7"),
	})
	require.NoError(t, err)

	stays := &stubStayReader{snapshots: map[string]StaySnapshot{}}
	rates := &stubRateSource{rates: billing.Rates{Water: d("10"), Electricity: d("40")}}
	broken, err := NewPaymentService(fx.repo, stays, rates, failingRecorder{})
	require.NoError(t, err)

	_, err = broken.UpdateStatus(actorContext(), payment.ID, billing.StatusPaid)
	require.Error(t, err)

	stored, err := fx.repo.GetByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusUnpaid, stored.Status)
	assert.Empty(t, fx.pendingEnvelopes(t))
}

func TestUpdateStatusRejectsDeparturesFromPaid(t *testing.T) {
	fx := newFixture(t)
	payment, err := fx.service.Create(actorContext(), CreateInput{StayID: "stay-1"})
	require.NoError(t, err)

	_, err = fx.service.UpdateStatus(actorContext(), payment.ID, billing.StatusPaid)
	require.NoError(t, err)

	_, err = fx.service.UpdateStatus(actorContext(), payment.ID, billing.StatusUnpaid)
	assert.ErrorIs(t, err, billing.ErrIllegalTransition)
}

func TestReviseThenSettleKeepsRevisedTotal(t *testing.T) {
	fx := newFixture(t)
	payment, err := fx.service.Create(actorContext(), CreateInput{
		StayID:     "stay-1",
		WaterUnits: d("18"),
		EleUnits:   d("7"),
	})
	require.NoError(t, err)

	revised, err := fx.service.Revise(actorContext(), payment.ID, d("20"), d("7"), decimal.Zero, "")
	require.NoError(t, err)
	assert.True(t, revised.Total.Equal(d("3980")))

	settled, err := fx.service.UpdateStatus(actorContext(), payment.ID, billing.StatusPaid)
	require.NoError(t, err)
	assert.True(t, settled.Total.Equal(d("3980")))

	_, err = fx.service.Revise(actorContext(), payment.ID, d("1"), d("1"), decimal.Zero, "")
	assert.ErrorIs(t, err, billing.ErrPaymentSettled)
}

func TestDeleteUnsettledRemovesDerivedIncome(t *testing.T) {
	fx := newFixture(t)
	payment, err := fx.service.Create(actorContext(), CreateInput{StayID: "stay-1"})
	require.NoError(t, err)

	require.NoError(t, fx.service.Delete(actorContext(), payment.ID))

	_, err = fx.service.Get(actorContext(), payment.ID)
	assert.ErrorIs(t, err, billing.ErrPaymentNotFound)
	assert.Equal(t, []string{payment.ID}, fx.remover.removed)
}

func TestDeleteSettledConflicts(t *testing.T) {
	fx := newFixture(t)
	payment, err := fx.service.Create(actorContext(), CreateInput{StayID: "stay-1"})
	require.NoError(t, err)
	_, err = fx.service.UpdateStatus(actorContext(), payment.ID, billing.StatusPaid)
	require.NoError(t, err)

	err = fx.service.Delete(actorContext(), payment.ID)
	assert.ErrorIs(t, err, billing.ErrPaymentSettled)
	assert.Empty(t, fx.remover.removed)
}

func TestListByPeriod(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.service.Create(actorContext(), CreateInput{StayID: "stay-1"})
	require.NoError(t, err)

	list, err := fx.service.ListByPeriod(actorContext(), 2026, time.March)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	empty, err := fx.service.ListByPeriod(actorContext(), 2026, time.April)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
