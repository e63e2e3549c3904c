package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dorm-billing/internal/auth"
	"dorm-billing/internal/billing/application"
	billing "dorm-billing/internal/billing/domain"
	"dorm-billing/internal/billing/infrastructure/memory"
)

type stubStayReader struct {
	stays map[string]application.StaySnapshot
}

func (s *stubStayReader) ReadStay(_ context.Context, stayID string) (application.StaySnapshot, error) {
	stay, ok := s.stays[stayID]
	if !ok {
		return application.StaySnapshot{}, billing.ErrStayNotFound
	}
	return stay, nil
}

type stubRateSource struct {
	rates billing.Rates
}

func (s *stubRateSource) CurrentRates(_ context.Context) (billing.Rates, error) {
	return s.rates, nil
}

func newHandlerFixture(t *testing.T) *PaymentHandler {
	t.Helper()
	reader := &stubStayReader{stays: map[string]application.StaySnapshot{
		"stay-1": {ID: "stay-1", UserID: "user-1", RoomPrice: decimal.RequireFromString("3500"), Occupied: true},
	}}
	rates := &stubRateSource{rates: billing.Rates{
		Water:       decimal.RequireFromString("10"),
		Electricity: decimal.RequireFromString("40"),
	}}
	seq := 0
	service, err := application.NewPaymentService(memory.NewPaymentRepository(), reader, rates, nil,
		application.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("pay-%d", seq)
		}),
		application.WithClock(func() time.Time {
			return time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC)
		}))
	require.NoError(t, err)
	handler, err := NewPaymentHandler(service, nil)
	require.NoError(t, err)
	return handler
}

func actorRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := auth.WithActor(req.Context(), "admin-7", auth.RoleStaff, "Grace")
	return req.WithContext(ctx)
}

func TestPaymentHandlerCreateAndGet(t *testing.T) {
	handler := newHandlerFixture(t)

	body := `{"stay_id":"stay-1","water_amount":"18","ele_amount":"7","payment_date":"2026-03-05"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, actorRequest(http.MethodPost, "/api/v1/payments", body))
	require.Equal(t, http.StatusCreated, resp.Code)

	var created paymentResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.Equal(t, "3960", created.PaymentTotal)
	assert.Equal(t, "unpaid", created.PaymentStatus)
	assert.Equal(t, "admin-7", created.AdminID)
	assert.Equal(t, "10", created.WaterPrice)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, actorRequest(http.MethodGet, "/api/v1/payments/"+created.PaymentID, ""))
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestPaymentHandlerDuplicatePeriodConflict(t *testing.T) {
	handler := newHandlerFixture(t)
	body := `{"stay_id":"stay-1","water_amount":"18","ele_amount":"7","payment_date":"2026-03-05"}`

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, actorRequest(http.MethodPost, "/api/v1/payments", body))
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, actorRequest(http.MethodPost, "/api/v1/payments", body))
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestPaymentHandlerUnknownStay(t *testing.T) {
	handler := newHandlerFixture(t)
	body := `{"stay_id":"stay-missing","water_amount":"1","ele_amount":"1"}`

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, actorRequest(http.MethodPost, "/api/v1/payments", body))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestPaymentHandlerStatusLifecycle(t *testing.T) {
	handler := newHandlerFixture(t)
	body := `{"stay_id":"stay-1","water_amount":"18","ele_amount":"7","payment_date":"2026-03-05"}`

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, actorRequest(http.MethodPost, "/api/v1/payments", body))
	require.Equal(t, http.StatusCreated, resp.Code)
	var created paymentResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	statusURL := "/api/v1/payments/" + created.PaymentID + "/status"
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, actorRequest(http.MethodPost, statusURL, `{"payment_status":"paid"}`))
	require.Equal(t, http.StatusOK, resp.Code)

	var settled paymentResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &settled))
	assert.Equal(t, "paid", settled.PaymentStatus)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, actorRequest(http.MethodPost, statusURL, `{"payment_status":"processing"}`))
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, actorRequest(http.MethodDelete, "/api/v1/payments/"+created.PaymentID, ""))
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestPaymentHandlerLegacyStatusCode(t *testing.T) {
	handler := newHandlerFixture(t)
	body := `{"stay_id":"stay-1","water_amount":"0","ele_amount":"0","payment_date":"2026-03-05"}`

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, actorRequest(http.MethodPost, "/api/v1/payments", body))
	require.Equal(t, http.StatusCreated, resp.Code)
	var created paymentResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, actorRequest(http.MethodPost, "/api/v1/payments/"+created.PaymentID+"/status", `{"payment_status":"3"}`))
	require.Equal(t, http.StatusOK, resp.Code)
	var settled paymentResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &settled))
	assert.Equal(t, "paid", settled.PaymentStatus)
}

func TestPaymentHandlerQuote(t *testing.T) {
	handler := newHandlerFixture(t)
	body := `{"stay_id":"stay-1","water_amount":"18","ele_amount":"7"}`

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, actorRequest(http.MethodPost, "/api/v1/payments/quote", body))
	require.Equal(t, http.StatusOK, resp.Code)

	var quote map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &quote))
	assert.Equal(t, "3960", quote["total"])
	assert.Equal(t, "180", quote["water"])
	assert.Equal(t, "280", quote["electricity"])
}

type downStayReader struct{}

func (downStayReader) ReadStay(context.Context, string) (application.StaySnapshot, error) {
	return application.StaySnapshot{}, errors.New("stay registry timeout")
}

func TestPaymentHandlerInfraFailureIsServerError(t *testing.T) {
	rates := &stubRateSource{rates: billing.Rates{
		Water:       decimal.RequireFromString("10"),
		Electricity: decimal.RequireFromString("40"),
	}}
	service, err := application.NewPaymentService(memory.NewPaymentRepository(), downStayReader{}, rates, nil)
	require.NoError(t, err)
	handler, err := NewPaymentHandler(service, nil)
	require.NoError(t, err)

	body := `{"stay_id":"stay-1","water_amount":"1","ele_amount":"1"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, actorRequest(http.MethodPost, "/api/v1/payments", body))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestPaymentHandlerRejectsNegativeReading(t *testing.T) {
	handler := newHandlerFixture(t)
	body := `{"stay_id":"stay-1","water_amount":"-1","ele_amount":"0"}`

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, actorRequest(http.MethodPost, "/api/v1/payments", body))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
