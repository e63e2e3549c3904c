package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dorm-billing/internal/audit"
	"dorm-billing/internal/auth"
	"dorm-billing/internal/billing/application"
	billing "dorm-billing/internal/billing/domain"
	"dorm-billing/internal/observability/metrics"
)

// PaymentHandler handles payment ledger APIs.
type PaymentHandler struct {
	service     *application.PaymentService
	auditLogger audit.Logger
}

// NewPaymentHandler constructs a handler.
func NewPaymentHandler(service *application.PaymentService, auditLogger audit.Logger) (*PaymentHandler, error) {
	if service == nil {
		return nil, errors.New("payment handler: nil service")
	}
	return &PaymentHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles payment routes under /api/v1/payments.
func (h *PaymentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/payments" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if path == "/api/v1/payments/quote" && r.Method == http.MethodPost {
		h.handleQuote(w, r)
		return
	}
	if path == "/api/v1/payments/export.xlsx" && r.Method == http.MethodGet {
		h.handleExportXLSX(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/payments/") {
		rest := strings.TrimPrefix(path, "/api/v1/payments/")
		h.handleByID(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

type paymentRequest struct {
	StayID      string `json:"stay_id"`
	WaterAmount string `json:"water_amount"`
	EleAmount   string `json:"ele_amount"`
	Other       string `json:"other_payment"`
	OtherDetail string `json:"other_payment_detail"`
	PaymentDate string `json:"payment_date"`
}

func (req paymentRequest) toInput() (application.CreateInput, error) {
	water, err := parseAmount(req.WaterAmount)
	if err != nil {
		return application.CreateInput{}, err
	}
	ele, err := parseAmount(req.EleAmount)
	if err != nil {
		return application.CreateInput{}, err
	}
	other, err := parseAmount(req.Other)
	if err != nil {
		return application.CreateInput{}, err
	}
	in := application.CreateInput{
		StayID:      req.StayID,
		WaterUnits:  water,
		EleUnits:    ele,
		Other:       other,
		OtherDetail: req.OtherDetail,
	}
	if req.PaymentDate != "" {
		issued, err := time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			return application.CreateInput{}, errors.New("payment_date must be YYYY-MM-DD")
		}
		in.IssueDate = issued.UTC()
	}
	return in, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, errors.New("amounts must be decimal strings")
	}
	return value, nil
}

func (h *PaymentHandler) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	in, err := req.toInput()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	quote, err := h.service.Quote(r.Context(), in)
	if err != nil {
		respondPaymentError(w, err)
		return
	}
	resp := map[string]string{
		"room":        quote.Room.String(),
		"water":       quote.Water.String(),
		"electricity": quote.Electricity.String(),
		"other":       quote.Other.String(),
		"total":       quote.Total.String(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *PaymentHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	in, err := req.toInput()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payment, err := h.service.Create(r.Context(), in)
	if err != nil {
		respondPaymentError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(paymentToResponse(payment))
	h.logAudit(r, payment, "payment.create", map[string]any{
		"stay_id": payment.StayID,
		"total":   payment.Total.String(),
	})
}

func (h *PaymentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if stayID := r.URL.Query().Get("stay_id"); stayID != "" {
		list, err := h.service.ListByStay(r.Context(), stayID)
		if err != nil {
			respondPaymentError(w, err)
			return
		}
		writePaymentList(w, list)
		return
	}
	year, month, err := parsePeriod(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.service.ListByPeriod(r.Context(), year, month)
	if err != nil {
		respondPaymentError(w, err)
		return
	}
	writePaymentList(w, list)
}

func (h *PaymentHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
		case http.MethodPut:
			h.handleRevise(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "status":
			if r.Method == http.MethodPost {
				h.handleStatus(w, r, id)
				return
			}
		case "receipt.pdf":
			if r.Method == http.MethodGet {
				h.handleReceiptPDF(w, r, id)
				return
			}
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *PaymentHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	payment, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondPaymentError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(paymentToResponse(payment))
}

func (h *PaymentHandler) handleStatus(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Status string `json:"payment_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	target, ok := billing.ParseStatus(req.Status)
	if !ok {
		target, ok = billing.StatusFromLegacyCode(req.Status)
	}
	if !ok {
		http.Error(w, "unknown payment_status", http.StatusBadRequest)
		return
	}
	payment, err := h.service.UpdateStatus(r.Context(), id, target)
	if err != nil {
		respondPaymentError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(paymentToResponse(payment))
	h.logAudit(r, payment, "payment.status", map[string]any{
		"status": string(payment.Status),
	})
}

func (h *PaymentHandler) handleRevise(w http.ResponseWriter, r *http.Request, id string) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	in, err := req.toInput()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payment, err := h.service.Revise(r.Context(), id, in.WaterUnits, in.EleUnits, in.Other, in.OtherDetail)
	if err != nil {
		respondPaymentError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(paymentToResponse(payment))
	h.logAudit(r, payment, "payment.revise", map[string]any{
		"total": payment.Total.String(),
	})
}

func (h *PaymentHandler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	payment, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondPaymentError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		respondPaymentError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, payment, "payment.delete", nil)
}

func (h *PaymentHandler) handleReceiptPDF(w http.ResponseWriter, r *http.Request, id string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObservePaymentExport("pdf", result, time.Since(start))
	}()

	payment, err := h.service.Get(r.Context(), id)
	if err != nil {
		result = metrics.ResultError
		respondPaymentError(w, err)
		return
	}
	data, err := BuildReceiptPDF(payment)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export pdf error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *PaymentHandler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObservePaymentExport("xlsx", result, time.Since(start))
	}()

	year, month, err := parsePeriod(r)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.service.ListByPeriod(r.Context(), year, month)
	if err != nil {
		result = metrics.ResultError
		respondPaymentError(w, err)
		return
	}
	data, err := BuildPaymentListXLSX(year, month, list)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func parsePeriod(r *http.Request) (int, time.Month, error) {
	yearValue := r.URL.Query().Get("year")
	monthValue := r.URL.Query().Get("month")
	if yearValue == "" || monthValue == "" {
		return 0, 0, errors.New("month and year are required")
	}
	year, err := strconv.Atoi(yearValue)
	if err != nil || year < 1 {
		return 0, 0, errors.New("year must be a positive integer")
	}
	month, err := strconv.Atoi(monthValue)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, errors.New("month must be 1..12")
	}
	return year, time.Month(month), nil
}

type paymentResponse struct {
	PaymentID          string `json:"payment_id"`
	StayID             string `json:"stay_id"`
	AdminID            string `json:"admin_id"`
	WaterAmount        string `json:"water_amount"`
	WaterPrice         string `json:"water_price"`
	EleAmount          string `json:"ele_amount"`
	ElePrice           string `json:"ele_price"`
	OtherPayment       string `json:"other_payment"`
	OtherPaymentDetail string `json:"other_payment_detail,omitempty"`
	RoomPrice          string `json:"room_price"`
	PaymentTotal       string `json:"payment_total"`
	PaymentDate        string `json:"payment_date"`
	PaymentStatus      string `json:"payment_status"`
	Version            int    `json:"version"`
}

func paymentToResponse(payment *billing.Payment) paymentResponse {
	return paymentResponse{
		PaymentID:          payment.ID,
		StayID:             payment.StayID,
		AdminID:            payment.AdminID,
		WaterAmount:        payment.WaterUnits.String(),
		WaterPrice:         payment.WaterPrice.String(),
		EleAmount:          payment.EleUnits.String(),
		ElePrice:           payment.ElePrice.String(),
		OtherPayment:       payment.Other.String(),
		OtherPaymentDetail: payment.OtherDetail,
		RoomPrice:          payment.RoomPrice.String(),
		PaymentTotal:       payment.Total.String(),
		PaymentDate:        payment.IssueDate.Format("2006-01-02"),
		PaymentStatus:      string(payment.Status),
		Version:            payment.Version,
	}
}

func writePaymentList(w http.ResponseWriter, list []*billing.Payment) {
	resp := make([]paymentResponse, 0, len(list))
	for _, payment := range list {
		resp = append(resp, paymentToResponse(payment))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func respondPaymentError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, billing.ErrStayNotFound), errors.Is(err, billing.ErrPaymentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, billing.ErrIllegalTransition),
		errors.Is(err, billing.ErrDuplicatePeriod),
		errors.Is(err, billing.ErrPaymentSettled),
		errors.Is(err, billing.ErrVersionConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, billing.ErrInvalidQuantity), errors.Is(err, billing.ErrEmptyPaymentID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		// Anything unrecognized here is an infrastructure failure,
		// not a caller mistake.
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *PaymentHandler) logAudit(r *http.Request, payment *billing.Payment, action string, meta map[string]any) {
	if h.auditLogger == nil || payment == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		ID:            audit.NewID(),
		ActorID:       auth.ActorIDFromContext(r.Context()),
		Role:          string(auth.RoleFromContext(r.Context())),
		Action:        action,
		ResourceType:  "payment",
		ResourceID:    payment.ID,
		StayID:        payment.StayID,
		Metadata:      payload,
		PayloadDigest: audit.DigestJSON(payload),
		IP:            audit.ClientIP(r),
		UserAgent:     r.UserAgent(),
	})
}
