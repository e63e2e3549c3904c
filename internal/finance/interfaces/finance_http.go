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
	"dorm-billing/internal/finance/application"
	finance "dorm-billing/internal/finance/domain"
	"dorm-billing/internal/observability/metrics"
)

// FinanceHandler handles ledger and aggregation APIs.
type FinanceHandler struct {
	service     *application.FinanceService
	auditLogger audit.Logger
}

// NewFinanceHandler constructs a handler.
func NewFinanceHandler(service *application.FinanceService, auditLogger audit.Logger) (*FinanceHandler, error) {
	if service == nil {
		return nil, errors.New("finance handler: nil service")
	}
	return &FinanceHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles routes under /api/v1/incomes, /api/v1/expenses and
// /api/v1/finance.
func (h *FinanceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/incomes":
		switch r.Method {
		case http.MethodPost:
			h.handleRecordIncome(w, r)
		case http.MethodGet:
			h.handleListIncomes(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(path, "/api/v1/incomes/"):
		if r.Method == http.MethodDelete {
			h.handleDeleteIncome(w, r, strings.TrimPrefix(path, "/api/v1/incomes/"))
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
	case path == "/api/v1/expenses":
		switch r.Method {
		case http.MethodPost:
			h.handleRecordExpense(w, r)
		case http.MethodGet:
			h.handleListExpenses(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(path, "/api/v1/expenses/"):
		if r.Method == http.MethodDelete {
			h.handleDeleteExpense(w, r, strings.TrimPrefix(path, "/api/v1/expenses/"))
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
	case path == "/api/v1/finance/chart" && r.Method == http.MethodGet:
		h.handleChart(w, r)
	case path == "/api/v1/finance/balance" && r.Method == http.MethodGet:
		h.handleBalance(w, r)
	case path == "/api/v1/finance/chart.xlsx" && r.Method == http.MethodGet:
		h.handleChartXLSX(w, r)
	case path == "/api/v1/finance/summary.pdf" && r.Method == http.MethodGet:
		h.handleSummaryPDF(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *FinanceHandler) handleRecordIncome(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IncomeType  string `json:"income_type"`
		Amount      string `json:"income_amount"`
		Date        string `json:"income_date"`
		Description string `json:"income_description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	amount, date, err := parseLedgerFields(req.Amount, req.Date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	income, err := h.service.RecordIncome(r.Context(), req.IncomeType, amount, date, req.Description)
	if err != nil {
		respondFinanceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(incomeToResponse(*income))
	h.logAudit(r, "income.record", "income", income.ID, map[string]any{
		"amount": income.Amount.String(),
	})
}

func (h *FinanceHandler) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.service.ListIncomes(r.Context(), year)
	if err != nil {
		respondFinanceError(w, err)
		return
	}
	resp := make([]incomeResponse, 0, len(list))
	for _, income := range list {
		resp = append(resp, incomeToResponse(income))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *FinanceHandler) handleDeleteIncome(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.DeleteIncome(r.Context(), id); err != nil {
		respondFinanceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, "income.delete", "income", id, nil)
}

func (h *FinanceHandler) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExpenseType string `json:"expense_type"`
		Amount      string `json:"expense_price"`
		Date        string `json:"expense_date"`
		Description string `json:"expense_description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	amount, date, err := parseLedgerFields(req.Amount, req.Date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	expense, err := h.service.RecordExpense(r.Context(), req.ExpenseType, amount, date, req.Description)
	if err != nil {
		respondFinanceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(expenseToResponse(*expense))
	h.logAudit(r, "expense.record", "expense", expense.ID, map[string]any{
		"amount": expense.Amount.String(),
		"type":   expense.Type,
	})
}

func (h *FinanceHandler) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.service.ListExpenses(r.Context(), year)
	if err != nil {
		respondFinanceError(w, err)
		return
	}
	resp := make([]expenseResponse, 0, len(list))
	for _, expense := range list {
		resp = append(resp, expenseToResponse(expense))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *FinanceHandler) handleDeleteExpense(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.DeleteExpense(r.Context(), id); err != nil {
		respondFinanceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, "expense.delete", "expense", id, nil)
}

func (h *FinanceHandler) handleChart(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	chart, err := h.service.MonthlyChart(r.Context(), year)
	if err != nil {
		respondFinanceError(w, err)
		return
	}
	resp := make([]map[string]string, 0, len(chart))
	for _, bucket := range chart {
		resp = append(resp, map[string]string{
			"month":   strconv.Itoa(int(bucket.Month)),
			"income":  bucket.Income.String(),
			"expense": bucket.Expense.String(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *FinanceHandler) handleBalance(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	balance, err := h.service.YearEndBalance(r.Context(), year)
	if err != nil {
		respondFinanceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"year":    strconv.Itoa(year),
		"balance": balance.String(),
	})
}

func (h *FinanceHandler) handleChartXLSX(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveFinanceExport("xlsx", result, time.Since(start))
	}()

	year, err := parseYear(r)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	chart, err := h.service.MonthlyChart(r.Context(), year)
	if err != nil {
		result = metrics.ResultError
		respondFinanceError(w, err)
		return
	}
	data, err := BuildChartXLSX(year, chart)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *FinanceHandler) handleSummaryPDF(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveFinanceExport("pdf", result, time.Since(start))
	}()

	year, err := parseYear(r)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	chart, err := h.service.MonthlyChart(r.Context(), year)
	if err != nil {
		result = metrics.ResultError
		respondFinanceError(w, err)
		return
	}
	balance, err := h.service.YearEndBalance(r.Context(), year)
	if err != nil {
		result = metrics.ResultError
		respondFinanceError(w, err)
		return
	}
	data, err := BuildSummaryPDF(year, chart, balance)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export pdf error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func parseYear(r *http.Request) (int, error) {
	value := r.URL.Query().Get("year")
	if value == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(value)
	if err != nil || year < 0 {
		return 0, errors.New("year must be a non-negative integer")
	}
	return year, nil
}

func parseLedgerFields(amount, date string) (decimal.Decimal, time.Time, error) {
	if amount == "" {
		return decimal.Decimal{}, time.Time{}, errors.New("amount is required")
	}
	parsedAmount, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, errors.New("amount must be a decimal string")
	}
	var parsedDate time.Time
	if date != "" {
		parsedDate, err = time.Parse("2006-01-02", date)
		if err != nil {
			return decimal.Decimal{}, time.Time{}, errors.New("date must be YYYY-MM-DD")
		}
		parsedDate = parsedDate.UTC()
	}
	return parsedAmount, parsedDate, nil
}

type incomeResponse struct {
	IncomeID          string `json:"income_id"`
	IncomeType        string `json:"income_type"`
	IncomeAmount      string `json:"income_amount"`
	IncomeDate        string `json:"income_date"`
	IncomeDescription string `json:"income_description,omitempty"`
	PaymentID         string `json:"payment_id,omitempty"`
}

func incomeToResponse(income finance.Income) incomeResponse {
	return incomeResponse{
		IncomeID:          income.ID,
		IncomeType:        string(income.Type),
		IncomeAmount:      income.Amount.String(),
		IncomeDate:        income.Date.Format("2006-01-02"),
		IncomeDescription: income.Description,
		PaymentID:         income.PaymentID,
	}
}

type expenseResponse struct {
	ExpenseID          string `json:"expense_id"`
	ExpenseType        string `json:"expense_type"`
	ExpensePrice       string `json:"expense_price"`
	ExpenseDate        string `json:"expense_date"`
	AdminID            string `json:"admin_id,omitempty"`
	ExpenseDescription string `json:"expense_description,omitempty"`
}

func expenseToResponse(expense finance.Expense) expenseResponse {
	return expenseResponse{
		ExpenseID:          expense.ID,
		ExpenseType:        expense.Type,
		ExpensePrice:       expense.Amount.String(),
		ExpenseDate:        expense.Date.Format("2006-01-02"),
		AdminID:            expense.AdminID,
		ExpenseDescription: expense.Description,
	}
}

func respondFinanceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, finance.ErrIncomeNotFound), errors.Is(err, finance.ErrExpenseNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, finance.ErrInvalidAmount), errors.Is(err, finance.ErrInvalidType), errors.Is(err, finance.ErrEmptyID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *FinanceHandler) logAudit(r *http.Request, action, resourceType, resourceID string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		ID:            audit.NewID(),
		ActorID:       auth.ActorIDFromContext(r.Context()),
		Role:          string(auth.RoleFromContext(r.Context())),
		Action:        action,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		Metadata:      payload,
		PayloadDigest: audit.DigestJSON(payload),
		IP:            audit.ClientIP(r),
		UserAgent:     r.UserAgent(),
	})
}
