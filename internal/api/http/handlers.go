package apihttp

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// ServeHTTP handles GET /healthz.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h != nil && h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			http.Error(w, "db unreachable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// SummaryHandler serves the period billing summary with direct SQL,
// bypassing the aggregates for read-only dashboard numbers.
type SummaryHandler struct {
	db *sql.DB
}

// NewSummaryHandler constructs a SummaryHandler.
func NewSummaryHandler(db *sql.DB) *SummaryHandler {
	return &SummaryHandler{db: db}
}

// ServeHTTP handles GET /api/v1/summary.
func (h *SummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.db == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	periodKey, year, err := parseSummaryPeriod(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := querySummary(r.Context(), h.db, periodKey, year)
	if err != nil {
		http.Error(w, "query summary error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
}

// ExportPaymentsCSVHandler serves period payment CSV exports.
type ExportPaymentsCSVHandler struct {
	db *sql.DB
}

// NewExportPaymentsCSVHandler constructs a ExportPaymentsCSVHandler.
func NewExportPaymentsCSVHandler(db *sql.DB) *ExportPaymentsCSVHandler {
	return &ExportPaymentsCSVHandler{db: db}
}

// ServeHTTP handles GET /api/v1/exports/payments.csv.
func (h *ExportPaymentsCSVHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.db == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	periodKey, _, err := parseSummaryPeriod(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if periodKey == "" {
		http.Error(w, "month and year are required", http.StatusBadRequest)
		return
	}

	rows, err := queryPaymentRows(r.Context(), h.db, periodKey)
	if err != nil {
		http.Error(w, "query payments error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"payment_id",
		"stay_id",
		"admin_id",
		"water_amount",
		"ele_amount",
		"other_payment",
		"room_price",
		"payment_total",
		"payment_date",
		"payment_status",
		"version",
	})
	for _, row := range rows {
		_ = writer.Write([]string{
			row.PaymentID,
			row.StayID,
			row.AdminID,
			row.WaterAmount,
			row.EleAmount,
			row.OtherPayment,
			row.RoomPrice,
			row.PaymentTotal,
			row.PaymentDate.Format("2006-01-02"),
			row.PaymentStatus,
			strconv.Itoa(row.Version),
		})
	}
	writer.Flush()
}

type periodSummary struct {
	Year          int    `json:"year"`
	Month         int    `json:"month,omitempty"`
	UnpaidCount   int    `json:"unpaid_count"`
	ProcessingCnt int    `json:"processing_count"`
	PaidCount     int    `json:"paid_count"`
	BilledTotal   string `json:"billed_total"`
	IncomeTotal   string `json:"income_total"`
	ExpenseTotal  string `json:"expense_total"`
}

type paymentRow struct {
	PaymentID     string
	StayID        string
	AdminID       string
	WaterAmount   string
	EleAmount     string
	OtherPayment  string
	RoomPrice     string
	PaymentTotal  string
	PaymentDate   time.Time
	PaymentStatus string
	Version       int
}

func querySummary(ctx context.Context, db *sql.DB, periodKey string, year int) (periodSummary, error) {
	summary := periodSummary{Year: year}
	if periodKey != "" {
		month, err := strconv.Atoi(periodKey[4:])
		if err == nil {
			summary.Month = month
		}
	}

	err := db.QueryRowContext(ctx, `
SELECT
	COUNT(*) FILTER (WHERE payment_status = 'unpaid'),
	COUNT(*) FILTER (WHERE payment_status = 'processing'),
	COUNT(*) FILTER (WHERE payment_status = 'paid'),
	COALESCE(SUM(payment_total), 0)
FROM payments
WHERE $1 = '' OR period_key = $1`, periodKey).Scan(
		&summary.UnpaidCount,
		&summary.ProcessingCnt,
		&summary.PaidCount,
		&summary.BilledTotal,
	)
	if err != nil {
		return periodSummary{}, err
	}

	err = db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(income_amount), 0)
FROM incomes
WHERE $1 = 0 OR EXTRACT(YEAR FROM income_date) = $1`, year).Scan(&summary.IncomeTotal)
	if err != nil {
		return periodSummary{}, err
	}

	err = db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(expense_price), 0)
FROM expenses
WHERE $1 = 0 OR EXTRACT(YEAR FROM expense_date) = $1`, year).Scan(&summary.ExpenseTotal)
	if err != nil {
		return periodSummary{}, err
	}

	return summary, nil
}

func queryPaymentRows(ctx context.Context, db *sql.DB, periodKey string) ([]paymentRow, error) {
	rows, err := db.QueryContext(ctx, `
SELECT
	payment_id,
	stay_id,
	admin_id,
	water_amount,
	ele_amount,
	other_payment,
	room_price,
	payment_total,
	payment_date,
	payment_status,
	version
FROM payments
WHERE period_key = $1
ORDER BY payment_date ASC, payment_id`, periodKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []paymentRow
	for rows.Next() {
		var row paymentRow
		if err := rows.Scan(
			&row.PaymentID,
			&row.StayID,
			&row.AdminID,
			&row.WaterAmount,
			&row.EleAmount,
			&row.OtherPayment,
			&row.RoomPrice,
			&row.PaymentTotal,
			&row.PaymentDate,
			&row.PaymentStatus,
			&row.Version,
		); err != nil {
			return nil, err
		}
		row.PaymentDate = row.PaymentDate.UTC()
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func parseSummaryPeriod(r *http.Request) (string, int, error) {
	yearValue := r.URL.Query().Get("year")
	monthValue := r.URL.Query().Get("month")
	if yearValue == "" {
		return "", 0, nil
	}
	year, err := strconv.Atoi(yearValue)
	if err != nil || year < 1 {
		return "", 0, errors.New("year must be a positive integer")
	}
	if monthValue == "" {
		return "", year, nil
	}
	month, err := strconv.Atoi(monthValue)
	if err != nil || month < 1 || month > 12 {
		return "", 0, errors.New("month must be 1..12")
	}
	periodKey := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("200601")
	return periodKey, year, nil
}
