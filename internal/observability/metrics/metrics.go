package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "dormbill_"

	resultSuccess = "success"
	resultError   = "error"

	probeResultPresent = "present"
	probeResultAbsent  = "absent"
	probeResultError   = "error"
)

var (
	registerOnce sync.Once

	paymentCreateTotal   *prometheus.CounterVec
	paymentCreateLatency *prometheus.HistogramVec
	paymentStatusTotal   *prometheus.CounterVec
	paymentStatusLatency *prometheus.HistogramVec
	paymentDeleteTotal   *prometheus.CounterVec

	paymentExportTotal   *prometheus.CounterVec
	paymentExportLatency *prometheus.HistogramVec

	slipProbeTotal  *prometheus.CounterVec
	slipListLatency *prometheus.HistogramVec

	incomeDeriveTotal    *prometheus.CounterVec
	financeQueryTotal    *prometheus.CounterVec
	financeQueryLatency  *prometheus.HistogramVec
	financeExportTotal   *prometheus.CounterVec
	financeExportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		paymentCreateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "payment_create_total",
				Help: "Total payment create operations by result",
			},
			[]string{"result"},
		)
		paymentCreateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "payment_create_latency_seconds",
				Help:    "Payment create latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		paymentStatusTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "payment_status_total",
				Help: "Total payment status transitions by result",
			},
			[]string{"result"},
		)
		paymentStatusLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "payment_status_latency_seconds",
				Help:    "Payment status transition latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		paymentDeleteTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "payment_delete_total",
				Help: "Total payment delete operations by result",
			},
			[]string{"result"},
		)

		paymentExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "payment_export_total",
				Help: "Total payment export operations by format and result",
			},
			[]string{"format", "result"},
		)
		paymentExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "payment_export_latency_seconds",
				Help:    "Payment export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		slipProbeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "slip_probe_total",
				Help: "Total slip blob probes by outcome",
			},
			[]string{"outcome"},
		)
		slipListLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "slip_list_latency_seconds",
				Help:    "Live slip listing latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		incomeDeriveTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "income_derive_total",
				Help: "Total income derivations from settled payments by result",
			},
			[]string{"result"},
		)
		financeQueryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "finance_query_total",
				Help: "Total finance queries by query and result",
			},
			[]string{"query", "result"},
		)
		financeQueryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "finance_query_latency_seconds",
				Help:    "Finance query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"query", "result"},
		)
		financeExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "finance_export_total",
				Help: "Total finance export operations by format and result",
			},
			[]string{"format", "result"},
		)
		financeExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "finance_export_latency_seconds",
				Help:    "Finance export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			paymentCreateTotal,
			paymentCreateLatency,
			paymentStatusTotal,
			paymentStatusLatency,
			paymentDeleteTotal,
			paymentExportTotal,
			paymentExportLatency,
			slipProbeTotal,
			slipListLatency,
			incomeDeriveTotal,
			financeQueryTotal,
			financeQueryLatency,
			financeExportTotal,
			financeExportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObservePaymentCreate records payment creation duration and result.
func ObservePaymentCreate(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if paymentCreateTotal != nil {
		paymentCreateTotal.WithLabelValues(result).Inc()
	}
	if paymentCreateLatency != nil {
		paymentCreateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObservePaymentStatus records status transition duration and result.
func ObservePaymentStatus(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if paymentStatusTotal != nil {
		paymentStatusTotal.WithLabelValues(result).Inc()
	}
	if paymentStatusLatency != nil {
		paymentStatusLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncPaymentDelete increments the payment delete counter.
func IncPaymentDelete(result string) {
	if result == "" {
		result = resultSuccess
	}
	if paymentDeleteTotal != nil {
		paymentDeleteTotal.WithLabelValues(result).Inc()
	}
}

// ObservePaymentExport records export duration by format and result.
func ObservePaymentExport(format, result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if paymentExportTotal != nil {
		paymentExportTotal.WithLabelValues(format, result).Inc()
	}
	if paymentExportLatency != nil {
		paymentExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncSlipProbe increments the slip probe counter by outcome.
func IncSlipProbe(outcome string) {
	if outcome == "" {
		outcome = probeResultError
	}
	if slipProbeTotal != nil {
		slipProbeTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveSlipList records live slip listing duration and result.
func ObserveSlipList(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if slipListLatency != nil {
		slipListLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncIncomeDerive increments the income derivation counter.
func IncIncomeDerive(result string) {
	if result == "" {
		result = resultSuccess
	}
	if incomeDeriveTotal != nil {
		incomeDeriveTotal.WithLabelValues(result).Inc()
	}
}

// ObserveFinanceQuery records finance query duration and result.
func ObserveFinanceQuery(query, result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if financeQueryTotal != nil {
		financeQueryTotal.WithLabelValues(query, result).Inc()
	}
	if financeQueryLatency != nil {
		financeQueryLatency.WithLabelValues(query, result).Observe(duration.Seconds())
	}
}

// ObserveFinanceExport records finance export duration by format and result.
func ObserveFinanceExport(format, result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if financeExportTotal != nil {
		financeExportTotal.WithLabelValues(format, result).Inc()
	}
	if financeExportLatency != nil {
		financeExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported result label values.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	ProbePresent = probeResultPresent
	ProbeAbsent  = probeResultAbsent
	ProbeError   = probeResultError
)
