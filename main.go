package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	apihttp "dorm-billing/internal/api/http"
	"dorm-billing/internal/audit"
	"dorm-billing/internal/auth"
	"dorm-billing/internal/billing/adapters/ratecat"
	"dorm-billing/internal/billing/adapters/stayreg"
	billingapp "dorm-billing/internal/billing/application"
	billingevents "dorm-billing/internal/billing/application/events"
	billingrepo "dorm-billing/internal/billing/infrastructure/postgres"
	billinginterfaces "dorm-billing/internal/billing/interfaces"
	"dorm-billing/internal/eventing"
	eventingrepo "dorm-billing/internal/eventing/infrastructure/postgres"
	financeapp "dorm-billing/internal/finance/application"
	financerepo "dorm-billing/internal/finance/infrastructure/postgres"
	financeinterfaces "dorm-billing/internal/finance/interfaces"
	"dorm-billing/internal/observability/metrics"
	ratesrepo "dorm-billing/internal/rates/infrastructure/postgres"
	ratesinterfaces "dorm-billing/internal/rates/interfaces"
	"dorm-billing/internal/slips/adapters/ledger"
	slipsapp "dorm-billing/internal/slips/application"
	"dorm-billing/internal/slips/infrastructure/blob"
	slipsrepo "dorm-billing/internal/slips/infrastructure/postgres"
	slipsinterfaces "dorm-billing/internal/slips/interfaces"
	staysrepo "dorm-billing/internal/stays/infrastructure/postgres"
	staysinterfaces "dorm-billing/internal/stays/interfaces"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	registry := eventing.NewRegistry()
	registry.Register(billingevents.PaymentSettled{})

	baseBus := eventing.NewInMemoryBus()
	outboxStore := eventingrepo.NewOutboxStore(db)
	processedStore := eventingrepo.NewProcessedStore(db)
	dispatcher := eventing.NewDispatcher(baseBus, outboxStore, registry)

	paymentRepo := billingrepo.NewPaymentRepository(db, billingrepo.WithOutbox(outboxStore))
	stayRepo := staysrepo.NewStayRepository(db)
	billTypeRepo := ratesrepo.NewBillTypeRepository(db)
	slipRepo := slipsrepo.NewSlipRepository(db)
	incomeRepo := financerepo.NewIncomeRepository(db)
	expenseRepo := financerepo.NewExpenseRepository(db)

	stayReader, err := stayreg.NewReader(stayRepo)
	if err != nil {
		logger.Fatalf("stay reader error: %v", err)
	}
	rateSource, err := ratecat.NewSource(billTypeRepo)
	if err != nil {
		logger.Fatalf("rate source error: %v", err)
	}

	financeService, err := financeapp.NewFinanceService(incomeRepo, expenseRepo)
	if err != nil {
		logger.Fatalf("finance service error: %v", err)
	}
	paymentService, err := billingapp.NewPaymentService(paymentRepo, stayReader, rateSource, paymentRepo,
		billingapp.WithDispatchTrigger(dispatcher),
		billingapp.WithDerivedIncomeRemover(financeService))
	if err != nil {
		logger.Fatalf("payment service error: %v", err)
	}

	prober := blob.NewHTTPProber(blob.WithHTTPClient(&http.Client{Timeout: cfg.SlipProbeTimeout}))
	paymentResolver, err := ledger.NewResolver(paymentRepo)
	if err != nil {
		logger.Fatalf("payment resolver error: %v", err)
	}
	slipService, err := slipsapp.NewSlipService(slipRepo, paymentResolver, prober,
		slipsapp.WithProbeFanOut(cfg.SlipProbeFanOut),
		slipsapp.WithProbeTimeout(cfg.SlipProbeTimeout))
	if err != nil {
		logger.Fatalf("slip service error: %v", err)
	}

	settledConsumer, err := financeapp.NewSettledConsumer(incomeRepo, logger)
	if err != nil {
		logger.Fatalf("settled consumer error: %v", err)
	}
	settledConsumer.Register(baseBus, processedStore)

	paymentHandler, err := billinginterfaces.NewPaymentHandler(paymentService, auditRepo)
	if err != nil {
		logger.Fatalf("payment handler error: %v", err)
	}
	slipHandler, err := slipsinterfaces.NewSlipHandler(slipService, auditRepo)
	if err != nil {
		logger.Fatalf("slip handler error: %v", err)
	}
	financeHandler, err := financeinterfaces.NewFinanceHandler(financeService, auditRepo)
	if err != nil {
		logger.Fatalf("finance handler error: %v", err)
	}
	stayHandler, err := staysinterfaces.NewStayHandler(stayRepo)
	if err != nil {
		logger.Fatalf("stay handler error: %v", err)
	}
	billTypeHandler, err := ratesinterfaces.NewBillTypeHandler(billTypeRepo)
	if err != nil {
		logger.Fatalf("bill type handler error: %v", err)
	}

	// Sweeps outbox rows a crashed dispatch left behind.
	go func() {
		ticker := time.NewTicker(cfg.OutboxSweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			if err := dispatcher.Dispatch(context.Background(), cfg.OutboxSweepBatch); err != nil {
				logger.Printf("outbox sweep error: %v", err)
			}
		}
	}()

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/payments", paymentHandler)
	mux.Handle("/api/v1/payments/", paymentHandler)
	mux.Handle("/api/v1/slips", slipHandler)
	mux.Handle("/api/v1/incomes", financeHandler)
	mux.Handle("/api/v1/incomes/", financeHandler)
	mux.Handle("/api/v1/expenses", financeHandler)
	mux.Handle("/api/v1/expenses/", financeHandler)
	mux.Handle("/api/v1/finance/", financeHandler)
	mux.Handle("/api/v1/stays", stayHandler)
	mux.Handle("/api/v1/stays/", stayHandler)
	mux.Handle("/api/v1/billtypes", billTypeHandler)
	mux.Handle("/api/v1/billtypes/", billTypeHandler)
	mux.Handle("/api/v1/summary", apihttp.NewSummaryHandler(db))
	mux.Handle("/api/v1/exports/payments.csv", apihttp.NewExportPaymentsCSVHandler(db))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", apihttp.NewHealthHandler(db))

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL         string        `yaml:"database_url"`
	HTTPAddr            string        `yaml:"http_addr"`
	JWTSecret           string        `yaml:"jwt_secret"`
	SlipProbeFanOut     int           `yaml:"slip_probe_fanout"`
	SlipProbeTimeout    time.Duration `yaml:"slip_probe_timeout"`
	OutboxSweepInterval time.Duration `yaml:"outbox_sweep_interval"`
	OutboxSweepBatch    int           `yaml:"outbox_sweep_batch"`
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:         getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:            getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:           getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		SlipProbeFanOut:     getenvIntDefault("SLIP_PROBE_FANOUT", 4),
		SlipProbeTimeout:    getenvDuration("SLIP_PROBE_TIMEOUT", 3*time.Second),
		OutboxSweepInterval: getenvDuration("OUTBOX_SWEEP_INTERVAL", time.Minute),
		OutboxSweepBatch:    getenvIntDefault("OUTBOX_SWEEP_BATCH", 100),
	}
	if path := os.Getenv("BILLING_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("config read error: %v", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("config parse error: %v", err)
		}
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
