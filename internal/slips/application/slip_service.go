package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"dorm-billing/internal/observability/metrics"
	slips "dorm-billing/internal/slips/domain"
)

const (
	defaultProbeFanOut  = 4
	defaultProbeTimeout = 3 * time.Second
)

// BlobStore answers whether a blob reference still resolves.
type BlobStore interface {
	Exists(ctx context.Context, ref string) (bool, error)
}

// PaymentInfo is the payment identity a slip attaches to.
type PaymentInfo struct {
	ID     string
	StayID string
}

// PaymentResolver resolves payments from the ledger.
type PaymentResolver interface {
	ResolvePayment(ctx context.Context, paymentID string) (PaymentInfo, error)
}

// SlipService handles the slip registry workflows.
type SlipService struct {
	repo         slips.Repository
	payments     PaymentResolver
	blobs        BlobStore
	fanOut       int
	probeTimeout time.Duration
	now          func() time.Time
	newID        func() string
}

// SlipOption customizes the service.
type SlipOption func(*SlipService)

// WithProbeFanOut bounds concurrent blob probes.
func WithProbeFanOut(fanOut int) SlipOption {
	return func(s *SlipService) {
		if fanOut > 0 {
			s.fanOut = fanOut
		}
	}
}

// WithProbeTimeout bounds each individual probe.
func WithProbeTimeout(timeout time.Duration) SlipOption {
	return func(s *SlipService) {
		if timeout > 0 {
			s.probeTimeout = timeout
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) SlipOption {
	return func(s *SlipService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides slip id generation.
func WithIDGenerator(gen func() string) SlipOption {
	return func(s *SlipService) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewSlipService constructs a service.
func NewSlipService(repo slips.Repository, payments PaymentResolver, blobs BlobStore, opts ...SlipOption) (*SlipService, error) {
	if repo == nil {
		return nil, errors.New("slip service: nil repo")
	}
	if payments == nil {
		return nil, errors.New("slip service: nil payment resolver")
	}
	if blobs == nil {
		return nil, errors.New("slip service: nil blob store")
	}
	s := &SlipService{
		repo:         repo,
		payments:     payments,
		blobs:        blobs,
		fanOut:       defaultProbeFanOut,
		probeTimeout: defaultProbeTimeout,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        func() string { return "slip-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Attach records a slip reference. The blob is not probed here; an
// unreachable store never blocks an upload confirmation.
func (s *SlipService) Attach(ctx context.Context, paymentID, uploaderID, slipURL string) (*slips.PaymentSlip, error) {
	if paymentID == "" {
		return nil, slips.ErrEmptyPaymentID
	}
	if slipURL == "" {
		return nil, slips.ErrEmptySlipURL
	}
	payment, err := s.payments.ResolvePayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	slip := &slips.PaymentSlip{
		ID:         s.newID(),
		PaymentID:  payment.ID,
		StayID:     payment.StayID,
		UserID:     uploaderID,
		SlipURL:    slipURL,
		UploadedAt: s.now(),
	}
	if err := s.repo.Create(ctx, slip); err != nil {
		return nil, err
	}
	return slip, nil
}

// ListLive returns the slips whose blobs still resolve. Each slip is
// probed with its own timeout; a failed probe drops that slip from the
// listing and nothing else. Stale records stay in the store.
func (s *SlipService) ListLive(ctx context.Context, paymentID string) ([]slips.PaymentSlip, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveSlipList(result, time.Since(start))
	}()

	if paymentID == "" {
		result = metrics.ResultError
		return nil, slips.ErrEmptyPaymentID
	}
	stored, err := s.repo.ListByPayment(ctx, paymentID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if len(stored) == 0 {
		return nil, nil
	}

	live := make([]bool, len(stored))
	sem := make(chan struct{}, s.fanOut)
	var wg sync.WaitGroup
	for i := range stored {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			live[i] = s.probe(ctx, stored[i].SlipURL)
		}(i)
	}
	wg.Wait()

	var resultSlips []slips.PaymentSlip
	for i, slip := range stored {
		if live[i] {
			resultSlips = append(resultSlips, slip)
		}
	}
	return resultSlips, nil
}

func (s *SlipService) probe(ctx context.Context, ref string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()
	ok, err := s.blobs.Exists(probeCtx, ref)
	switch {
	case err != nil:
		metrics.IncSlipProbe(metrics.ProbeError)
		return false
	case ok:
		metrics.IncSlipProbe(metrics.ProbePresent)
		return true
	default:
		metrics.IncSlipProbe(metrics.ProbeAbsent)
		return false
	}
}
