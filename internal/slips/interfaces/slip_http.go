package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	"dorm-billing/internal/audit"
	"dorm-billing/internal/auth"
	"dorm-billing/internal/slips/application"
	slips "dorm-billing/internal/slips/domain"
)

// SlipHandler handles slip registry APIs.
type SlipHandler struct {
	service     *application.SlipService
	auditLogger audit.Logger
}

// NewSlipHandler constructs a handler.
func NewSlipHandler(service *application.SlipService, auditLogger audit.Logger) (*SlipHandler, error) {
	if service == nil {
		return nil, errors.New("slip handler: nil service")
	}
	return &SlipHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles slip routes under /api/v1/slips.
func (h *SlipHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/v1/slips" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodPost:
		h.handleAttach(w, r)
	case http.MethodGet:
		h.handleListLive(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *SlipHandler) handleAttach(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentID string `json:"payment_id"`
		UserID    string `json:"user_id"`
		SlipURL   string `json:"slip_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	uploaderID := req.UserID
	if uploaderID == "" {
		uploaderID = auth.ActorIDFromContext(r.Context())
	}
	slip, err := h.service.Attach(r.Context(), req.PaymentID, uploaderID, req.SlipURL)
	if err != nil {
		respondSlipError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(slipToResponse(*slip))
	h.logAudit(r, slip)
}

func (h *SlipHandler) handleListLive(w http.ResponseWriter, r *http.Request) {
	paymentID := r.URL.Query().Get("payment_id")
	live, err := h.service.ListLive(r.Context(), paymentID)
	if err != nil {
		respondSlipError(w, err)
		return
	}
	resp := make([]slipResponse, 0, len(live))
	for _, slip := range live {
		resp = append(resp, slipToResponse(slip))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type slipResponse struct {
	SlipID     string `json:"slip_id"`
	PaymentID  string `json:"payment_id"`
	StayID     string `json:"stay_id"`
	UserID     string `json:"user_id"`
	SlipURL    string `json:"slip_url"`
	UploadedAt string `json:"uploaded_at"`
}

func slipToResponse(slip slips.PaymentSlip) slipResponse {
	return slipResponse{
		SlipID:     slip.ID,
		PaymentID:  slip.PaymentID,
		StayID:     slip.StayID,
		UserID:     slip.UserID,
		SlipURL:    slip.SlipURL,
		UploadedAt: slip.UploadedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func respondSlipError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, slips.ErrPaymentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, slips.ErrEmptyPaymentID), errors.Is(err, slips.ErrEmptySlipURL):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *SlipHandler) logAudit(r *http.Request, slip *slips.PaymentSlip) {
	if h.auditLogger == nil || slip == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{"slip_url": slip.SlipURL})
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		ID:            audit.NewID(),
		ActorID:       auth.ActorIDFromContext(r.Context()),
		Role:          string(auth.RoleFromContext(r.Context())),
		Action:        "slip.attach",
		ResourceType:  "slip",
		ResourceID:    slip.ID,
		StayID:        slip.StayID,
		Metadata:      payload,
		PayloadDigest: audit.DigestJSON(payload),
		IP:            audit.ClientIP(r),
		UserAgent:     r.UserAgent(),
	})
}
