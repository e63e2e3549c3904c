package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	rates "dorm-billing/internal/rates/domain"
)

// BillTypeHandler serves the rate catalog.
type BillTypeHandler struct {
	repo rates.Repository
}

// NewBillTypeHandler constructs a handler.
func NewBillTypeHandler(repo rates.Repository) (*BillTypeHandler, error) {
	if repo == nil {
		return nil, errors.New("billtype handler: nil repo")
	}
	return &BillTypeHandler{repo: repo}, nil
}

type billTypeResponse struct {
	BillTypeID int    `json:"billtype_id"`
	BillType   string `json:"bill_type"`
	UnitPrice  string `json:"billtype_price"`
}

// ServeHTTP handles GET /api/v1/billtypes.
func (h *BillTypeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	types, err := h.repo.List(r.Context())
	if err != nil {
		http.Error(w, "list bill types error", http.StatusInternalServerError)
		return
	}
	resp := make([]billTypeResponse, 0, len(types))
	for _, bt := range types {
		resp = append(resp, billTypeResponse{
			BillTypeID: bt.ID,
			BillType:   bt.Name,
			UnitPrice:  bt.UnitPrice.String(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
