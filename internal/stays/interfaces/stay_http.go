package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	stays "dorm-billing/internal/stays/domain"
)

// StayHandler serves read-only stay listings for billing forms.
type StayHandler struct {
	repo stays.Repository
}

// NewStayHandler constructs a handler.
func NewStayHandler(repo stays.Repository) (*StayHandler, error) {
	if repo == nil {
		return nil, errors.New("stay handler: nil repo")
	}
	return &StayHandler{repo: repo}, nil
}

type stayResponse struct {
	StayID    string  `json:"stay_id"`
	UserID    string  `json:"user_id"`
	UserName  string  `json:"user_name"`
	RoomID    string  `json:"room_id"`
	RoomNum   string  `json:"room_num"`
	RoomPrice string  `json:"room_price"`
	StayDate  string  `json:"stay_date"`
	DateOut   *string `json:"stay_dateout"`
	Status    string  `json:"stay_status"`
}

// ServeHTTP handles GET /api/v1/stays.
func (h *StayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	list, err := h.repo.ListOccupied(r.Context())
	if err != nil {
		http.Error(w, "list stays error", http.StatusInternalServerError)
		return
	}
	resp := make([]stayResponse, 0, len(list))
	for _, stay := range list {
		item := stayResponse{
			StayID:    stay.ID,
			UserID:    stay.UserID,
			UserName:  stay.UserName,
			RoomID:    stay.RoomID,
			RoomNum:   stay.RoomNum,
			RoomPrice: stay.RoomPrice.String(),
			StayDate:  stay.StayDate.Format("2006-01-02"),
			Status:    string(stay.Status),
		}
		if stay.DateOut != nil {
			out := stay.DateOut.Format("2006-01-02")
			item.DateOut = &out
		}
		resp = append(resp, item)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
