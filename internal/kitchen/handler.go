package kitchen

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

// BoardResponse is the JSON view of a station's board
type BoardResponse struct {
	Station models.Station `json:"station"`
	Tickets []Ticket       `json:"tickets"`
}

// Handler handles HTTP requests for the kitchen display
type Handler struct {
	board     *Board
	logger    *logger.Logger
	extraGets map[string]http.Handler
}

// NewHandler creates a new kitchen display handler. extra routes, such as
// /metrics, are mounted as GET endpoints.
func NewHandler(board *Board, log *logger.Logger, extra map[string]http.Handler) *Handler {
	return &Handler{board: board, logger: log, extraGets: extra}
}

// Routes builds the router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/board", h.GetBoard)
	r.Get("/health", h.HealthCheck)
	for path, handler := range h.extraGets {
		r.Method(http.MethodGet, path, handler)
	}
	return r
}

// GetBoard handles GET /board requests
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, BoardResponse{Station: h.board.Station(), Tickets: h.board.Tickets()})
}

// HealthCheck handles GET /health requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	station := h.board.Station()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"service":      "kitchen-display",
		"station":      station.Name,
		"open_tickets": h.board.Len(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", "", err, nil)
	}
}
