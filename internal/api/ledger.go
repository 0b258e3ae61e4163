package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"restaurant-pos/internal/engine"
	"restaurant-pos/internal/models"
)

type loginRequest struct {
	Email string `json:"email"`
	PIN   string `json:"pin"`
}

func queryRange(r *http.Request) (engine.Range, error) {
	from, err := queryTime(r, "from", false)
	if err != nil {
		return engine.Range{}, err
	}
	to, err := queryTime(r, "to", true)
	if err != nil {
		return engine.Range{}, err
	}
	return engine.Range{From: from, To: to}, nil
}

// listTransactions filters by type and an optional time range
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	rng, err := queryRange(r)
	if err != nil {
		s.writeError(w, r, "list_transactions", err)
		return
	}
	txType := models.TransactionType(r.URL.Query().Get("type"))

	txs, err := s.engine.TransactionsByDateRange(r.Context(), rng)
	if err != nil {
		s.writeError(w, r, "list_transactions", err)
		return
	}
	out := txs[:0]
	for _, tx := range txs {
		if txType == "" || tx.Type == txType {
			out = append(out, tx)
		}
	}
	s.writeJSON(w, r, http.StatusOK, orEmpty(out))
}

func (s *Server) recordTransaction(w http.ResponseWriter, r *http.Request) {
	var in models.TransactionInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, "record_transaction", err)
		return
	}
	tx, err := s.engine.RecordTransaction(r.Context(), in)
	if err != nil {
		s.writeError(w, r, "record_transaction", err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, tx)
}

func (s *Server) aggregate(w http.ResponseWriter, r *http.Request) {
	rng, err := queryRange(r)
	if err != nil {
		s.writeError(w, r, "aggregate_transactions", err)
		return
	}
	agg, err := s.engine.Aggregate(r.Context(), rng, models.TransactionType(r.URL.Query().Get("type")))
	if err != nil {
		s.writeError(w, r, "aggregate_transactions", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, agg)
}

// salesReport takes inclusive start_date and end_date days
func (s *Server) salesReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := s.engine.SalesReport(r.Context(), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		s.writeError(w, r, "sales_report", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, report)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.engine.UsersByRole(r.Context(), models.Role(r.URL.Query().Get("role")))
	if err != nil {
		s.writeError(w, r, "list_users", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, orEmpty(users))
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.engine.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, "get_user", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, user)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var in engine.UserInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, "create_user", err)
		return
	}
	user, err := s.engine.CreateUser(r.Context(), in)
	if err != nil {
		s.writeError(w, r, "create_user", err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, user)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var patch engine.UserPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, r, "update_user", err)
		return
	}
	user, err := s.engine.UpdateUser(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, r, "update_user", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, user)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, "login", err)
		return
	}
	user, err := s.engine.Authenticate(r.Context(), req.Email, req.PIN)
	if err != nil {
		s.writeError(w, r, "login", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, user)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.engine.Dashboard(r.Context())
	if err != nil {
		s.writeError(w, r, "dashboard", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, d)
}
