package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"restaurant-pos/internal/engine"
	"restaurant-pos/internal/models"
)

type dutyRequest struct {
	OnDuty bool `json:"on_duty"`
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.engine.ListTables(r.Context(), models.Section(r.URL.Query().Get("section")))
	if err != nil {
		s.writeError(w, r, "list_tables", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, orEmpty(tables))
}

func (s *Server) getTable(w http.ResponseWriter, r *http.Request) {
	table, err := s.engine.GetTable(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, "get_table", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, table)
}

func (s *Server) createTable(w http.ResponseWriter, r *http.Request) {
	var table models.Table
	if err := decodeJSON(r, &table); err != nil {
		s.writeError(w, r, "create_table", err)
		return
	}
	created, err := s.engine.CreateTable(r.Context(), table)
	if err != nil {
		s.writeError(w, r, "create_table", err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) setTableStatus(w http.ResponseWriter, r *http.Request) {
	var req engine.TableStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, "set_table_status", err)
		return
	}
	table, err := s.engine.SetTableStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeError(w, r, "set_table_status", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, table)
}

func (s *Server) listDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := s.engine.ListDrivers(r.Context())
	if err != nil {
		s.writeError(w, r, "list_drivers", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, orEmpty(drivers))
}

func (s *Server) availableDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := s.engine.AvailableDrivers(r.Context())
	if err != nil {
		s.writeError(w, r, "available_drivers", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, orEmpty(drivers))
}

func (s *Server) getDriver(w http.ResponseWriter, r *http.Request) {
	driver, err := s.engine.GetDriver(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, "get_driver", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, driver)
}

func (s *Server) createDriver(w http.ResponseWriter, r *http.Request) {
	var driver models.Driver
	if err := decodeJSON(r, &driver); err != nil {
		s.writeError(w, r, "create_driver", err)
		return
	}
	created, err := s.engine.CreateDriver(r.Context(), driver)
	if err != nil {
		s.writeError(w, r, "create_driver", err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) completeDelivery(w http.ResponseWriter, r *http.Request) {
	driver, err := s.engine.CompleteDelivery(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, "complete_delivery", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, driver)
}

func (s *Server) setDriverDuty(w http.ResponseWriter, r *http.Request) {
	var req dutyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, "set_driver_duty", err)
		return
	}
	driver, err := s.engine.SetDriverDuty(r.Context(), chi.URLParam(r, "id"), req.OnDuty)
	if err != nil {
		s.writeError(w, r, "set_driver_duty", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, driver)
}

func (s *Server) listReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := s.engine.ReservationsByDate(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, r, "list_reservations", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, orEmpty(reservations))
}

func (s *Server) getReservation(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.GetReservation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, "get_reservation", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) createReservation(w http.ResponseWriter, r *http.Request) {
	var res models.Reservation
	if err := decodeJSON(r, &res); err != nil {
		s.writeError(w, r, "create_reservation", err)
		return
	}
	created, err := s.engine.CreateReservation(r.Context(), res)
	if err != nil {
		s.writeError(w, r, "create_reservation", err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) updateReservation(w http.ResponseWriter, r *http.Request) {
	var patch engine.ReservationPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, r, "update_reservation", err)
		return
	}
	res, err := s.engine.UpdateReservation(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, r, "update_reservation", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) cancelReservation(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.CancelReservation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, "cancel_reservation", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) completeReservation(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.CompleteReservation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, "complete_reservation", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) availableTables(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	duration, err := queryInt(r, "duration", engine.DefaultReservationDuration)
	if err != nil {
		s.writeError(w, r, "available_tables", err)
		return
	}
	partySize, err := queryInt(r, "party_size", engine.DefaultPartySize)
	if err != nil {
		s.writeError(w, r, "available_tables", err)
		return
	}
	tables, err := s.engine.AvailableTables(r.Context(), q.Get("date"), q.Get("time"), duration, partySize)
	if err != nil {
		s.writeError(w, r, "available_tables", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, orEmpty(tables))
}
