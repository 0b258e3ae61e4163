package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"restaurant-pos/internal/engine"
	"restaurant-pos/internal/models"
)

func (s *Server) listMenuItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.engine.SearchMenuItems(r.Context(), q.Get("q"), q.Get("category"))
	if err != nil {
		s.writeError(w, r, "list_menu_items", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, orEmpty(items))
}

func (s *Server) getMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.engine.GetMenuItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, "get_menu_item", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, item)
}

func (s *Server) createMenuItem(w http.ResponseWriter, r *http.Request) {
	var item models.MenuItem
	if err := decodeJSON(r, &item); err != nil {
		s.writeError(w, r, "create_menu_item", err)
		return
	}
	created, err := s.engine.CreateMenuItem(r.Context(), item)
	if err != nil {
		s.writeError(w, r, "create_menu_item", err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	var patch engine.MenuItemPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, r, "update_menu_item", err)
		return
	}
	item, err := s.engine.UpdateMenuItem(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, r, "update_menu_item", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, item)
}

func (s *Server) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteMenuItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, "delete_menu_item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.engine.ListCategories(r.Context())
	if err != nil {
		s.writeError(w, r, "list_categories", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, categories)
}

// orEmpty keeps empty lists encoding as [] instead of null
func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
