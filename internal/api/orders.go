package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"restaurant-pos/internal/engine"
	"restaurant-pos/internal/models"
)

type cartResponse struct {
	ID    string            `json:"id"`
	Items []models.LineItem `json:"items"`
	engine.Totals
}

type addCartItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
}

type updateCartItemRequest struct {
	Quantity *int    `json:"quantity,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

type placeOrderRequest struct {
	CartID     string               `json:"cart_id"`
	DiningMode models.DiningMode    `json:"dining_mode"`
	TableID    string               `json:"table_id,omitempty"`
	Delivery   *models.DeliveryInfo `json:"delivery,omitempty"`
	Server     string               `json:"server,omitempty"`
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

type assignDriverRequest struct {
	DriverID string `json:"driver_id"`
}

type paymentResponse struct {
	Order       models.Order       `json:"order"`
	Transaction models.Transaction `json:"transaction"`
}

type assignmentResponse struct {
	Order  models.Order  `json:"order"`
	Driver models.Driver `json:"driver"`
}

func newCartResponse(id string, c *engine.Cart) cartResponse {
	return cartResponse{ID: id, Items: c.Lines(), Totals: c.Totals()}
}

func (s *Server) createCart(w http.ResponseWriter, r *http.Request) {
	id, cart := s.engine.Carts().Create()
	s.writeJSON(w, r, http.StatusCreated, newCartResponse(id, cart))
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cart, err := s.engine.Carts().Get(id)
	if err != nil {
		s.writeError(w, r, "get_cart", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, newCartResponse(id, cart))
}

func (s *Server) deleteCart(w http.ResponseWriter, r *http.Request) {
	s.engine.Carts().Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cart, err := s.engine.Carts().Get(id)
	if err != nil {
		s.writeError(w, r, "add_cart_item", err)
		return
	}
	var req addCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, "add_cart_item", err)
		return
	}
	if err := s.engine.AddToCart(r.Context(), cart, req.MenuItemID); err != nil {
		s.writeError(w, r, "add_cart_item", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, newCartResponse(id, cart))
}

func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")
	cart, err := s.engine.Carts().Get(id)
	if err != nil {
		s.writeError(w, r, "update_cart_item", err)
		return
	}
	var req updateCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, "update_cart_item", err)
		return
	}
	if req.Notes != nil {
		if err := cart.SetNotes(itemID, *req.Notes); err != nil {
			s.writeError(w, r, "update_cart_item", err)
			return
		}
	}
	if req.Quantity != nil {
		if err := cart.SetQuantity(itemID, *req.Quantity); err != nil {
			s.writeError(w, r, "update_cart_item", err)
			return
		}
	}
	s.writeJSON(w, r, http.StatusOK, newCartResponse(id, cart))
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cart, err := s.engine.Carts().Get(id)
	if err != nil {
		s.writeError(w, r, "remove_cart_item", err)
		return
	}
	cart.RemoveItem(chi.URLParam(r, "itemID"))
	s.writeJSON(w, r, http.StatusOK, newCartResponse(id, cart))
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, "place_order", err)
		return
	}
	cart, err := s.engine.Carts().Get(req.CartID)
	if err != nil {
		s.writeError(w, r, "place_order", err)
		return
	}
	order, err := s.engine.PlaceOrder(r.Context(), engine.PlaceOrderRequest{
		Cart:       cart,
		DiningMode: req.DiningMode,
		TableID:    req.TableID,
		Delivery:   req.Delivery,
		Server:     req.Server,
	})
	if err != nil {
		s.writeError(w, r, "place_order", err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, order)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orders, err := s.engine.ListOrders(r.Context(), engine.OrderFilter{
		Status:     models.OrderStatus(q.Get("status")),
		TableID:    q.Get("table_id"),
		DiningMode: models.DiningMode(q.Get("dining_mode")),
	})
	if err != nil {
		s.writeError(w, r, "list_orders", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, orEmpty(orders))
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.engine.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, "get_order", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, order)
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, "update_order_status", err)
		return
	}
	order, err := s.engine.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.writeError(w, r, "update_order_status", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, order)
}

func (s *Server) recordPayment(w http.ResponseWriter, r *http.Request) {
	var in models.TransactionInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, "record_payment", err)
		return
	}
	order, tx, err := s.engine.RecordPayment(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, "record_payment", err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, paymentResponse{Order: order, Transaction: tx})
}

func (s *Server) assignDriver(w http.ResponseWriter, r *http.Request) {
	var req assignDriverRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, "assign_driver", err)
		return
	}
	driver, order, err := s.engine.AssignDriver(r.Context(), chi.URLParam(r, "id"), req.DriverID)
	if err != nil {
		s.writeError(w, r, "assign_driver", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, assignmentResponse{Order: order, Driver: driver})
}

func (s *Server) kitchenQueue(w http.ResponseWriter, r *http.Request) {
	orders, err := s.engine.KitchenQueue(r.Context())
	if err != nil {
		s.writeError(w, r, "kitchen_queue", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, orEmpty(orders))
}
