package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/fault"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/lifecycle"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
)

// handlePlaceOrder reconciles the buyer's cart against the store and
// creates the order; the cart is cleared only after the order commits.
func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req struct {
		Destination string `json:"destination"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if strings.TrimSpace(req.Destination) == "" {
		s.writeErr(w, r, fault.Wrap(fault.ErrInvalidInput, "destination required"))
		return
	}

	items, err := s.carts.Items(r.Context(), user.ID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	lines := make([]lifecycle.ItemInput, 0, len(items))
	for pid, qty := range items {
		lines = append(lines, lifecycle.ItemInput{ProductID: pid, Quantity: qty})
	}

	order, err := s.lifecycle.PlaceOrder(r.Context(), user.ID, lines, req.Destination)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := s.carts.Clear(r.Context(), user.ID); err != nil {
		s.logger.Warn("cart clear failed after checkout", "user_id", user.ID, "error", err)
	}
	s.writeJSON(w, http.StatusCreated, order)
}

// handleListOrders returns the caller's orders for whichever side of the
// marketplace they are on.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request, user *models.User) {
	var (
		orders []models.Order
		err    error
	)
	switch user.Role {
	case models.RoleBuyer:
		orders, err = s.store.OrdersByBuyer(r.Context(), user.ID)
	case models.RoleTransporter:
		orders, err = s.store.OrdersByTransporter(r.Context(), user.ID)
	case models.RoleFarmer:
		orders, err = s.store.OrdersByFarmer(r.Context(), user.ID)
	default:
		s.writeErr(w, r, fault.Wrap(fault.ErrForbidden, "pick a role first"))
		return
	}
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	s.writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleOpenOrders(w http.ResponseWriter, r *http.Request, _ *models.User) {
	orders, err := s.store.OpenOrders(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	s.writeJSON(w, http.StatusOK, orders)
}

// canViewOrder: participants always; transporters additionally while the
// order is still collecting quotes, so they can decide whether to bid.
func (s *Server) canViewOrder(r *http.Request, user *models.User, order *models.Order) (bool, error) {
	if user.Role == models.RoleTransporter && order.Status == models.OrderNeedsQuotes {
		return true, nil
	}
	parts, err := s.store.OrderParticipants(r.Context(), order.ID)
	if err != nil {
		return false, err
	}
	return parts.Contains(user.ID), nil
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request, user *models.User) {
	order, err := s.store.OrderByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	ok, err := s.canViewOrder(r, user, order)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if !ok {
		s.writeErr(w, r, fault.ErrForbidden)
		return
	}
	s.writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleOrderItems(w http.ResponseWriter, r *http.Request, user *models.User) {
	order, err := s.store.OrderByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	ok, err := s.canViewOrder(r, user, order)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if !ok {
		s.writeErr(w, r, fault.ErrForbidden)
		return
	}
	items, err := s.store.OrderItems(r.Context(), order.ID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleStartTrip(w http.ResponseWriter, r *http.Request, user *models.User) {
	s.runTransition(w, r, func() error {
		return s.lifecycle.StartTrip(r.Context(), user.ID, mux.Vars(r)["id"])
	})
}

func (s *Server) handleMarkArrived(w http.ResponseWriter, r *http.Request, user *models.User) {
	s.runTransition(w, r, func() error {
		return s.lifecycle.MarkArrived(r.Context(), user.ID, mux.Vars(r)["id"])
	})
}

func (s *Server) handleMarkDelivered(w http.ResponseWriter, r *http.Request, user *models.User) {
	s.runTransition(w, r, func() error {
		return s.lifecycle.MarkDelivered(r.Context(), user.ID, mux.Vars(r)["id"])
	})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request, user *models.User) {
	s.runTransition(w, r, func() error {
		return s.lifecycle.CancelOrder(r.Context(), user.ID, mux.Vars(r)["id"])
	})
}

func (s *Server) runTransition(w http.ResponseWriter, r *http.Request, fn func() error) {
	if err := fn(); err != nil {
		s.writeErr(w, r, err)
		return
	}
	order, err := s.store.OrderByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, order)
}
