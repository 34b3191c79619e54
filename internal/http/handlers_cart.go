package httpapi

import (
	"net/http"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
)

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request, user *models.User) {
	items, err := s.carts.Items(r.Context(), user.ID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int64 `json:"quantity"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := s.carts.Add(r.Context(), user.ID, req.ProductID, req.Quantity); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := s.carts.Remove(r.Context(), user.ID, id); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
