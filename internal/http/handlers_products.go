package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/fault"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
)

func pathInt64(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, fault.Wrap(fault.ErrInvalidInput, "bad %s", name)
	}
	return v, nil
}

func (s *Server) handleCatalogue(w http.ResponseWriter, r *http.Request, _ *models.User) {
	products, err := s.store.ActiveProducts(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, products)
}

type productRequest struct {
	Name  string `json:"name"`
	Unit  string `json:"unit"`
	Price int64  `json:"price"`
}

func (p productRequest) validate() error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Unit) == "" {
		return fault.Wrap(fault.ErrInvalidInput, "name and unit required")
	}
	if p.Price <= 0 {
		return fault.Wrap(fault.ErrInvalidInput, "price must be positive")
	}
	return nil
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req productRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.writeErr(w, r, err)
		return
	}
	p := &models.Product{FarmerID: user.ID, Name: req.Name, Unit: req.Unit, Price: req.Price}
	if err := s.store.CreateProduct(r.Context(), p); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	var req productRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.writeErr(w, r, err)
		return
	}

	p, err := s.store.ProductByID(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if p.FarmerID != user.ID {
		s.writeErr(w, r, fault.ErrNotFound)
		return
	}
	p.Name, p.Unit, p.Price = req.Name, req.Unit, req.Price
	if err := s.store.UpdateProduct(r.Context(), p); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeactivateProduct(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := s.store.DeactivateProduct(r.Context(), id, user.ID); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (s *Server) handleMyProducts(w http.ResponseWriter, r *http.Request, user *models.User) {
	products, err := s.store.ProductsByFarmer(r.Context(), user.ID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, products)
}
