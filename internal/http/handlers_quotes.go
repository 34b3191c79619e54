package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
)

func (s *Server) handleSubmitQuote(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req struct {
		Price    int64 `json:"price"`
		ETAHours int64 `json:"eta_hours"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	q, err := s.quotes.Submit(r.Context(), user.ID, mux.Vars(r)["id"], req.Price, req.ETAHours)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, q)
}

func (s *Server) handleOrderQuotes(w http.ResponseWriter, r *http.Request, user *models.User) {
	list, err := s.quotes.ForOrder(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if list == nil {
		list = []models.Quote{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAcceptQuote(w http.ResponseWriter, r *http.Request, user *models.User) {
	quoteID, err := pathInt64(r, "quoteID")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.runTransition(w, r, func() error {
		return s.lifecycle.AcceptQuote(r.Context(), user.ID, mux.Vars(r)["id"], quoteID)
	})
}

func (s *Server) handleDeclineQuote(w http.ResponseWriter, r *http.Request, user *models.User) {
	quoteID, err := pathInt64(r, "quoteID")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := s.lifecycle.DeclineQuote(r.Context(), user.ID, mux.Vars(r)["id"], quoteID); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "declined"})
}
