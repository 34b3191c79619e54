// Package httpapi is the JSON surface over the marketplace core. Handlers
// stay thin: decode, guard, call a service, encode. Authorization guards
// return typed results; no redirects happen at this layer.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/auth"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/cart"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/config"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/fault"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/lifecycle"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/notify"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/quotes"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/storage"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/tracking"
)

type Server struct {
	cfg       config.ServerConfig
	logger    *slog.Logger
	store     *storage.Store
	auth      *auth.Service
	carts     *cart.Service
	lifecycle *lifecycle.Engine
	quotes    *quotes.Service
	notifier  *notify.Service
	tracker   *tracking.Service
	mux       *mux.Router
}

type Deps struct {
	Store     *storage.Store
	Auth      *auth.Service
	Carts     *cart.Service
	Lifecycle *lifecycle.Engine
	Quotes    *quotes.Service
	Notifier  *notify.Service
	Tracker   *tracking.Service
}

func NewServer(cfg config.ServerConfig, logger *slog.Logger, d Deps) *Server {
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		store:     d.Store,
		auth:      d.Auth,
		carts:     d.Carts,
		lifecycle: d.Lifecycle,
		quotes:    d.Quotes,
		notifier:  d.Notifier,
		tracker:   d.Tracker,
		mux:       mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/login", s.handleLogin).Methods("POST")
	api.HandleFunc("/auth/verify", s.handleVerify).Methods("POST")
	api.HandleFunc("/auth/logout", s.withUser(s.handleLogout)).Methods("POST")

	api.HandleFunc("/me", s.withUser(s.handleMe)).Methods("GET")
	api.HandleFunc("/me", s.withUser(s.handleUpdateProfile)).Methods("PUT")
	api.HandleFunc("/me/farmer-application", s.withUser(s.handleFarmerApplication)).Methods("POST")

	api.HandleFunc("/products", s.withUser(s.handleCatalogue)).Methods("GET")
	api.HandleFunc("/products", s.withApprovedFarmer(s.handleCreateProduct)).Methods("POST")
	api.HandleFunc("/products/{id}", s.withApprovedFarmer(s.handleUpdateProduct)).Methods("PUT")
	api.HandleFunc("/products/{id}", s.withApprovedFarmer(s.handleDeactivateProduct)).Methods("DELETE")
	api.HandleFunc("/my/products", s.withApprovedFarmer(s.handleMyProducts)).Methods("GET")

	api.HandleFunc("/cart", s.withRole(roleBuyer, s.handleCart)).Methods("GET")
	api.HandleFunc("/cart/items", s.withRole(roleBuyer, s.handleCartAdd)).Methods("POST")
	api.HandleFunc("/cart/items/{id}", s.withRole(roleBuyer, s.handleCartRemove)).Methods("DELETE")

	api.HandleFunc("/orders", s.withRole(roleBuyer, s.handlePlaceOrder)).Methods("POST")
	api.HandleFunc("/orders", s.withUser(s.handleListOrders)).Methods("GET")
	api.HandleFunc("/orders/open", s.withRole(roleTransporter, s.handleOpenOrders)).Methods("GET")
	api.HandleFunc("/orders/{id}", s.withUser(s.handleGetOrder)).Methods("GET")
	api.HandleFunc("/orders/{id}/items", s.withUser(s.handleOrderItems)).Methods("GET")

	api.HandleFunc("/orders/{id}/quotes", s.withRole(roleTransporter, s.handleSubmitQuote)).Methods("POST")
	api.HandleFunc("/orders/{id}/quotes", s.withRole(roleBuyer, s.handleOrderQuotes)).Methods("GET")
	api.HandleFunc("/orders/{id}/quotes/{quoteID}/accept", s.withRole(roleBuyer, s.handleAcceptQuote)).Methods("POST")
	api.HandleFunc("/orders/{id}/quotes/{quoteID}/decline", s.withRole(roleBuyer, s.handleDeclineQuote)).Methods("POST")

	api.HandleFunc("/orders/{id}/start", s.withRole(roleTransporter, s.handleStartTrip)).Methods("POST")
	api.HandleFunc("/orders/{id}/arrive", s.withRole(roleTransporter, s.handleMarkArrived)).Methods("POST")
	api.HandleFunc("/orders/{id}/deliver", s.withRole(roleTransporter, s.handleMarkDelivered)).Methods("POST")
	api.HandleFunc("/orders/{id}/cancel", s.withRole(roleBuyer, s.handleCancelOrder)).Methods("POST")

	api.HandleFunc("/orders/{id}/track", s.withUser(s.handleTrack)).Methods("GET")
	api.HandleFunc("/orders/{id}/track", s.withUser(s.handleRecordPing)).Methods("POST")
	api.HandleFunc("/orders/{id}/chat", s.withUser(s.handleChatLog)).Methods("GET")
	api.HandleFunc("/orders/{id}/chat", s.withUser(s.handlePostMessage)).Methods("POST")

	api.HandleFunc("/notifications", s.withUser(s.handlePollNotifications)).Methods("GET")

	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := fault.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		s.writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fault.Wrap(fault.ErrInvalidInput, "malformed request body")
	}
	return nil
}

var errBadSince = fault.Wrap(fault.ErrInvalidInput, "since must be a non-negative integer")
