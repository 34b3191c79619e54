package httpapi

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/fault"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/ident"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/observability"
)

const (
	roleBuyer       = models.RoleBuyer
	roleFarmer      = models.RoleFarmer
	roleTransporter = models.RoleTransporter
)

func (s *Server) registerMiddleware() {
	s.mux.Use(s.recoverMiddleware)
	s.mux.Use(s.requestIDMiddleware)
	s.mux.Use(s.observabilityMiddleware)
}

// userHandler is a handler that has already passed the session guard.
type userHandler func(w http.ResponseWriter, r *http.Request, user *models.User)

// withUser resolves the session token and rejects anonymous callers. Role
// and approval checks stack on top with withRole / withApprovedFarmer.
func (s *Server) withUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.auth.CurrentUser(r.Context(), sessionToken(r))
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		next(w, r, user)
	}
}

func (s *Server) withRole(role models.Role, next userHandler) http.HandlerFunc {
	return s.withUser(func(w http.ResponseWriter, r *http.Request, user *models.User) {
		if user.Role != role {
			s.logger.Warn("role check failed", "path", r.URL.Path, "user_id", user.ID, "have", user.Role, "want", role)
			s.writeErr(w, r, fault.Wrap(fault.ErrForbidden, "%s role required", role))
			return
		}
		next(w, r, user)
	})
}

// withApprovedFarmer additionally requires an APPROVED application: only
// approved farmers may list products or appear in the catalogue.
func (s *Server) withApprovedFarmer(next userHandler) http.HandlerFunc {
	return s.withRole(roleFarmer, func(w http.ResponseWriter, r *http.Request, user *models.User) {
		if user.FarmerStatus != models.FarmerApproved {
			s.writeErr(w, r, fault.Wrap(fault.ErrForbidden, "farmer approval required"))
			return
		}
		next(w, r, user)
	})
}

// sessionToken accepts the token as a bearer header or a cookie; API
// clients use the former, the browser glue the latter.
func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie("session"); err == nil {
		return c.Value
	}
	return ""
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = ident.NewSessionToken()
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) observabilityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		route := routeTemplate(r)
		status := strconv.Itoa(ww.status)

		observability.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		observability.HTTPRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())

		s.logger.Info("http_request",
			"method", r.Method,
			"route", route,
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", remoteIP(r),
			"request_id", ww.Header().Get("X-Request-ID"),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "error", rec)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (r *responseWriter) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func routeTemplate(r *http.Request) string {
	if current := mux.CurrentRoute(r); current != nil {
		if tmpl, err := current.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}

func remoteIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip != "" {
		parts := strings.Split(ip, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
