package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
)

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request, user *models.User) {
	snap, err := s.tracker.Track(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRecordPing(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req struct {
		Role     string  `json:"role"`
		Lat      float64 `json:"lat"`
		Lng      float64 `json:"lng"`
		Accuracy float64 `json:"accuracy"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	loc, err := s.tracker.RecordPing(r.Context(), user.ID, mux.Vars(r)["id"],
		models.LocationRole(req.Role), req.Lat, req.Lng, req.Accuracy)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, loc)
}

func (s *Server) handleChatLog(w http.ResponseWriter, r *http.Request, user *models.User) {
	msgs, err := s.tracker.Messages(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []models.OrderMessage{}
	}
	s.writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req struct {
		Body string `json:"body"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	m, err := s.tracker.PostMessage(r.Context(), user.ID, mux.Vars(r)["id"], req.Body)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, m)
}

// handlePollNotifications serves the poll-by-cursor contract: ?since= is
// the last seen id, the response carries the next cursor.
func (s *Server) handlePollNotifications(w http.ResponseWriter, r *http.Request, user *models.User) {
	since := int64(0)
	if v := r.URL.Query().Get("since"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed < 0 {
			s.writeErr(w, r, errBadSince)
			return
		}
		since = parsed
	}
	page, err := s.notifier.Poll(r.Context(), user.ID, since)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}
