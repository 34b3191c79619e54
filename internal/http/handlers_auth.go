package httpapi

import (
	"net/http"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/fault"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/geo"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	challenge, err := s.auth.RequestOTP(r.Context(), req.Phone)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, challenge)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
		OTP   string `json:"otp"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	token, user, err := s.auth.Verify(r.Context(), req.Phone, req.OTP)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, _ *models.User) {
	if err := s.auth.Logout(r.Context(), sessionToken(r)); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user *models.User) {
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req struct {
		Name        string   `json:"name"`
		Role        string   `json:"role"`
		HubName     string   `json:"hub_name"`
		HubLat      *float64 `json:"hub_lat"`
		HubLng      *float64 `json:"hub_lng"`
		HubAccuracy *float64 `json:"hub_accuracy"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}

	switch models.Role(req.Role) {
	case models.RoleBuyer, models.RoleFarmer, models.RoleTransporter, models.RoleNone:
	default:
		s.writeErr(w, r, fault.Wrap(fault.ErrInvalidInput, "unknown role %q", req.Role))
		return
	}
	if req.HubLat != nil && req.HubLng != nil && !geo.ValidCoord(*req.HubLat, *req.HubLng) {
		s.writeErr(w, r, fault.Wrap(fault.ErrInvalidInput, "hub coordinates out of range"))
		return
	}

	user.Name = req.Name
	user.Role = models.Role(req.Role)
	user.HubName = req.HubName
	user.HubLat = req.HubLat
	user.HubLng = req.HubLng
	user.HubAccuracy = req.HubAccuracy
	// farmer_status is meaningful only for farmers
	if user.Role != models.RoleFarmer {
		user.FarmerStatus = models.FarmerNone
	}
	if err := s.store.UpdateProfile(r.Context(), user); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

// handleFarmerApplication marks the account PENDING for admin review; the
// review itself is an external collaborator.
func (s *Server) handleFarmerApplication(w http.ResponseWriter, r *http.Request, user *models.User) {
	if user.Role != models.RoleFarmer {
		s.writeErr(w, r, fault.Wrap(fault.ErrInvalidState, "select the farmer role first"))
		return
	}
	if user.FarmerStatus == models.FarmerApproved {
		s.writeErr(w, r, fault.Wrap(fault.ErrAlreadyResolved, "already approved"))
		return
	}
	if err := s.store.SetFarmerStatus(r.Context(), user.ID, models.FarmerPending); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"farmer_status": string(models.FarmerPending)})
}
