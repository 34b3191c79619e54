// Package tracking guards the per-order GPS trail and chat log. Access is
// limited to the order's participant set, recomputed on every call since
// the transporter joins the set only after a quote is accepted.
package tracking

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/fault"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/geo"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/storage"
)

type Service struct {
	store  *storage.Store
	logger *slog.Logger
}

func NewService(store *storage.Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// authorize returns the participant set after confirming the caller is in it.
func (s *Service) authorize(ctx context.Context, userID int64, orderID string) (storage.Participants, error) {
	parts, err := s.store.OrderParticipants(ctx, orderID)
	if err != nil {
		return parts, err
	}
	if !parts.Contains(userID) {
		s.logger.Warn("order access denied", "order_id", orderID, "user_id", userID)
		return parts, fault.ErrForbidden
	}
	return parts, nil
}

// RecordPing appends a GPS row. Origin and dropoff pings come from the
// buyer-side setup; transporter pings are restricted to the transporter
// holding the accepted quote.
func (s *Service) RecordPing(ctx context.Context, userID int64, orderID string, role models.LocationRole, lat, lng, accuracy float64) (*models.OrderLocation, error) {
	if !geo.ValidCoord(lat, lng) {
		return nil, fault.Wrap(fault.ErrInvalidInput, "coordinates out of range")
	}
	switch role {
	case models.LocOrigin, models.LocDropoff, models.LocTransporter:
	default:
		return nil, fault.Wrap(fault.ErrInvalidInput, "unknown location role %q", role)
	}

	parts, err := s.authorize(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if role == models.LocTransporter {
		if parts.TransporterID == nil || *parts.TransporterID != userID {
			return nil, fault.ErrNotAuthorized
		}
	}

	loc := &models.OrderLocation{OrderID: orderID, Role: role, Lat: lat, Lng: lng, Accuracy: accuracy}
	if err := s.store.InsertLocation(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

// Snapshot is the tracking view: the latest ping per role plus the
// great-circle distance between origin and dropoff. DistanceKnown is false
// until both endpoints have recorded at least one ping.
type Snapshot struct {
	Origin         *models.OrderLocation `json:"origin,omitempty"`
	Dropoff        *models.OrderLocation `json:"dropoff,omitempty"`
	Transporter    *models.OrderLocation `json:"transporter,omitempty"`
	DistanceMeters float64               `json:"distance_meters"`
	DistanceKnown  bool                  `json:"distance_known"`
}

func (s *Service) Track(ctx context.Context, userID int64, orderID string) (*Snapshot, error) {
	if _, err := s.authorize(ctx, userID, orderID); err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	for _, role := range []models.LocationRole{models.LocOrigin, models.LocDropoff, models.LocTransporter} {
		loc, err := s.store.LatestLocation(ctx, orderID, role)
		if err != nil {
			if errors.Is(err, fault.ErrNotFound) {
				continue
			}
			return nil, err
		}
		switch role {
		case models.LocOrigin:
			snap.Origin = loc
		case models.LocDropoff:
			snap.Dropoff = loc
		case models.LocTransporter:
			snap.Transporter = loc
		}
	}
	if snap.Origin != nil && snap.Dropoff != nil {
		snap.DistanceMeters = geo.Haversine(snap.Origin.Lat, snap.Origin.Lng, snap.Dropoff.Lat, snap.Dropoff.Lng)
		snap.DistanceKnown = true
	}
	return snap, nil
}

// chatActive requires an accepted transporter: chat is a post-award feature.
func chatActive(parts storage.Participants) bool { return parts.TransporterID != nil }

func (s *Service) PostMessage(ctx context.Context, userID int64, orderID, body string) (*models.OrderMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fault.Wrap(fault.ErrInvalidInput, "empty message")
	}
	parts, err := s.authorize(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !chatActive(parts) {
		return nil, fault.Wrap(fault.ErrInvalidState, "chat_not_active")
	}

	m := &models.OrderMessage{OrderID: orderID, UserID: userID, Body: body}
	if err := s.store.InsertMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Messages(ctx context.Context, userID int64, orderID string) ([]models.OrderMessage, error) {
	parts, err := s.authorize(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !chatActive(parts) {
		return nil, fault.Wrap(fault.ErrInvalidState, "chat_not_active")
	}
	return s.store.MessagesByOrder(ctx, orderID)
}
