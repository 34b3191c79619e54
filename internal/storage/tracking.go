package storage

import (
	"context"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
)

// InsertLocation appends a GPS ping; rows are history, never updated.
func (s *Store) InsertLocation(ctx context.Context, loc *models.OrderLocation) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	loc.CreatedAt = nowUTC()
	id, err := insertID(ctx, s.db,
		`INSERT INTO order_locations (order_id, role, lat, lng, accuracy, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		loc.OrderID, loc.Role, loc.Lat, loc.Lng, loc.Accuracy, loc.CreatedAt)
	if err != nil {
		return mapErr(err)
	}
	loc.ID = id
	return nil
}

// LatestLocation returns the current ping for a role on an order, or
// ErrNotFound when none was ever recorded.
func (s *Store) LatestLocation(ctx context.Context, orderID string, role models.LocationRole) (*models.OrderLocation, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var loc models.OrderLocation
	err := s.db.GetContext(ctx, &loc, s.db.Rebind(
		`SELECT id, order_id, role, lat, lng, accuracy, created_at
		 FROM order_locations WHERE order_id = ? AND role = ?
		 ORDER BY id DESC LIMIT 1`), orderID, role)
	if err != nil {
		return nil, mapErr(err)
	}
	return &loc, nil
}

func (s *Store) InsertMessage(ctx context.Context, m *models.OrderMessage) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	m.CreatedAt = nowUTC()
	id, err := insertID(ctx, s.db,
		`INSERT INTO order_messages (order_id, user_id, body, created_at) VALUES (?, ?, ?, ?)`,
		m.OrderID, m.UserID, m.Body, m.CreatedAt)
	if err != nil {
		return mapErr(err)
	}
	m.ID = id
	return nil
}

// MessagesByOrder returns the chat log in send order (monotonic id).
func (s *Store) MessagesByOrder(ctx context.Context, orderID string) ([]models.OrderMessage, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var out []models.OrderMessage
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(
		`SELECT id, order_id, user_id, body, created_at
		 FROM order_messages WHERE order_id = ? ORDER BY id`), orderID)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}
