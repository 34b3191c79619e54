package storage

import (
	"context"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
)

// InsertNotification appends one durable per-user row. No deduplication:
// repeated events produce repeated rows and consumers page by id.
func (s *Store) InsertNotification(ctx context.Context, n *models.Notification) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	n.CreatedAt = nowUTC()
	id, err := insertID(ctx, s.db,
		`INSERT INTO notifications (user_id, kind, message, link, created_at) VALUES (?, ?, ?, ?, ?)`,
		n.UserID, n.Kind, n.Message, n.Link, n.CreatedAt)
	if err != nil {
		return mapErr(err)
	}
	n.ID = id
	return nil
}

// NotificationsSince returns a user's rows with id > since, ascending,
// bounded by limit. The poll cursor contract in one query.
func (s *Store) NotificationsSince(ctx context.Context, userID, since int64, limit int) ([]models.Notification, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var out []models.Notification
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(
		`SELECT id, user_id, kind, message, link, created_at
		 FROM notifications WHERE user_id = ? AND id > ?
		 ORDER BY id LIMIT ?`), userID, since, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}
