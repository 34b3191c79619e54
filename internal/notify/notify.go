// Package notify appends durable per-user notification rows and serves the
// poll-by-cursor contract. Delivery is pull-only: clients poll with their
// last seen id, there is no push transport.
package notify

import (
	"context"
	"log/slog"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/observability"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/storage"
)

type Service struct {
	store    *storage.Store
	logger   *slog.Logger
	pageSize int
}

func NewService(store *storage.Store, logger *slog.Logger, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = 25
	}
	return &Service{store: store, logger: logger, pageSize: pageSize}
}

// Notify appends one row for one user. Never batched, never deduplicated;
// repeated identical events produce repeated rows.
func (s *Service) Notify(ctx context.Context, userID int64, kind models.NotificationKind, message, link string) error {
	n := &models.Notification{UserID: userID, Kind: kind, Message: message, Link: link}
	if err := s.store.InsertNotification(ctx, n); err != nil {
		return err
	}
	observability.NotificationsSent.Inc()
	return nil
}

// NotifyMany fans an event out to a fixed audience. Individual append
// failures are logged and skipped so one bad row cannot starve the rest.
func (s *Service) NotifyMany(ctx context.Context, userIDs []int64, kind models.NotificationKind, message, link string) {
	for _, id := range userIDs {
		if err := s.Notify(ctx, id, kind, message, link); err != nil {
			s.logger.Error("notify append failed", "user_id", id, "kind", kind, "error", err)
		}
	}
}

// NotifyRole fans out to every active user holding a role, e.g. the
// new-order broadcast to all transporters.
func (s *Service) NotifyRole(ctx context.Context, role models.Role, kind models.NotificationKind, message, link string) error {
	users, err := s.store.ActiveUsersByRole(ctx, role)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	s.NotifyMany(ctx, ids, kind, message, link)
	return nil
}

// Page is one poll response: the rows after the caller's cursor plus the
// high-water mark to hand back on the next call.
type Page struct {
	Items []models.Notification `json:"items"`
	Next  int64                 `json:"next"`
}

// Poll returns up to the configured page size of rows with id > since,
// ascending. Next stays at since when nothing new exists, so repeated
// polls are stable.
func (s *Service) Poll(ctx context.Context, userID, since int64) (Page, error) {
	items, err := s.store.NotificationsSince(ctx, userID, since, s.pageSize)
	if err != nil {
		return Page{}, err
	}
	next := since
	if len(items) > 0 {
		next = items[len(items)-1].ID
	}
	if items == nil {
		items = []models.Notification{}
	}
	return Page{Items: items, Next: next}, nil
}
