// Package quotes handles transporter bids against open orders. Acceptance
// and decline live with the lifecycle engine since they move order state;
// submission lives here.
package quotes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/fault"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/notify"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/observability"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/storage"
)

type Service struct {
	store    *storage.Store
	notifier *notify.Service
	logger   *slog.Logger
}

func NewService(store *storage.Store, notifier *notify.Service, logger *slog.Logger) *Service {
	return &Service{store: store, notifier: notifier, logger: logger}
}

// Submit records a SUBMITTED quote against an order still collecting bids
// and tells the buyer. A transporter may bid more than once on the same
// order; there is deliberately no cap.
func (s *Service) Submit(ctx context.Context, transporterID int64, orderID string, price, etaHours int64) (*models.Quote, error) {
	if price <= 0 {
		return nil, fault.Wrap(fault.ErrInvalidInput, "price must be positive")
	}
	if etaHours <= 0 {
		return nil, fault.Wrap(fault.ErrInvalidInput, "eta must be positive")
	}

	var buyerID int64
	q := &models.Quote{OrderID: orderID, TransporterID: transporterID, Price: price, ETAHours: etaHours}
	err := s.store.InTx(ctx, func(ctx context.Context, tx *storage.Tx) error {
		order, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderNeedsQuotes {
			return fault.Wrap(fault.ErrInvalidState, "order is %s", order.Status)
		}
		buyerID = order.BuyerID
		return tx.InsertQuote(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	observability.QuotesSubmitted.Inc()
	if err := s.notifier.Notify(ctx, buyerID, models.KindQuoteReceived,
		fmt.Sprintf("New delivery quote on order %s", orderID), "/orders/"+orderID); err != nil {
		s.logger.Error("quote notification failed", "order_id", orderID, "error", err)
	}
	return q, nil
}

// ForOrder lists an order's quotes for its buyer; transporters see only
// their own bids via ForTransporter.
func (s *Service) ForOrder(ctx context.Context, buyerID int64, orderID string) ([]models.Quote, error) {
	order, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, fault.ErrNotFound
	}
	return s.store.QuotesByOrder(ctx, orderID)
}

func (s *Service) ForTransporter(ctx context.Context, transporterID int64) ([]models.Quote, error) {
	return s.store.QuotesByTransporter(ctx, transporterID)
}
