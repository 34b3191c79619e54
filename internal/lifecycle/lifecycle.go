// Package lifecycle is the order state machine:
//
//	NEEDS_QUOTES -> QUOTE_ACCEPTED -> IN_TRANSIT -> ARRIVED -> DELIVERED
//
// with CANCELLED reachable from any pre-DELIVERED state. Every transition
// re-reads the order and quote rows inside one transaction and applies its
// side effects in the same unit, so concurrent conflicting calls (a
// transporter double-clicking start, a buyer accepting two quotes) fail
// cleanly instead of half-applying.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/events"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/fault"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/ident"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/notify"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/observability"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/storage"
)

// orderIDAttempts bounds the collision retry loop at creation time.
const orderIDAttempts = 5

type Engine struct {
	store    *storage.Store
	notifier *notify.Service
	producer *events.Producer // nil when Kafka is not configured
	logger   *slog.Logger
}

func NewEngine(store *storage.Store, notifier *notify.Service, producer *events.Producer, logger *slog.Logger) *Engine {
	return &Engine{store: store, notifier: notifier, producer: producer, logger: logger}
}

// ItemInput is one checkout line, reconciled against the store before the
// order row is written.
type ItemInput struct {
	ProductID int64
	Quantity  int64
}

// PlaceOrder turns a reconciled cart into an order in NEEDS_QUOTES. The
// cart must be non-empty, every product active, and all products owned by
// one farmer; unit prices are snapshotted so later price edits cannot
// touch the order.
func (e *Engine) PlaceOrder(ctx context.Context, buyerID int64, items []ItemInput, destination string) (*models.Order, error) {
	if len(items) == 0 {
		return nil, fault.Wrap(fault.ErrInvalidInput, "cart is empty")
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fault.Wrap(fault.ErrInvalidInput, "quantity must be positive for product %d", it.ProductID)
		}
	}

	var order *models.Order
	err := e.store.InTx(ctx, func(ctx context.Context, tx *storage.Tx) error {
		var farmerID int64
		snapshots := make([]models.OrderItem, 0, len(items))
		for _, it := range items {
			p, err := tx.ProductForUpdate(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if !p.Active {
				return fault.Wrap(fault.ErrInvalidInput, "product %d is no longer available", p.ID)
			}
			if farmerID == 0 {
				farmerID = p.FarmerID
			} else if farmerID != p.FarmerID {
				return fault.Wrap(fault.ErrInvalidInput, "cart spans more than one farmer")
			}
			snapshots = append(snapshots, models.OrderItem{
				ProductID: p.ID,
				Quantity:  it.Quantity,
				UnitPrice: p.Price,
			})
		}

		farmer, err := tx.UserInTx(ctx, farmerID)
		if err != nil {
			return err
		}

		id, err := newOrderID(ctx, tx)
		if err != nil {
			return err
		}
		order = &models.Order{
			ID:          id,
			BuyerID:     buyerID,
			Origin:      farmer.HubName,
			Destination: destination,
			Status:      models.OrderNeedsQuotes,
			CreatedAt:   time.Now().UTC(),
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		for i := range snapshots {
			snapshots[i].OrderID = id
			if err := tx.InsertOrderItem(ctx, &snapshots[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.OrdersPlaced.Inc()
	msg := fmt.Sprintf("New order %s needs delivery quotes", order.ID)
	if err := e.notifier.NotifyRole(ctx, models.RoleTransporter, models.KindNewOrder, msg, "/orders/"+order.ID); err != nil {
		e.logger.Error("new order broadcast failed", "order_id", order.ID, "error", err)
	}
	e.emit(ctx, order.ID, models.KindNewOrder, msg)
	return order, nil
}

func newOrderID(ctx context.Context, tx *storage.Tx) (string, error) {
	for i := 0; i < orderIDAttempts; i++ {
		id := ident.NewOrderID()
		exists, err := tx.OrderIDExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", fault.Wrap(fault.ErrUnavailable, "could not allocate an order id")
}

// AcceptQuote resolves the bidding: the chosen quote wins, every other
// non-DELIVERED quote on the order is declined, and the order moves to
// QUOTE_ACCEPTED, all in one atomic unit.
func (e *Engine) AcceptQuote(ctx context.Context, buyerID int64, orderID string, quoteID int64) error {
	var winner *models.Quote
	var losers []int64
	err := e.store.InTx(ctx, func(ctx context.Context, tx *storage.Tx) error {
		order, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != buyerID {
			return fault.ErrNotFound
		}
		q, err := tx.QuoteForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}
		if q.OrderID != orderID {
			return fault.ErrNotFound
		}
		if q.Status != models.QuoteSubmitted {
			return fault.Wrap(fault.ErrAlreadyResolved, "quote is %s", q.Status)
		}
		if order.Status != models.OrderNeedsQuotes {
			return fault.Wrap(fault.ErrInvalidState, "order is %s", order.Status)
		}

		if err := tx.UpdateQuoteStatus(ctx, q.ID, models.QuoteAccepted); err != nil {
			return err
		}
		losers, err = tx.DeclineSiblings(ctx, orderID, q.ID)
		if err != nil {
			return err
		}
		if err := tx.SetAcceptedQuote(ctx, orderID, q.ID, models.OrderQuoteAccepted); err != nil {
			return err
		}
		winner = q
		return nil
	})
	if err != nil {
		return err
	}

	observability.OrdersByState.WithLabelValues(string(models.OrderQuoteAccepted)).Inc()
	link := "/track/" + orderID
	e.notifier.NotifyMany(ctx, []int64{winner.TransporterID}, models.KindQuoteAccepted,
		fmt.Sprintf("Your quote for order %s was accepted", orderID), link)
	e.notifier.NotifyMany(ctx, losers, models.KindQuoteDeclined,
		fmt.Sprintf("Your quote for order %s was declined", orderID), "/orders/"+orderID)
	e.emit(ctx, orderID, models.KindQuoteAccepted, fmt.Sprintf("Quote %d accepted for order %s", winner.ID, orderID))
	return nil
}

// DeclineQuote rejects one SUBMITTED quote without touching order status.
func (e *Engine) DeclineQuote(ctx context.Context, buyerID int64, orderID string, quoteID int64) error {
	var transporterID int64
	err := e.store.InTx(ctx, func(ctx context.Context, tx *storage.Tx) error {
		order, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != buyerID {
			return fault.ErrNotFound
		}
		q, err := tx.QuoteForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}
		if q.OrderID != orderID {
			return fault.ErrNotFound
		}
		if q.Status != models.QuoteSubmitted {
			return fault.Wrap(fault.ErrAlreadyResolved, "quote is %s", q.Status)
		}
		transporterID = q.TransporterID
		return tx.UpdateQuoteStatus(ctx, q.ID, models.QuoteDeclined)
	})
	if err != nil {
		return err
	}

	e.notifier.NotifyMany(ctx, []int64{transporterID}, models.KindQuoteDeclined,
		fmt.Sprintf("Your quote for order %s was declined", orderID), "/orders/"+orderID)
	return nil
}

// StartTrip moves QUOTE_ACCEPTED -> IN_TRANSIT. Accepted transporter only.
func (e *Engine) StartTrip(ctx context.Context, transporterID int64, orderID string) error {
	return e.advance(ctx, transporterID, orderID,
		models.OrderQuoteAccepted, models.OrderInTransit, models.KindTripStarted,
		"Your delivery for order %s is on the way")
}

// MarkArrived moves IN_TRANSIT -> ARRIVED.
func (e *Engine) MarkArrived(ctx context.Context, transporterID int64, orderID string) error {
	return e.advance(ctx, transporterID, orderID,
		models.OrderInTransit, models.OrderArrived, models.KindTripArrived,
		"Your delivery for order %s has arrived at the destination")
}

// MarkDelivered moves ARRIVED -> DELIVERED and freezes the winning quote
// as DELIVERED, both terminal.
func (e *Engine) MarkDelivered(ctx context.Context, transporterID int64, orderID string) error {
	return e.advance(ctx, transporterID, orderID,
		models.OrderArrived, models.OrderDelivered, models.KindOrderDelivered,
		"Order %s was delivered")
}

func (e *Engine) advance(ctx context.Context, transporterID int64, orderID string, from, to models.OrderStatus, kind models.NotificationKind, msgFormat string) error {
	err := e.store.InTx(ctx, func(ctx context.Context, tx *storage.Tx) error {
		order, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.AcceptedQuoteID == nil {
			return fault.Wrap(fault.ErrInvalidState, "order is %s", order.Status)
		}
		q, err := tx.QuoteForUpdate(ctx, *order.AcceptedQuoteID)
		if err != nil {
			return err
		}
		if q.TransporterID != transporterID {
			e.logger.Warn("delivery milestone denied", "order_id", orderID, "caller", transporterID)
			return fault.ErrNotAuthorized
		}
		if order.Status != from {
			return fault.Wrap(fault.ErrInvalidState, "order is %s, expected %s", order.Status, from)
		}
		if from == models.OrderQuoteAccepted && q.Status != models.QuoteAccepted {
			return fault.Wrap(fault.ErrInvalidState, "accepted quote is %s", q.Status)
		}

		if err := tx.UpdateOrderStatus(ctx, orderID, to); err != nil {
			return err
		}
		if to == models.OrderDelivered {
			if err := tx.UpdateQuoteStatus(ctx, q.ID, models.QuoteDelivered); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	observability.OrdersByState.WithLabelValues(string(to)).Inc()
	msg := fmt.Sprintf(msgFormat, orderID)
	e.notifyOthers(ctx, orderID, transporterID, kind, msg)
	e.emit(ctx, orderID, kind, msg)
	return nil
}

// CancelOrder is the buyer-side absorbing exit: valid from any
// pre-DELIVERED state, declines whatever quotes are still live.
func (e *Engine) CancelOrder(ctx context.Context, buyerID int64, orderID string) error {
	var open []models.Quote
	err := e.store.InTx(ctx, func(ctx context.Context, tx *storage.Tx) error {
		order, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != buyerID {
			return fault.ErrNotFound
		}
		if order.Status == models.OrderCancelled {
			return fault.Wrap(fault.ErrAlreadyResolved, "order is already cancelled")
		}
		if order.Status == models.OrderDelivered {
			return fault.Wrap(fault.ErrInvalidState, "order is %s", order.Status)
		}

		open, err = tx.OpenQuotes(ctx, orderID)
		if err != nil {
			return err
		}
		for _, q := range open {
			if err := tx.UpdateQuoteStatus(ctx, q.ID, models.QuoteDeclined); err != nil {
				return err
			}
		}
		return tx.UpdateOrderStatus(ctx, orderID, models.OrderCancelled)
	})
	if err != nil {
		return err
	}

	observability.OrdersByState.WithLabelValues(string(models.OrderCancelled)).Inc()
	msg := fmt.Sprintf("Order %s was cancelled", orderID)
	e.notifyOthers(ctx, orderID, buyerID, models.KindOrderCancelled, msg)
	for _, q := range open {
		e.notifier.NotifyMany(ctx, []int64{q.TransporterID}, models.KindOrderCancelled, msg, "/orders/"+orderID)
	}
	e.emit(ctx, orderID, models.KindOrderCancelled, msg)
	return nil
}

// notifyOthers fans a milestone out to every order participant except the
// actor who caused it.
func (e *Engine) notifyOthers(ctx context.Context, orderID string, actorID int64, kind models.NotificationKind, msg string) {
	parts, err := e.store.OrderParticipants(ctx, orderID)
	if err != nil {
		e.logger.Error("participant lookup failed", "order_id", orderID, "error", err)
		return
	}
	audience := make([]int64, 0, 3)
	for _, id := range parts.All() {
		if id != actorID {
			audience = append(audience, id)
		}
	}
	e.notifier.NotifyMany(ctx, audience, kind, msg, "/track/"+orderID)
}

func (e *Engine) emit(ctx context.Context, orderID string, kind models.NotificationKind, msg string) {
	if e.producer == nil {
		return
	}
	parts, err := e.store.OrderParticipants(ctx, orderID)
	if err != nil {
		e.logger.Error("participant lookup failed", "order_id", orderID, "error", err)
		return
	}
	e.producer.Publish(models.LifecycleEvent{
		OrderID: orderID,
		Kind:    kind,
		UserIDs: parts.All(),
		Message: msg,
		At:      time.Now().UTC(),
	})
}
