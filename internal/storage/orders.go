package storage

import (
	"context"
	"time"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
)

const orderColumns = `id, buyer_user_id, origin, destination, status, accepted_quote_id, created_at`

func (s *Store) OrderByID(ctx context.Context, id string) (*models.Order, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var o models.Order
	err := s.db.GetContext(ctx, &o,
		s.db.Rebind(`SELECT `+orderColumns+` FROM orders WHERE id = ?`), id)
	if err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

func (s *Store) OrdersByBuyer(ctx context.Context, buyerID int64) ([]models.Order, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var out []models.Order
	err := s.db.SelectContext(ctx, &out,
		s.db.Rebind(`SELECT `+orderColumns+` FROM orders WHERE buyer_user_id = ? ORDER BY created_at DESC`), buyerID)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

// OpenOrders lists orders still collecting quotes, the transporter's
// work-finding view.
func (s *Store) OpenOrders(ctx context.Context) ([]models.Order, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var out []models.Order
	err := s.db.SelectContext(ctx, &out,
		s.db.Rebind(`SELECT `+orderColumns+` FROM orders WHERE status = ? ORDER BY created_at DESC`), models.OrderNeedsQuotes)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

// OrdersByTransporter lists orders whose accepted quote belongs to the
// transporter, the post-award haul list.
func (s *Store) OrdersByTransporter(ctx context.Context, transporterID int64) ([]models.Order, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var out []models.Order
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(
		`SELECT o.id, o.buyer_user_id, o.origin, o.destination, o.status, o.accepted_quote_id, o.created_at
		 FROM orders o JOIN quotes q ON q.id = o.accepted_quote_id
		 WHERE q.transporter_user_id = ?
		 ORDER BY o.created_at DESC`), transporterID)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

// OrdersByFarmer lists orders containing at least one of the farmer's
// products.
func (s *Store) OrdersByFarmer(ctx context.Context, farmerID int64) ([]models.Order, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var out []models.Order
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(
		`SELECT DISTINCT o.id, o.buyer_user_id, o.origin, o.destination, o.status, o.accepted_quote_id, o.created_at
		 FROM orders o
		 JOIN order_items i ON i.order_id = o.id
		 JOIN products p ON p.id = i.product_id
		 WHERE p.farmer_user_id = ?
		 ORDER BY o.created_at DESC`), farmerID)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (s *Store) OrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var out []models.OrderItem
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(
		`SELECT id, order_id, product_id, quantity, unit_price FROM order_items WHERE order_id = ? ORDER BY id`), orderID)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

// Participants is the authorization set for an order's tracking and chat:
// the buyer, every farmer owning an ordered product, and the accepted
// transporter once one exists. Recomputed per request, never cached.
type Participants struct {
	BuyerID       int64
	FarmerIDs     []int64
	TransporterID *int64
}

func (p Participants) Contains(userID int64) bool {
	if p.BuyerID == userID {
		return true
	}
	for _, id := range p.FarmerIDs {
		if id == userID {
			return true
		}
	}
	return p.TransporterID != nil && *p.TransporterID == userID
}

// All returns the member ids with duplicates removed.
func (p Participants) All() []int64 {
	seen := map[int64]bool{p.BuyerID: true}
	out := []int64{p.BuyerID}
	for _, id := range p.FarmerIDs {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if p.TransporterID != nil && !seen[*p.TransporterID] {
		out = append(out, *p.TransporterID)
	}
	return out
}

func (s *Store) OrderParticipants(ctx context.Context, orderID string) (Participants, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var p Participants
	err := s.db.GetContext(ctx, &p.BuyerID,
		s.db.Rebind(`SELECT buyer_user_id FROM orders WHERE id = ?`), orderID)
	if err != nil {
		return p, mapErr(err)
	}

	err = s.db.SelectContext(ctx, &p.FarmerIDs, s.db.Rebind(
		`SELECT DISTINCT pr.farmer_user_id
		 FROM order_items i JOIN products pr ON pr.id = i.product_id
		 WHERE i.order_id = ? ORDER BY pr.farmer_user_id`), orderID)
	if err != nil {
		return p, mapErr(err)
	}

	var transporterIDs []int64
	err = s.db.SelectContext(ctx, &transporterIDs, s.db.Rebind(
		`SELECT q.transporter_user_id
		 FROM orders o JOIN quotes q ON q.id = o.accepted_quote_id
		 WHERE o.id = ?`), orderID)
	if err != nil {
		return p, mapErr(err)
	}
	if len(transporterIDs) > 0 {
		p.TransporterID = &transporterIDs[0]
	}
	return p, nil
}

// --- transaction-scoped primitives used by the lifecycle engine ---

// OrderIDExists supports the create-time collision retry loop.
func (t *Tx) OrderIDExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := t.tx.GetContext(ctx, &n,
		t.tx.Rebind(`SELECT COUNT(*) FROM orders WHERE id = ?`), id)
	if err != nil {
		return false, mapErr(err)
	}
	return n > 0, nil
}

func (t *Tx) InsertOrder(ctx context.Context, o *models.Order) error {
	_, err := t.tx.ExecContext(ctx, t.tx.Rebind(
		`INSERT INTO orders (id, buyer_user_id, origin, destination, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		o.ID, o.BuyerID, o.Origin, o.Destination, o.Status, o.CreatedAt)
	return mapErr(err)
}

func (t *Tx) InsertOrderItem(ctx context.Context, it *models.OrderItem) error {
	id, err := insertID(ctx, t.tx,
		`INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES (?, ?, ?, ?)`,
		it.OrderID, it.ProductID, it.Quantity, it.UnitPrice)
	if err != nil {
		return mapErr(err)
	}
	it.ID = id
	return nil
}

// OrderForUpdate re-reads the order row with a lock so every transition is
// computed from current state, never from what a handler read earlier.
func (t *Tx) OrderForUpdate(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	q := forUpdate(t.tx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`)
	if err := t.tx.GetContext(ctx, &o, t.tx.Rebind(q), id); err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

func (t *Tx) ProductForUpdate(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	q := forUpdate(t.tx, `SELECT `+productColumns+` FROM products WHERE id = ?`)
	if err := t.tx.GetContext(ctx, &p, t.tx.Rebind(q), id); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (t *Tx) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	_, err := t.tx.ExecContext(ctx,
		t.tx.Rebind(`UPDATE orders SET status = ? WHERE id = ?`), status, id)
	return mapErr(err)
}

func (t *Tx) SetAcceptedQuote(ctx context.Context, orderID string, quoteID int64, status models.OrderStatus) error {
	_, err := t.tx.ExecContext(ctx,
		t.tx.Rebind(`UPDATE orders SET status = ?, accepted_quote_id = ? WHERE id = ?`),
		status, quoteID, orderID)
	return mapErr(err)
}

func nowUTC() time.Time { return time.Now().UTC() }
