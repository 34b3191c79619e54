package storage

import (
	"context"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
)

const quoteColumns = `id, order_id, transporter_user_id, price, eta_hours, status, created_at`

func (s *Store) QuoteByID(ctx context.Context, id int64) (*models.Quote, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var q models.Quote
	err := s.db.GetContext(ctx, &q,
		s.db.Rebind(`SELECT `+quoteColumns+` FROM quotes WHERE id = ?`), id)
	if err != nil {
		return nil, mapErr(err)
	}
	return &q, nil
}

func (s *Store) QuotesByOrder(ctx context.Context, orderID string) ([]models.Quote, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var out []models.Quote
	err := s.db.SelectContext(ctx, &out,
		s.db.Rebind(`SELECT `+quoteColumns+` FROM quotes WHERE order_id = ? ORDER BY id`), orderID)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (s *Store) QuotesByTransporter(ctx context.Context, transporterID int64) ([]models.Quote, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var out []models.Quote
	err := s.db.SelectContext(ctx, &out,
		s.db.Rebind(`SELECT `+quoteColumns+` FROM quotes WHERE transporter_user_id = ? ORDER BY id DESC`), transporterID)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

// --- transaction-scoped primitives ---

func (t *Tx) InsertQuote(ctx context.Context, q *models.Quote) error {
	q.Status = models.QuoteSubmitted
	q.CreatedAt = nowUTC()
	id, err := insertID(ctx, t.tx,
		`INSERT INTO quotes (order_id, transporter_user_id, price, eta_hours, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		q.OrderID, q.TransporterID, q.Price, q.ETAHours, q.Status, q.CreatedAt)
	if err != nil {
		return mapErr(err)
	}
	q.ID = id
	return nil
}

func (t *Tx) QuoteForUpdate(ctx context.Context, id int64) (*models.Quote, error) {
	var q models.Quote
	query := forUpdate(t.tx, `SELECT `+quoteColumns+` FROM quotes WHERE id = ?`)
	if err := t.tx.GetContext(ctx, &q, t.tx.Rebind(query), id); err != nil {
		return nil, mapErr(err)
	}
	return &q, nil
}

func (t *Tx) UpdateQuoteStatus(ctx context.Context, id int64, status models.QuoteStatus) error {
	_, err := t.tx.ExecContext(ctx,
		t.tx.Rebind(`UPDATE quotes SET status = ? WHERE id = ?`), status, id)
	return mapErr(err)
}

// DeclineSiblings forces every other quote on the order to DECLINED, except
// rows already DELIVERED, which stay frozen. Returns the transporter ids of
// the quotes it declined so callers can notify the losers.
func (t *Tx) DeclineSiblings(ctx context.Context, orderID string, winnerID int64) ([]int64, error) {
	var losers []int64
	err := t.tx.SelectContext(ctx, &losers, t.tx.Rebind(
		`SELECT DISTINCT transporter_user_id FROM quotes
		 WHERE order_id = ? AND id <> ? AND status <> ?`),
		orderID, winnerID, models.QuoteDelivered)
	if err != nil {
		return nil, mapErr(err)
	}
	_, err = t.tx.ExecContext(ctx, t.tx.Rebind(
		`UPDATE quotes SET status = ? WHERE order_id = ? AND id <> ? AND status <> ?`),
		models.QuoteDeclined, orderID, winnerID, models.QuoteDelivered)
	if err != nil {
		return nil, mapErr(err)
	}
	return losers, nil
}

// OpenQuotes returns the still-live quotes on an order, used by cancel to
// decline everything in flight.
func (t *Tx) OpenQuotes(ctx context.Context, orderID string) ([]models.Quote, error) {
	var out []models.Quote
	err := t.tx.SelectContext(ctx, &out, t.tx.Rebind(
		`SELECT `+quoteColumns+` FROM quotes WHERE order_id = ? AND status IN (?, ?) ORDER BY id`),
		orderID, models.QuoteSubmitted, models.QuoteAccepted)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}
