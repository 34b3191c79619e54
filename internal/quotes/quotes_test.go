package quotes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/fault"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/notify"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.Store, *notify.Service) {
	t.Helper()
	s, err := storage.OpenSQLite(":memory:", 5*time.Second)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := s.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n := notify.NewService(s, logger, 25)
	return NewService(s, n, logger), s, n
}

func seedOrder(t *testing.T, s *storage.Store, status models.OrderStatus) (buyerID int64, orderID string) {
	t.Helper()
	ctx := context.Background()
	buyer, err := s.CreateUser(ctx, "+234buyer")
	if err != nil {
		t.Fatalf("create buyer: %v", err)
	}
	orderID = "ORD-0000CAFE"
	err = s.InTx(ctx, func(ctx context.Context, tx *storage.Tx) error {
		return tx.InsertOrder(ctx, &models.Order{
			ID: orderID, BuyerID: buyer.ID, Status: status, CreatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		t.Fatalf("insert order: %v", err)
	}
	return buyer.ID, orderID
}

func TestSubmitValidatesInput(t *testing.T) {
	svc, s, _ := newTestService(t)
	_, orderID := seedOrder(t, s, models.OrderNeedsQuotes)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, 1, orderID, 0, 12); !errors.Is(err, fault.ErrInvalidInput) {
		t.Fatalf("zero price = %v, want InvalidInput", err)
	}
	if _, err := svc.Submit(ctx, 1, orderID, -5, 12); !errors.Is(err, fault.ErrInvalidInput) {
		t.Fatalf("negative price = %v, want InvalidInput", err)
	}
	if _, err := svc.Submit(ctx, 1, orderID, 500, 0); !errors.Is(err, fault.ErrInvalidInput) {
		t.Fatalf("zero eta = %v, want InvalidInput", err)
	}
	if _, err := svc.Submit(ctx, 1, orderID, 500, 12); err != nil {
		t.Fatalf("valid submit: %v", err)
	}
}

func TestSubmitRejectsClosedOrders(t *testing.T) {
	svc, s, _ := newTestService(t)
	_, orderID := seedOrder(t, s, models.OrderQuoteAccepted)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, 1, orderID, 500, 12); !errors.Is(err, fault.ErrInvalidState) {
		t.Fatalf("submit against closed order = %v, want InvalidState", err)
	}
	if _, err := svc.Submit(ctx, 1, "ORD-NOPE0000", 500, 12); !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("submit against missing order = %v, want NotFound", err)
	}
}

func TestSubmitNotifiesBuyerAndAllowsRepeats(t *testing.T) {
	svc, s, notifier := newTestService(t)
	buyerID, orderID := seedOrder(t, s, models.OrderNeedsQuotes)
	ctx := context.Background()

	transporter, _ := s.CreateUser(ctx, "+234trans")
	q1, err := svc.Submit(ctx, transporter.ID, orderID, 1000, 24)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if q1.Status != models.QuoteSubmitted {
		t.Fatalf("fresh quote status = %s", q1.Status)
	}

	// nothing caps rebids; a keener price is a new row
	q2, err := svc.Submit(ctx, transporter.ID, orderID, 800, 24)
	if err != nil {
		t.Fatalf("rebid: %v", err)
	}
	if q2.ID == q1.ID {
		t.Fatal("rebid must create a new quote row")
	}

	page, err := notifier.Poll(ctx, buyerID, 0)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	seen := 0
	for _, n := range page.Items {
		if n.Kind == models.KindQuoteReceived {
			seen++
		}
	}
	if seen != 2 {
		t.Fatalf("buyer should have two QUOTE_RECEIVED rows, got %d", seen)
	}
}

func TestForOrderIsBuyerScoped(t *testing.T) {
	svc, s, _ := newTestService(t)
	buyerID, orderID := seedOrder(t, s, models.OrderNeedsQuotes)
	ctx := context.Background()

	transporter, _ := s.CreateUser(ctx, "+234trans")
	if _, err := svc.Submit(ctx, transporter.ID, orderID, 500, 6); err != nil {
		t.Fatalf("submit: %v", err)
	}

	got, err := svc.ForOrder(ctx, buyerID, orderID)
	if err != nil {
		t.Fatalf("for order: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(got))
	}

	if _, err := svc.ForOrder(ctx, transporter.ID, orderID); !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("non-buyer listing = %v, want NotFound", err)
	}

	mine, err := svc.ForTransporter(ctx, transporter.ID)
	if err != nil {
		t.Fatalf("for transporter: %v", err)
	}
	if len(mine) != 1 || mine[0].TransporterID != transporter.ID {
		t.Fatalf("transporter view wrong: %v", mine)
	}
}
