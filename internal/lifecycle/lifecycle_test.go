package lifecycle

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
	"github.com/tonyorjime-cloud/agromath-mvp/internal/quotes"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store    *storage.Store
	notifier *notify.Service
	engine   *Engine
	quotes   *quotes.Service

	buyer  *models.User
	farmer *models.User
	t1     *models.User
	t2     *models.User

	yam  *models.Product
	rice *models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := storage.OpenSQLite(":memory:", 5*time.Second)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := s.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	logger := testLogger()
	notifier := notify.NewService(s, logger, 25)
	f := &fixture{
		store:    s,
		notifier: notifier,
		engine:   NewEngine(s, notifier, nil, logger),
		quotes:   quotes.NewService(s, notifier, logger),
	}
	f.buyer = f.seedUser(t, "+2348000000001", models.RoleBuyer)
	f.farmer = f.seedFarmer(t, "+2348000000002", "Makurdi Hub")
	f.t1 = f.seedUser(t, "+2348000000003", models.RoleTransporter)
	f.t2 = f.seedUser(t, "+2348000000004", models.RoleTransporter)
	f.yam = f.seedProduct(t, f.farmer.ID, "Yam", "tuber", 100)
	f.rice = f.seedProduct(t, f.farmer.ID, "Rice", "bag", 200)
	return f
}

func (f *fixture) seedUser(t *testing.T, phone string, role models.Role) *models.User {
	t.Helper()
	ctx := context.Background()
	u, err := f.store.CreateUser(ctx, phone)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	u.Role = role
	if err := f.store.UpdateProfile(ctx, u); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	return u
}

func (f *fixture) seedFarmer(t *testing.T, phone, hub string) *models.User {
	t.Helper()
	ctx := context.Background()
	u := f.seedUser(t, phone, models.RoleFarmer)
	u.HubName = hub
	u.FarmerStatus = models.FarmerApproved
	if err := f.store.UpdateProfile(ctx, u); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	return u
}

func (f *fixture) seedProduct(t *testing.T, farmerID int64, name, unit string, price int64) *models.Product {
	t.Helper()
	p := &models.Product{FarmerID: farmerID, Name: name, Unit: unit, Price: price}
	if err := f.store.CreateProduct(context.Background(), p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

// drain returns everything queued for the user past the cursor and the new
// high-water mark.
func (f *fixture) drain(t *testing.T, userID, since int64) ([]models.Notification, int64) {
	t.Helper()
	page, err := f.notifier.Poll(context.Background(), userID, since)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	return page.Items, page.Next
}

func kinds(ns []models.Notification) []models.NotificationKind {
	out := make([]models.NotificationKind, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Kind)
	}
	return out
}

func hasKind(ns []models.Notification, k models.NotificationKind) bool {
	for _, n := range ns {
		if n.Kind == k {
			return true
		}
	}
	return false
}

// TestFullDeliveryFlow walks one order from checkout to delivery with two
// competing transporters.
func TestFullDeliveryFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.engine.PlaceOrder(ctx, f.buyer.ID, []ItemInput{
		{ProductID: f.yam.ID, Quantity: 3},
		{ProductID: f.rice.ID, Quantity: 1},
	}, "Wurukum Market")
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if order.Status != models.OrderNeedsQuotes {
		t.Fatalf("new order status = %s", order.Status)
	}
	if order.Origin != "Makurdi Hub" {
		t.Fatalf("origin should come from the farmer hub, got %q", order.Origin)
	}

	items, err := f.store.OrderItems(ctx, order.ID)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	var total int64
	for _, it := range items {
		total += it.Subtotal()
	}
	if total != 500 {
		t.Fatalf("order total = %d, want 500 (3x100 + 1x200)", total)
	}

	// both transporters hear about the new order
	t1Seen, t1Cur := f.drain(t, f.t1.ID, 0)
	t2Seen, t2Cur := f.drain(t, f.t2.ID, 0)
	if !hasKind(t1Seen, models.KindNewOrder) || !hasKind(t2Seen, models.KindNewOrder) {
		t.Fatalf("transporters missed the broadcast: t1=%v t2=%v", kinds(t1Seen), kinds(t2Seen))
	}

	q1, err := f.quotes.Submit(ctx, f.t1.ID, order.ID, 1000, 24)
	if err != nil {
		t.Fatalf("t1 submit: %v", err)
	}
	q2, err := f.quotes.Submit(ctx, f.t2.ID, order.ID, 900, 12)
	if err != nil {
		t.Fatalf("t2 submit: %v", err)
	}

	buyerSeen, buyerCur := f.drain(t, f.buyer.ID, 0)
	count := 0
	for _, n := range buyerSeen {
		if n.Kind == models.KindQuoteReceived {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("buyer should see two QUOTE_RECEIVED rows, got %v", kinds(buyerSeen))
	}

	if err := f.engine.AcceptQuote(ctx, f.buyer.ID, order.ID, q2.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	got, _ := f.store.OrderByID(ctx, order.ID)
	if got.Status != models.OrderQuoteAccepted {
		t.Fatalf("order status = %s after accept", got.Status)
	}
	if got.AcceptedQuoteID == nil || *got.AcceptedQuoteID != q2.ID {
		t.Fatal("accepted_quote_id not recorded")
	}
	if q, _ := f.store.QuoteByID(ctx, q2.ID); q.Status != models.QuoteAccepted {
		t.Fatalf("winner status = %s", q.Status)
	}
	if q, _ := f.store.QuoteByID(ctx, q1.ID); q.Status != models.QuoteDeclined {
		t.Fatalf("loser status = %s, siblings must be declined", q.Status)
	}

	t1Seen, _ = f.drain(t, f.t1.ID, t1Cur)
	t2Seen, t2Cur = f.drain(t, f.t2.ID, t2Cur)
	if !hasKind(t1Seen, models.KindQuoteDeclined) {
		t.Fatalf("loser not told: %v", kinds(t1Seen))
	}
	if !hasKind(t2Seen, models.KindQuoteAccepted) {
		t.Fatalf("winner not told: %v", kinds(t2Seen))
	}

	// only the accepted transporter may drive the trip
	if err := f.engine.StartTrip(ctx, f.t1.ID, order.ID); !errors.Is(err, fault.ErrNotAuthorized) {
		t.Fatalf("rival transporter start = %v, want NotAuthorized", err)
	}

	if err := f.engine.StartTrip(ctx, f.t2.ID, order.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got, _ := f.store.OrderByID(ctx, order.ID); got.Status != models.OrderInTransit {
		t.Fatalf("status = %s after start", got.Status)
	}
	buyerSeen, buyerCur = f.drain(t, f.buyer.ID, buyerCur)
	if !hasKind(buyerSeen, models.KindTripStarted) {
		t.Fatalf("buyer missed trip start: %v", kinds(buyerSeen))
	}

	// milestones cannot be skipped
	if err := f.engine.MarkDelivered(ctx, f.t2.ID, order.ID); !errors.Is(err, fault.ErrInvalidState) {
		t.Fatalf("deliver before arrive = %v, want InvalidState", err)
	}

	if err := f.engine.MarkArrived(ctx, f.t2.ID, order.ID); err != nil {
		t.Fatalf("arrive: %v", err)
	}
	if err := f.engine.MarkDelivered(ctx, f.t2.ID, order.ID); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	got, _ = f.store.OrderByID(ctx, order.ID)
	if got.Status != models.OrderDelivered {
		t.Fatalf("final status = %s", got.Status)
	}
	if q, _ := f.store.QuoteByID(ctx, q2.ID); q.Status != models.QuoteDelivered {
		t.Fatalf("winning quote should be frozen DELIVERED, got %s", q.Status)
	}

	buyerSeen, _ = f.drain(t, f.buyer.ID, buyerCur)
	if !hasKind(buyerSeen, models.KindTripArrived) || !hasKind(buyerSeen, models.KindOrderDelivered) {
		t.Fatalf("buyer missed milestones: %v", kinds(buyerSeen))
	}
	// actor never notifies itself
	t2Seen, _ = f.drain(t, f.t2.ID, t2Cur)
	if hasKind(t2Seen, models.KindTripStarted) {
		t.Fatalf("transporter notified about its own milestone: %v", kinds(t2Seen))
	}

	// terminal order rejects everything
	if err := f.engine.StartTrip(ctx, f.t2.ID, order.ID); !errors.Is(err, fault.ErrInvalidState) {
		t.Fatalf("start after delivery = %v, want InvalidState", err)
	}
	if err := f.engine.CancelOrder(ctx, f.buyer.ID, order.ID); !errors.Is(err, fault.ErrInvalidState) {
		t.Fatalf("cancel after delivery = %v, want InvalidState", err)
	}
}

func TestPlaceOrderRejectsBadCarts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.engine.PlaceOrder(ctx, f.buyer.ID, nil, "Market"); !errors.Is(err, fault.ErrInvalidInput) {
		t.Fatalf("empty cart = %v, want InvalidInput", err)
	}
	if _, err := f.engine.PlaceOrder(ctx, f.buyer.ID, []ItemInput{{ProductID: f.yam.ID, Quantity: 0}}, "Market"); !errors.Is(err, fault.ErrInvalidInput) {
		t.Fatalf("zero quantity = %v, want InvalidInput", err)
	}

	other := f.seedFarmer(t, "+2348000000005", "Gboko Hub")
	foreign := f.seedProduct(t, other.ID, "Maize", "bag", 50)
	_, err := f.engine.PlaceOrder(ctx, f.buyer.ID, []ItemInput{
		{ProductID: f.yam.ID, Quantity: 1},
		{ProductID: foreign.ID, Quantity: 1},
	}, "Market")
	if !errors.Is(err, fault.ErrInvalidInput) {
		t.Fatalf("mixed farmers = %v, want InvalidInput", err)
	}

	if err := f.store.DeactivateProduct(ctx, f.yam.ID, f.farmer.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := f.engine.PlaceOrder(ctx, f.buyer.ID, []ItemInput{{ProductID: f.yam.ID, Quantity: 1}}, "Market"); !errors.Is(err, fault.ErrInvalidInput) {
		t.Fatalf("inactive product = %v, want InvalidInput", err)
	}

	// nothing above may leave an order behind
	orders, err := f.store.OrdersByBuyer(ctx, f.buyer.ID)
	if err != nil {
		t.Fatalf("orders: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("rejected carts leaked %d orders", len(orders))
	}
}

func TestPriceSnapshotSurvivesEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.engine.PlaceOrder(ctx, f.buyer.ID, []ItemInput{{ProductID: f.yam.ID, Quantity: 2}}, "Market")
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	f.yam.Price = 9999
	if err := f.store.UpdateProduct(ctx, f.yam); err != nil {
		t.Fatalf("update product: %v", err)
	}

	items, err := f.store.OrderItems(ctx, order.ID)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 || items[0].UnitPrice != 100 {
		t.Fatalf("snapshot price = %v, want the price at checkout", items)
	}
}

func TestAcceptQuoteGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.engine.PlaceOrder(ctx, f.buyer.ID, []ItemInput{{ProductID: f.yam.ID, Quantity: 1}}, "Market")
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	q1, _ := f.quotes.Submit(ctx, f.t1.ID, order.ID, 1000, 24)
	q2, _ := f.quotes.Submit(ctx, f.t2.ID, order.ID, 900, 12)

	// a stranger sees nothing
	if err := f.engine.AcceptQuote(ctx, f.t1.ID, order.ID, q1.ID); !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("stranger accept = %v, want NotFound", err)
	}
	// quote id from another order
	other, _ := f.engine.PlaceOrder(ctx, f.buyer.ID, []ItemInput{{ProductID: f.yam.ID, Quantity: 1}}, "Market")
	if err := f.engine.AcceptQuote(ctx, f.buyer.ID, other.ID, q1.ID); !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("cross-order accept = %v, want NotFound", err)
	}

	if err := f.engine.AcceptQuote(ctx, f.buyer.ID, order.ID, q2.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	// the race loser retries and must see a settled outcome
	if err := f.engine.AcceptQuote(ctx, f.buyer.ID, order.ID, q2.ID); !errors.Is(err, fault.ErrAlreadyResolved) {
		t.Fatalf("re-accept winner = %v, want AlreadyResolved", err)
	}
	if err := f.engine.AcceptQuote(ctx, f.buyer.ID, order.ID, q1.ID); !errors.Is(err, fault.ErrAlreadyResolved) {
		t.Fatalf("accept a declined sibling = %v, want AlreadyResolved", err)
	}
	if err := f.engine.DeclineQuote(ctx, f.buyer.ID, order.ID, q1.ID); !errors.Is(err, fault.ErrAlreadyResolved) {
		t.Fatalf("decline a declined quote = %v, want AlreadyResolved", err)
	}
}

func TestDeclineQuoteLeavesOrderOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.engine.PlaceOrder(ctx, f.buyer.ID, []ItemInput{{ProductID: f.yam.ID, Quantity: 1}}, "Market")
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	q1, _ := f.quotes.Submit(ctx, f.t1.ID, order.ID, 1000, 24)

	if err := f.engine.DeclineQuote(ctx, f.buyer.ID, order.ID, q1.ID); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if q, _ := f.store.QuoteByID(ctx, q1.ID); q.Status != models.QuoteDeclined {
		t.Fatalf("quote status = %s", q.Status)
	}
	if got, _ := f.store.OrderByID(ctx, order.ID); got.Status != models.OrderNeedsQuotes {
		t.Fatalf("order must stay open for fresh quotes, got %s", got.Status)
	}
	seen, _ := f.drain(t, f.t1.ID, 0)
	if !hasKind(seen, models.KindQuoteDeclined) {
		t.Fatalf("transporter not told: %v", kinds(seen))
	}

	// declining never blocks a new bid
	if _, err := f.quotes.Submit(ctx, f.t1.ID, order.ID, 800, 10); err != nil {
		t.Fatalf("resubmit after decline: %v", err)
	}
}

func TestCancelDeclinesLiveQuotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.engine.PlaceOrder(ctx, f.buyer.ID, []ItemInput{{ProductID: f.yam.ID, Quantity: 1}}, "Market")
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	q1, _ := f.quotes.Submit(ctx, f.t1.ID, order.ID, 1000, 24)

	if err := f.engine.CancelOrder(ctx, f.buyer.ID, order.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got, _ := f.store.OrderByID(ctx, order.ID); got.Status != models.OrderCancelled {
		t.Fatalf("status = %s", got.Status)
	}
	if q, _ := f.store.QuoteByID(ctx, q1.ID); q.Status != models.QuoteDeclined {
		t.Fatalf("live quote after cancel = %s", q.Status)
	}
	seen, _ := f.drain(t, f.t1.ID, 0)
	if !hasKind(seen, models.KindOrderCancelled) {
		t.Fatalf("bidder not told about cancel: %v", kinds(seen))
	}

	if err := f.engine.CancelOrder(ctx, f.buyer.ID, order.ID); !errors.Is(err, fault.ErrAlreadyResolved) {
		t.Fatalf("double cancel = %v, want AlreadyResolved", err)
	}
}

func TestCancelMidTransit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, _ := f.engine.PlaceOrder(ctx, f.buyer.ID, []ItemInput{{ProductID: f.yam.ID, Quantity: 1}}, "Market")
	q, _ := f.quotes.Submit(ctx, f.t1.ID, order.ID, 500, 6)
	if err := f.engine.AcceptQuote(ctx, f.buyer.ID, order.ID, q.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := f.engine.StartTrip(ctx, f.t1.ID, order.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := f.engine.CancelOrder(ctx, f.buyer.ID, order.ID); err != nil {
		t.Fatalf("cancel in transit: %v", err)
	}
	if err := f.engine.MarkArrived(ctx, f.t1.ID, order.ID); !errors.Is(err, fault.ErrInvalidState) {
		t.Fatalf("arrive after cancel = %v, want InvalidState", err)
	}
}

func TestStartTripRequiresAcceptance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, _ := f.engine.PlaceOrder(ctx, f.buyer.ID, []ItemInput{{ProductID: f.yam.ID, Quantity: 1}}, "Market")
	if _, err := f.quotes.Submit(ctx, f.t1.ID, order.ID, 500, 6); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// quote submitted but not accepted: no accepted_quote_id yet
	if err := f.engine.StartTrip(ctx, f.t1.ID, order.ID); !errors.Is(err, fault.ErrInvalidState) {
		t.Fatalf("start before acceptance = %v, want InvalidState", err)
	}
}

func TestOrderIDShape(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.engine.PlaceOrder(ctx, f.buyer.ID, []ItemInput{{ProductID: f.yam.ID, Quantity: 1}}, "Market")
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if len(order.ID) != 12 || order.ID[:4] != "ORD-" {
		t.Fatalf("order id %q should be ORD- plus 8 hex chars", order.ID)
	}
	for _, c := range order.ID[4:] {
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'F') {
			t.Fatalf("order id %q has a non-hex suffix", order.ID)
		}
	}
}
