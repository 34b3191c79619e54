package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/fault"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/storage"
)

func newCartService(t *testing.T) (*Service, *storage.Store) {
	t.Helper()
	s, err := storage.OpenSQLite(":memory:", 5*time.Second)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := s.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewService(NewMemoryBag(), s), s
}

func seedProduct(t *testing.T, s *storage.Store, farmerID int64, name string, price int64) *models.Product {
	t.Helper()
	p := &models.Product{FarmerID: farmerID, Name: name, Unit: "bag", Price: price}
	if err := s.CreateProduct(context.Background(), p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func TestAddValidates(t *testing.T) {
	svc, s := newCartService(t)
	ctx := context.Background()

	farmer, _ := s.CreateUser(ctx, "+234farmer")
	p := seedProduct(t, s, farmer.ID, "Yam", 100)

	if err := svc.Add(ctx, 1, p.ID, 0); !errors.Is(err, fault.ErrInvalidInput) {
		t.Fatalf("zero qty = %v, want InvalidInput", err)
	}
	if err := svc.Add(ctx, 1, 9999, 2); !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("missing product = %v, want NotFound", err)
	}

	if err := s.DeactivateProduct(ctx, p.ID, farmer.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := svc.Add(ctx, 1, p.ID, 2); !errors.Is(err, fault.ErrInvalidInput) {
		t.Fatalf("inactive product = %v, want InvalidInput", err)
	}
}

func TestAddEnforcesSingleFarmer(t *testing.T) {
	svc, s := newCartService(t)
	ctx := context.Background()

	farmerA, _ := s.CreateUser(ctx, "+234a")
	farmerB, _ := s.CreateUser(ctx, "+234b")
	yam := seedProduct(t, s, farmerA.ID, "Yam", 100)
	rice := seedProduct(t, s, farmerA.ID, "Rice", 200)
	maize := seedProduct(t, s, farmerB.ID, "Maize", 50)

	const buyer = int64(1)
	if err := svc.Add(ctx, buyer, yam.ID, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	// same farmer is fine
	if err := svc.Add(ctx, buyer, rice.ID, 1); err != nil {
		t.Fatalf("add same farmer: %v", err)
	}
	// crossing farmers is not
	if err := svc.Add(ctx, buyer, maize.ID, 1); !errors.Is(err, fault.ErrInvalidInput) {
		t.Fatalf("cross-farmer add = %v, want InvalidInput", err)
	}

	items, err := svc.Items(ctx, buyer)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 2 || items[yam.ID] != 3 || items[rice.ID] != 1 {
		t.Fatalf("cart contents wrong: %v", items)
	}

	// emptying the cart resets the farmer constraint
	if err := svc.Clear(ctx, buyer); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := svc.Add(ctx, buyer, maize.ID, 1); err != nil {
		t.Fatalf("add after clear: %v", err)
	}
}

func TestAddOverwritesQuantityAndRemoveDeletes(t *testing.T) {
	svc, s := newCartService(t)
	ctx := context.Background()

	farmer, _ := s.CreateUser(ctx, "+234farmer")
	p := seedProduct(t, s, farmer.ID, "Yam", 100)

	const buyer = int64(7)
	if err := svc.Add(ctx, buyer, p.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Add(ctx, buyer, p.ID, 5); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	items, _ := svc.Items(ctx, buyer)
	if items[p.ID] != 5 {
		t.Fatalf("qty = %d, want last write 5", items[p.ID])
	}

	if err := svc.Remove(ctx, buyer, p.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	items, _ = svc.Items(ctx, buyer)
	if len(items) != 0 {
		t.Fatalf("cart should be empty, got %v", items)
	}
}

func TestBagsAreBuyerScoped(t *testing.T) {
	svc, s := newCartService(t)
	ctx := context.Background()

	farmer, _ := s.CreateUser(ctx, "+234farmer")
	p := seedProduct(t, s, farmer.ID, "Yam", 100)

	if err := svc.Add(ctx, 1, p.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	other, err := svc.Items(ctx, 2)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("buyer 2 sees buyer 1's cart: %v", other)
	}
}
