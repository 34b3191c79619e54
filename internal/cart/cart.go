// Package cart keeps each buyer's pre-checkout selection. The cart is
// session-layer state, not store state: handlers see it as an opaque
// per-buyer bag that is reconciled against the store at checkout time.
package cart

import (
	"context"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/fault"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/storage"
)

// Items maps product id to quantity.
type Items map[int64]int64

// Bag is the minimal persistence surface; redis-backed in production,
// in-memory when REDIS_ADDR is unset.
type Bag interface {
	Get(ctx context.Context, buyerID int64) (Items, error)
	SetItem(ctx context.Context, buyerID, productID, qty int64) error
	Clear(ctx context.Context, buyerID int64) error
}

type Service struct {
	bag   Bag
	store *storage.Store
}

func NewService(bag Bag, store *storage.Store) *Service {
	return &Service{bag: bag, store: store}
}

// Add puts qty of a product in the buyer's cart. The single-farmer rule is
// checked here for early feedback and re-checked at checkout, since the
// cart can outlive product changes.
func (s *Service) Add(ctx context.Context, buyerID, productID, qty int64) error {
	if qty <= 0 {
		return fault.Wrap(fault.ErrInvalidInput, "quantity must be positive")
	}
	p, err := s.store.ProductByID(ctx, productID)
	if err != nil {
		return err
	}
	if !p.Active {
		return fault.Wrap(fault.ErrInvalidInput, "product %d is no longer available", productID)
	}

	items, err := s.bag.Get(ctx, buyerID)
	if err != nil {
		return err
	}
	for existingID := range items {
		if existingID == productID {
			continue
		}
		other, err := s.store.ProductByID(ctx, existingID)
		if err != nil {
			return err
		}
		if other.FarmerID != p.FarmerID {
			return fault.Wrap(fault.ErrInvalidInput, "cart is limited to one farmer at a time")
		}
		break
	}
	return s.bag.SetItem(ctx, buyerID, productID, qty)
}

func (s *Service) Remove(ctx context.Context, buyerID, productID int64) error {
	return s.bag.SetItem(ctx, buyerID, productID, 0)
}

func (s *Service) Items(ctx context.Context, buyerID int64) (Items, error) {
	return s.bag.Get(ctx, buyerID)
}

func (s *Service) Clear(ctx context.Context, buyerID int64) error {
	return s.bag.Clear(ctx, buyerID)
}
