package cart

import (
	"context"
	"sync"
)

// MemoryBag is the single-process fallback used in development and tests.
type MemoryBag struct {
	mu    sync.RWMutex
	carts map[int64]Items
}

func NewMemoryBag() *MemoryBag {
	return &MemoryBag{carts: make(map[int64]Items)}
}

func (b *MemoryBag) Get(_ context.Context, buyerID int64) (Items, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	items := make(Items, len(b.carts[buyerID]))
	for k, v := range b.carts[buyerID] {
		items[k] = v
	}
	return items, nil
}

func (b *MemoryBag) SetItem(_ context.Context, buyerID, productID, qty int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	items, ok := b.carts[buyerID]
	if !ok {
		items = make(Items)
		b.carts[buyerID] = items
	}
	if qty <= 0 {
		delete(items, productID)
		return nil
	}
	items[productID] = qty
	return nil
}

func (b *MemoryBag) Clear(_ context.Context, buyerID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.carts, buyerID)
	return nil
}
