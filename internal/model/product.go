package model

import "time"

// Product is a catalog entry owned by exactly one store.  StoreID is fixed at
// creation and never updated.  Prices are integer cents to keep totals exact.
// Stock is informational only: adding a product to a cart performs no stock
// check and placing an order does not decrement it.
type Product struct {
	ID         uint64    // products.id
	StoreID    uint64    // products.store_id (immutable)
	Name       string    // products.name
	PriceCents int64     // products.price_cents (> 0)
	Stock      int       // products.stock (>= 0)
	ImageURL   string    // products.image_url
	CreatedAt  time.Time // products.created_at
	UpdatedAt  time.Time // products.updated_at
}
