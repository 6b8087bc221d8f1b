// Package cart implements the in-memory shopping cart aggregate.  Carts are
// ephemeral: they live only in server memory, keyed by user id, and are lost
// on restart.  A cart may temporarily contain lines from several stores, but
// checkout requires all lines to share one store id; Snapshot verifies that
// and captures the lines and total in the same critical section, so the
// order written from it is always internally consistent.
package cart

import (
	"errors"
	"sync"
)

// ErrEmpty is returned by SingleStoreID when the cart holds no lines.
var ErrEmpty = errors.New("cart is empty")

// ErrMixedStores is returned by SingleStoreID when lines come from more than
// one store.  Checkout must surface this and create no order.
var ErrMixedStores = errors.New("cart contains products from more than one store")

// ErrLineNotFound is returned when a quantity update or removal targets a
// product that is not in the cart.
var ErrLineNotFound = errors.New("product not in cart")

// ErrBadQuantity is returned when a quantity update asks for less than one
// unit.  Removal stays an explicit operation rather than a side effect of
// setting quantity to zero.
var ErrBadQuantity = errors.New("quantity must be at least 1")

// Line is one product entry in a cart.  Name, price and image are snapshots
// taken when the product was added; they are what gets copied onto the order
// at checkout.
type Line struct {
	ProductID  uint64 `json:"product_id"`
	StoreID    uint64 `json:"store_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
	ImageURL   string `json:"image_url"`
}

// Cart holds the line items of a single user.  All methods are safe for
// concurrent use; a user may have several tabs open.
type Cart struct {
	mu    sync.Mutex
	lines []Line // insertion order preserved
}

// Add inserts a new line or, when the product is already present, increments
// the existing line's quantity.  Quantities below one are coerced to one so
// "add to cart" from a catalog page always adds at least a single unit.  No
// stock check happens here.
func (c *Cart) Add(l Line) {
	if l.Quantity < 1 {
		l.Quantity = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ProductID == l.ProductID {
			c.lines[i].Quantity += l.Quantity
			return
		}
	}
	c.lines = append(c.lines, l)
}

// UpdateQuantity sets the quantity of an existing line.  qty < 1 is rejected
// with ErrBadQuantity and the line is left untouched.
func (c *Cart) UpdateQuantity(productID uint64, qty int) error {
	if qty < 1 {
		return ErrBadQuantity
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity = qty
			return nil
		}
	}
	return ErrLineNotFound
}

// Remove deletes the line for the given product.
func (c *Cart) Remove(productID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

// Lines returns a copy of the current lines.  Callers get a snapshot they
// can hold across a checkout without racing later cart mutations.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// TotalCents returns the sum of price*quantity over all lines.  This is the
// exact value persisted as the order total at checkout.
func (c *Cart) TotalCents() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for i := range c.lines {
		total += c.lines[i].PriceCents * int64(c.lines[i].Quantity)
	}
	return total
}

// SingleStoreID returns the store id shared by every line.  ErrEmpty when
// the cart has no lines, ErrMixedStores when lines span stores.
func (c *Cart) SingleStoreID() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.singleStoreIDLocked()
}

func (c *Cart) singleStoreIDLocked() (uint64, error) {
	if len(c.lines) == 0 {
		return 0, ErrEmpty
	}
	storeID := c.lines[0].StoreID
	for i := 1; i < len(c.lines); i++ {
		if c.lines[i].StoreID != storeID {
			return 0, ErrMixedStores
		}
	}
	return storeID, nil
}

// Snapshot is a self-consistent view of a cart: the line copies, the store
// they all belong to and their exact total, taken under one lock.  An order
// built from a Snapshot cannot mix stores or carry a total that disagrees
// with its items, no matter what other tabs do to the cart meanwhile.
type Snapshot struct {
	Lines      []Line
	StoreID    uint64
	TotalCents int64
}

// Snapshot validates the single-store invariant and captures lines, store id
// and total atomically.  ErrEmpty and ErrMixedStores as in SingleStoreID.
func (c *Cart) Snapshot() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	storeID, err := c.singleStoreIDLocked()
	if err != nil {
		return Snapshot{}, err
	}
	lines := make([]Line, len(c.lines))
	copy(lines, c.lines)
	var total int64
	for i := range lines {
		total += lines[i].PriceCents * int64(lines[i].Quantity)
	}
	return Snapshot{Lines: lines, StoreID: storeID, TotalCents: total}, nil
}

// Clear empties the cart.  Called after a successful checkout (only once the
// order write has been acknowledged) or on explicit user request.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Store keeps one cart per user id, creating carts lazily.  It is the
// process-wide registry handed to the client handlers.
type Store struct {
	mu    sync.Mutex
	carts map[uint64]*Cart
}

func NewStore() *Store {
	return &Store{carts: make(map[uint64]*Cart)}
}

// Get returns the cart for a user, creating an empty one on first use.
func (s *Store) Get(userID uint64) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	if !ok {
		c = &Cart{}
		s.carts[userID] = c
	}
	return c
}
