// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names. One queue per event kind; the routing key equals the queue
// name on the default exchange.
const (
	OrderPlacedQueue = "order.placed"
	OrderStatusQueue = "order.status"
)

// OrderPlacedEvent is published when a client completes checkout.  It carries
// enough information for downstream consumers to log or notify the store
// without querying the primary database.
type OrderPlacedEvent struct {
	OrderID       uint64           `json:"order_id"`
	UserID        uint64           `json:"user_id"`
	StoreID       uint64           `json:"store_id"`
	Items         []OrderEventItem `json:"items"`
	TotalCents    int64            `json:"total_cents"`
	PaymentMethod string           `json:"payment_method"`
	ReceiptURL    string           `json:"receipt_url"`
	PlacedAt      string           `json:"placed_at"`
}

// OrderEventItem is one order line inside an event payload.
type OrderEventItem struct {
	ProductID  uint64 `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
}

// OrderStatusEvent is published when a store owner moves an order through
// its lifecycle (accepted, cancelled, delivered).
type OrderStatusEvent struct {
	OrderID   uint64 `json:"order_id"`
	UserID    uint64 `json:"user_id"`
	StoreID   uint64 `json:"store_id"`
	Status    string `json:"status"`
	ChangedAt string `json:"changed_at"`
}
