package model

import "time"

// Order statuses.  An order is created in pending_payment_verification once
// the client has uploaded a transfer receipt.  The store owner then either
// accepts it (payment verified) or cancels it (payment rejected); an accepted
// order is finally marked delivered.  cancelled and delivered are terminal.
const (
	StatusPendingPaymentVerification = "pending_payment_verification"
	StatusAccepted                   = "accepted"
	StatusCancelled                  = "cancelled"
	StatusDelivered                  = "delivered"
)

// PaymentMethodQRTransfer is the only payment method currently supported:
// an off-band bank transfer evidenced by an uploaded receipt image.
const PaymentMethodQRTransfer = "qr_transfer"

// ValidStatus reports whether s is a known order status string.
func ValidStatus(s string) bool {
	switch s {
	case StatusPendingPaymentVerification, StatusAccepted, StatusCancelled, StatusDelivered:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to another.
// The graph only moves forward:
//
//	pending_payment_verification -> accepted | cancelled
//	accepted                     -> delivered
//
// Terminal states never reopen and no transition is reflexive.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPendingPaymentVerification:
		return to == StatusAccepted || to == StatusCancelled
	case StatusAccepted:
		return to == StatusDelivered
	}
	return false
}

// Order is a persisted purchase: a value snapshot of the client's cart taken
// at checkout plus the payment proof.  Items are copied by value, so later
// product edits never affect a placed order.  TotalCents always equals the
// sum of PriceCents*Quantity over Items.
type Order struct {
	ID            uint64      // orders.id
	UserID        uint64      // orders.user_id (the buying client)
	StoreID       uint64      // orders.store_id (the selling store)
	TotalCents    int64       // orders.total_cents
	Status        string      // orders.status
	PaymentMethod string      // orders.payment_method
	ReceiptURL    string      // orders.receipt_url
	Items         []OrderItem // order_items rows, populated on reads
	CreatedAt     time.Time   // orders.created_at
	UpdatedAt     time.Time   // orders.updated_at
}

// OrderItem is one line of an order, frozen at checkout time.
type OrderItem struct {
	ID         uint64 // order_items.id
	OrderID    uint64 // order_items.order_id
	ProductID  uint64 // order_items.product_id
	Name       string // order_items.name (snapshot)
	PriceCents int64  // order_items.price_cents (snapshot)
	Quantity   int    // order_items.quantity
}
