package model

import "time"

// Store represents a liquor store listed on the marketplace.  A store shares
// its primary key with the owning store-role user (one store per store
// account), so ownership checks reduce to comparing the session user id with
// the store id.  Stores are created together with their owner account and are
// never deleted; deactivation is the supported way to retire one.
//
// QRImageURL points at the uploaded bank-transfer QR image.  Checkout is
// blocked for stores that have not configured it yet.
type Store struct {
	ID          uint64    // stores.id (= owner users.id)
	Name        string    // stores.name
	Description string    // stores.description
	Address     string    // stores.address
	QRImageURL  string    // stores.qr_image_url (empty until the owner uploads one)
	IsActive    bool      // stores.is_active
	CreatedAt   time.Time // stores.created_at
	UpdatedAt   time.Time // stores.updated_at
}
