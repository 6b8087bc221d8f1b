// This file defines repository methods for the stores table.  A store shares
// its primary key with the owning user, so every owner-scoped method simply
// filters on id = owner's user id.  Only minimal fields (name, description,
// address) should be exposed in public listings; the QR image URL is handed
// out at the payment step.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/catalicor/catalicor/internal/model"
)

// ErrStoreNotFound is returned when a store cannot be found in the DB.
var ErrStoreNotFound = errors.New("store not found")

// StoreRepo encapsulates all database queries related to stores.
type StoreRepo struct {
	db *sql.DB
}

// NewStoreRepo constructs a StoreRepo with the provided DB handle.
func NewStoreRepo(db *sql.DB) *StoreRepo {
	return &StoreRepo{db: db}
}

// GetByID fetches a store by its ID.  It returns ErrStoreNotFound if no row
// exists.
func (r *StoreRepo) GetByID(ctx context.Context, id uint64) (*model.Store, error) {
	const q = `SELECT id, name, description, address, qr_image_url, is_active, created_at, updated_at
	           FROM stores WHERE id = ?`
	var s model.Store
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.Name, &s.Description, &s.Address, &s.QRImageURL, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListActive returns all active stores ordered by id.  Used by the public
// browse endpoints, so inactive stores are filtered out here rather than in
// every handler.
func (r *StoreRepo) ListActive(ctx context.Context) ([]*model.Store, error) {
	const q = `SELECT id, name, description, address, is_active, created_at, updated_at
	           FROM stores WHERE is_active = TRUE ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Store
	for rows.Next() {
		s := new(model.Store)
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Address, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProfile updates the owner-editable fields of a store.  It returns
// sql.ErrNoRows when no row is affected (store missing), which handlers map
// to 404.  The id doubles as the ownership check: a store user can only ever
// address the row matching its own session id.
func (r *StoreRepo) UpdateProfile(ctx context.Context, id uint64, name, description, address string) error {
	const q = `UPDATE stores
	           SET name = ?, description = ?, address = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, name, description, address, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetQRImageURL records the durable URL of the store's uploaded payment QR
// image.  Overwriting an existing URL is allowed; the blob store keeps a
// fixed path per store so the old image is replaced in place.
func (r *StoreRepo) SetQRImageURL(ctx context.Context, id uint64, url string) error {
	const q = `UPDATE stores SET qr_image_url = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, url, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
