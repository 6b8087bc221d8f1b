package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/catalicor/catalicor/internal/model"
)

// ErrProductNotFound is returned when a product cannot be found in the DB.
var ErrProductNotFound = errors.New("product not found")

// ProductRepo encapsulates all database queries related to products.  Every
// mutating method takes the owning store id and folds it into the WHERE
// clause, so ownership is enforced at the persistence boundary rather than
// left to the UI.
type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// Create inserts a new product for the given store.  On success the
// product's ID field is populated with the auto-generated value and the
// timestamp fields are read back so callers receive a complete record.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	const qInsert = `INSERT INTO products (store_id, name, price_cents, stock, image_url) VALUES (?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, qInsert, p.StoreID, p.Name, p.PriceCents, p.Stock, p.ImageURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)

	const qSelect = `SELECT created_at, updated_at FROM products WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, p.ID).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByID fetches a product by id regardless of owner.  Used by the cart
// handler to snapshot a line item.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	const q = `SELECT id, store_id, name, price_cents, stock, image_url, created_at, updated_at
	           FROM products WHERE id = ?`
	var p model.Product
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.StoreID, &p.Name, &p.PriceCents, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByStore returns all products of a store ordered by id.
func (r *ProductRepo) ListByStore(ctx context.Context, storeID uint64) ([]*model.Product, error) {
	const q = `SELECT id, store_id, name, price_cents, stock, image_url, created_at, updated_at
	           FROM products WHERE store_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Product
	for rows.Next() {
		p := new(model.Product)
		if err := rows.Scan(&p.ID, &p.StoreID, &p.Name, &p.PriceCents, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update edits a product's mutable fields if it belongs to the given store.
// store_id itself is immutable and never part of the SET list.  It returns
// ErrProductNotFound when the product does not exist and ErrForbidden when
// it exists but is owned by a different store.
func (r *ProductRepo) Update(ctx context.Context, id, storeID uint64, name string, priceCents int64, stock int, imageURL string) error {
	const q = `UPDATE products
	           SET name = ?, price_cents = ?, stock = ?, image_url = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND store_id = ?`
	res, err := r.db.ExecContext(ctx, q, name, priceCents, stock, imageURL, id, storeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.classifyMiss(ctx, id)
	}
	return nil
}

// Delete removes a product if it belongs to the given store.  Placed orders
// keep their own item snapshots, so deleting a product never touches order
// history.
func (r *ProductRepo) Delete(ctx context.Context, id, storeID uint64) error {
	const q = `DELETE FROM products WHERE id = ? AND store_id = ?`
	res, err := r.db.ExecContext(ctx, q, id, storeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.classifyMiss(ctx, id)
	}
	return nil
}

// classifyMiss distinguishes "no such product" from "owned by someone else"
// after a zero-row write so handlers can answer 404 vs 403 precisely.
func (r *ProductRepo) classifyMiss(ctx context.Context, id uint64) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT TRUE FROM products WHERE id = ? LIMIT 1`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	return ErrForbidden
}
