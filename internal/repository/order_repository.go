// This file holds the order repository.  Orders are written exactly once at
// checkout, as a snapshot of the cart, and afterwards only their status
// column changes.  Status transitions are validated inside a row-locking
// transaction so that two concurrent dashboard clicks cannot push an order
// through an illegal path; the loser of the race gets ErrBadTransition.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/catalicor/catalicor/internal/model"
)

// ErrOrderNotFound is returned when an order cannot be found in the DB.
var ErrOrderNotFound = errors.New("order not found")

// ErrBadTransition is returned when a requested status change is not on the
// allowed transition graph.  Handlers translate it into HTTP 409.
var ErrBadTransition = errors.New("illegal status transition")

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// Create persists an order together with its item snapshot in a single
// transaction.  Either the order and all of its items exist afterwards, or
// nothing does; callers rely on that to keep the cart intact on failure.
// On success o.ID is populated and timestamps are read back.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const qOrder = `INSERT INTO orders (user_id, store_id, total_cents, status, payment_method, receipt_url)
	                VALUES (?,?,?,?,?,?)`
	res, err := tx.ExecContext(ctx, qOrder,
		o.UserID, o.StoreID, o.TotalCents, o.Status, o.PaymentMethod, o.ReceiptURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)

	const qItem = `INSERT INTO order_items (order_id, product_id, name, price_cents, quantity)
	               VALUES (?,?,?,?,?)`
	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		ires, err := tx.ExecContext(ctx, qItem, it.OrderID, it.ProductID, it.Name, it.PriceCents, it.Quantity)
		if err != nil {
			return err
		}
		iid, err := ires.LastInsertId()
		if err != nil {
			return err
		}
		it.ID = uint64(iid)
	}

	const qSelect = `SELECT created_at, updated_at FROM orders WHERE id = ?`
	if err := tx.QueryRowContext(ctx, qSelect, o.ID).Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListByStore returns all orders received by a store, newest first, with
// their items populated.  The store dashboard renders this snapshot both on
// page load and on every live-feed notification.
func (r *OrderRepo) ListByStore(ctx context.Context, storeID uint64) ([]*model.Order, error) {
	const q = `SELECT id, user_id, store_id, total_cents, status, payment_method, receipt_url, created_at, updated_at
	           FROM orders WHERE store_id = ? ORDER BY id DESC`
	return r.list(ctx, q, storeID)
}

// ListByUser returns the order history of a client, newest first, with items.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Order, error) {
	const q = `SELECT id, user_id, store_id, total_cents, status, payment_method, receipt_url, created_at, updated_at
	           FROM orders WHERE user_id = ? ORDER BY id DESC`
	return r.list(ctx, q, userID)
}

func (r *OrderRepo) list(ctx context.Context, query string, arg uint64) ([]*model.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Order
	for rows.Next() {
		o := new(model.Order)
		if err := rows.Scan(&o.ID, &o.UserID, &o.StoreID, &o.TotalCents, &o.Status,
			&o.PaymentMethod, &o.ReceiptURL, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range out {
		if err := r.loadItems(ctx, o); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *OrderRepo) loadItems(ctx context.Context, o *model.Order) error {
	const q = `SELECT id, order_id, product_id, name, price_cents, quantity
	           FROM order_items WHERE order_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.PriceCents, &it.Quantity); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

// UpdateStatus moves an order to a new status on behalf of the owning store.
// The current status is read under FOR UPDATE so concurrent transitions
// serialize; the requested edge is then checked against the transition
// graph.  Returns ErrOrderNotFound when the order does not exist,
// ErrForbidden when it belongs to a different store, and ErrBadTransition
// when the edge is not allowed.  The updated order is returned on success.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID, storeID uint64, newStatus string) (*model.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var (
		dbStoreID uint64
		current   string
	)
	const qLock = `SELECT store_id, status FROM orders WHERE id = ? FOR UPDATE`
	if err := tx.QueryRowContext(ctx, qLock, orderID).Scan(&dbStoreID, &current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if dbStoreID != storeID {
		return nil, ErrForbidden
	}
	if !model.CanTransition(current, newStatus) {
		return nil, ErrBadTransition
	}

	const qUpdate = `UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := tx.ExecContext(ctx, qUpdate, newStatus, orderID); err != nil {
		return nil, err
	}

	o := &model.Order{}
	const qSelect = `SELECT id, user_id, store_id, total_cents, status, payment_method, receipt_url, created_at, updated_at
	                 FROM orders WHERE id = ?`
	if err := tx.QueryRowContext(ctx, qSelect, orderID).Scan(&o.ID, &o.UserID, &o.StoreID, &o.TotalCents,
		&o.Status, &o.PaymentMethod, &o.ReceiptURL, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}
