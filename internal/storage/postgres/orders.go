package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/zippycart/storefront/internal/domain/cart"
	"github.com/zippycart/storefront/internal/domain/order"
)

const (
	appendOrderSQL = `INSERT INTO orders (id, session_id, items, subtotal, coupon_code, discount, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	recentOrdersSQL = `SELECT id, items, subtotal, coupon_code, discount, total, created_at
		FROM orders WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2`
)

// OrderRepository implements the append-only order log backed by PostgreSQL,
// scoped to one session. Orders are never updated or deleted here; retention
// cleanup is an external concern.
type OrderRepository struct {
	pool      *pgxpool.Pool
	sessionID string
}

var _ order.Repository = (*OrderRepository)(nil)

// NewOrderRepository returns an OrderRepository bound to one session.
func NewOrderRepository(pool *pgxpool.Pool, sessionID string) *OrderRepository {
	return &OrderRepository{pool: pool, sessionID: sessionID}
}

// Append persists a new order. The item snapshots are serialized to JSON for
// storage in the JSONB column.
func (r *OrderRepository) Append(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = r.pool.Exec(ctx, appendOrderSQL,
		o.ID, r.sessionID, itemsJSON, o.Subtotal, o.CouponCode, o.Discount, o.Total, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appending order %q: %w", o.ID, err)
	}
	return nil
}

// Recent returns up to limit of the session's orders, newest first.
func (r *OrderRepository) Recent(ctx context.Context, limit int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, recentOrdersSQL, r.sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing recent orders: %w", err)
	}
	return orders, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
		subtotal  decimal.Decimal
		discount  decimal.Decimal
		total     decimal.Decimal
		createdAt time.Time
	)
	if err := row.Scan(&o.ID, &itemsJSON, &subtotal, &o.CouponCode, &discount, &total, &createdAt); err != nil {
		return order.Order{}, err
	}

	var items []cart.Item
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return order.Order{}, fmt.Errorf("unmarshaling order items: %w", err)
	}

	o.Items = items
	o.Subtotal = subtotal
	o.Discount = discount
	o.Total = total
	o.CreatedAt = createdAt
	return o, nil
}
