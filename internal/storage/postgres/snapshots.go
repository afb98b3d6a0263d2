package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zippycart/storefront/internal/domain/cart"
	"github.com/zippycart/storefront/internal/persist"
)

const (
	upsertCartSnapshotSQL = `INSERT INTO cart_snapshots (session_id, items, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_id) DO UPDATE SET items = EXCLUDED.items, updated_at = now()`

	getCartSnapshotSQL = `SELECT items FROM cart_snapshots WHERE session_id = $1`

	upsertWishlistSnapshotSQL = `INSERT INTO wishlist_snapshots (session_id, product_ids, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_id) DO UPDATE SET product_ids = EXCLUDED.product_ids, updated_at = now()`

	getWishlistSnapshotSQL = `SELECT product_ids FROM wishlist_snapshots WHERE session_id = $1`
)

// SnapshotRepository is the remote sync target for one session's cart and
// wishlist. Snapshots are whole-state upserts keyed by the session ID, so a
// sync applied late simply restates what the session already wrote.
type SnapshotRepository struct {
	pool      *pgxpool.Pool
	sessionID string
}

var _ persist.Snapshots = (*SnapshotRepository)(nil)

// NewSnapshotRepository returns a SnapshotRepository bound to one session.
func NewSnapshotRepository(pool *pgxpool.Pool, sessionID string) *SnapshotRepository {
	return &SnapshotRepository{pool: pool, sessionID: sessionID}
}

// SaveCart upserts the session's cart snapshot as JSONB.
func (r *SnapshotRepository) SaveCart(ctx context.Context, items []cart.Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshaling cart items: %w", err)
	}
	if _, err := r.pool.Exec(ctx, upsertCartSnapshotSQL, r.sessionID, data); err != nil {
		return fmt.Errorf("upserting cart snapshot for session %q: %w", r.sessionID, err)
	}
	return nil
}

// LoadCart returns the session's cart snapshot; no row means an empty cart.
func (r *SnapshotRepository) LoadCart(ctx context.Context) ([]cart.Item, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, getCartSnapshotSQL, r.sessionID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading cart snapshot for session %q: %w", r.sessionID, err)
	}

	var items []cart.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshaling cart snapshot: %w", err)
	}
	return items, nil
}

// SaveWishlist upserts the session's wishlist snapshot as JSONB.
func (r *SnapshotRepository) SaveWishlist(ctx context.Context, productIDs []string) error {
	data, err := json.Marshal(productIDs)
	if err != nil {
		return fmt.Errorf("marshaling wishlist: %w", err)
	}
	if _, err := r.pool.Exec(ctx, upsertWishlistSnapshotSQL, r.sessionID, data); err != nil {
		return fmt.Errorf("upserting wishlist snapshot for session %q: %w", r.sessionID, err)
	}
	return nil
}

// LoadWishlist returns the session's wishlist snapshot; no row means empty.
func (r *SnapshotRepository) LoadWishlist(ctx context.Context) ([]string, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, getWishlistSnapshotSQL, r.sessionID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading wishlist snapshot for session %q: %w", r.sessionID, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("unmarshaling wishlist snapshot: %w", err)
	}
	return ids, nil
}
