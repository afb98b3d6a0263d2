package persist

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/zippycart/storefront/internal/domain/cart"
)

// CartSnapshots persists and restores cart snapshots. Save-then-load must
// round-trip exactly: identical quantities, selection flags and tags.
type CartSnapshots interface {
	SaveCart(ctx context.Context, items []cart.Item) error
	LoadCart(ctx context.Context) ([]cart.Item, error)
}

// WishlistSnapshots persists and restores the saved-product set.
type WishlistSnapshots interface {
	SaveWishlist(ctx context.Context, productIDs []string) error
	LoadWishlist(ctx context.Context) ([]string, error)
}

// Snapshots is the full persistence surface a bridge side provides.
type Snapshots interface {
	CartSnapshots
	WishlistSnapshots
}

// Bridge combines a durable local store with a best-effort remote sync. The
// local side is authoritative: remote failures are logged and swallowed, and
// the next debounce cycle retries with current state. A nil remote disables
// sync entirely.
type Bridge struct {
	local  Snapshots
	remote Snapshots
}

var _ Snapshots = (*Bridge)(nil)

// NewBridge creates a bridge over the given stores. remote may be nil.
func NewBridge(local, remote Snapshots) *Bridge {
	return &Bridge{local: local, remote: remote}
}

// SaveCart writes the snapshot locally and then syncs it remotely. The remote
// attempt happens even when the local write fails, so a broken disk does not
// take the sync channel down with it.
func (b *Bridge) SaveCart(ctx context.Context, items []cart.Item) error {
	localErr := b.local.SaveCart(ctx, items)
	if b.remote != nil {
		if err := b.remote.SaveCart(ctx, items); err != nil {
			zctx.From(ctx).Warn("remote cart sync failed", zap.Error(err))
		}
	}
	if localErr != nil {
		return errors.Wrap(localErr, "save cart snapshot")
	}
	return nil
}

// LoadCart restores the cart snapshot. Local wins; an empty or failed local
// read falls back to the remote copy when one is configured.
func (b *Bridge) LoadCart(ctx context.Context) ([]cart.Item, error) {
	items, err := b.local.LoadCart(ctx)
	if err == nil && len(items) > 0 {
		return items, nil
	}
	if b.remote == nil {
		return items, err
	}

	remote, rerr := b.remote.LoadCart(ctx)
	if rerr != nil {
		zctx.From(ctx).Warn("remote cart load failed", zap.Error(rerr))
		return items, err
	}
	if len(remote) == 0 {
		return items, err
	}
	return remote, nil
}

// SaveWishlist mirrors SaveCart for the wishlist snapshot.
func (b *Bridge) SaveWishlist(ctx context.Context, productIDs []string) error {
	localErr := b.local.SaveWishlist(ctx, productIDs)
	if b.remote != nil {
		if err := b.remote.SaveWishlist(ctx, productIDs); err != nil {
			zctx.From(ctx).Warn("remote wishlist sync failed", zap.Error(err))
		}
	}
	if localErr != nil {
		return errors.Wrap(localErr, "save wishlist snapshot")
	}
	return nil
}

// LoadWishlist mirrors LoadCart for the wishlist snapshot.
func (b *Bridge) LoadWishlist(ctx context.Context) ([]string, error) {
	ids, err := b.local.LoadWishlist(ctx)
	if err == nil && len(ids) > 0 {
		return ids, nil
	}
	if b.remote == nil {
		return ids, err
	}

	remote, rerr := b.remote.LoadWishlist(ctx)
	if rerr != nil {
		zctx.From(ctx).Warn("remote wishlist load failed", zap.Error(rerr))
		return ids, err
	}
	if len(remote) == 0 {
		return ids, err
	}
	return remote, nil
}
