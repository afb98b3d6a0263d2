// Package session wires one shopper's cart, wishlist, coupon validation and
// order log together with their persistence bridge. It is the single wiring
// point for the core; each Session is singly-owned by the UI collaborator
// holding it.
package session

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/zippycart/storefront/internal/domain/cart"
	"github.com/zippycart/storefront/internal/domain/catalog"
	"github.com/zippycart/storefront/internal/domain/coupon"
	"github.com/zippycart/storefront/internal/domain/order"
	"github.com/zippycart/storefront/internal/domain/wishlist"
	"github.com/zippycart/storefront/internal/persist"
	"github.com/zippycart/storefront/internal/storage/local"
	"github.com/zippycart/storefront/internal/storage/postgres"
	"github.com/zippycart/storefront/pkg/health"
)

// Session is one shopper's cart/promotions core, fully wired.
type Session struct {
	ID        string
	Cart      *cart.Store
	Wishlist  *wishlist.Store
	Validator *coupon.Validator
	Orders    *order.Log
	Checkout  *order.Checkout
	Health    *health.Monitor

	lg             *zap.Logger
	pool           *pgxpool.Pool
	cartWrites     *persist.Debouncer[[]cart.Item]
	wishlistWrites *persist.Debouncer[[]string]
}

// Option customizes session wiring.
type Option func(*options)

type options struct {
	catalog catalog.Repository
	now     func() time.Time
}

// WithCatalog overrides the product catalog. Without a database this is the
// only way to give the cart real products to look up.
func WithCatalog(cat catalog.Repository) Option {
	return func(o *options) { o.catalog = cat }
}

// WithNow fixes the validation clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds a Session: durable local storage, optional remote sync when a
// database URL is configured, debounced snapshot writers, and the coupon
// validation and checkout flow. Snapshots from a previous run are restored
// into the stores before New returns.
//
// A missing or unreachable database degrades to local-only persistence with
// the built-in demo coupon registry; it is never fatal.
func New(ctx context.Context, lg *zap.Logger, cfg *Config, opts ...Option) (*Session, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
		lg.Info("generated session id", zap.String("session_id", sessionID))
	}
	ctx = zctx.Base(ctx, lg)

	localStore, err := local.NewStore(cfg.DataDir)
	if err != nil {
		return nil, errors.Wrap(err, "open local store")
	}
	orderLog, err := local.NewOrderLog(cfg.DataDir)
	if err != nil {
		return nil, errors.Wrap(err, "open order log")
	}

	s := &Session{ID: sessionID, lg: lg}

	// Remote side of the bridge, registry and catalog. All optional.
	var (
		remote    persist.Snapshots
		registry  coupon.Registry
		usage     coupon.UsageRecorder
		cat       catalog.Repository
		orderRepo order.Repository = orderLog
	)
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		s.pool = pool

		remote = postgres.NewSnapshotRepository(pool, sessionID)
		cat = postgres.NewProductRepository(pool)
		orderRepo = &fanoutOrders{local: orderLog, remote: postgres.NewOrderRepository(pool, sessionID)}

		couponRepo := postgres.NewCouponRepository(pool)
		cached := coupon.NewCachedRegistry(couponRepo, cfg.CouponCache.TTL)
		if err := cached.Prime(ctx); err != nil {
			lg.Warn("coupon prefilter priming failed", zap.Error(err))
		}
		registry = cached
		usage = cached
	} else {
		lg.Info("no database configured, using demo coupon registry")
		static := coupon.NewStaticRegistry(coupon.DemoCoupons()...)
		registry = static
		usage = static
		cat = catalog.NewStaticRepository()
	}
	if o.catalog != nil {
		cat = o.catalog
	}

	bridge := persist.NewBridge(localStore, remote)
	s.cartWrites = persist.NewDebouncer(ctx, cfg.Debounce.Window, bridge.SaveCart)
	s.wishlistWrites = persist.NewDebouncer(ctx, cfg.Debounce.Window, bridge.SaveWishlist)

	s.Cart = cart.NewStore(cat,
		cart.WithSnapshotWriter(s.cartWrites),
		cart.WithLogger(lg.Named("cart")),
	)
	s.Wishlist = wishlist.NewStore(
		wishlist.WithSnapshotWriter(s.wishlistWrites),
		wishlist.WithLogger(lg.Named("wishlist")),
	)

	// Restore the previous run's state before anything mutates.
	if items, err := bridge.LoadCart(ctx); err != nil {
		lg.Warn("cart snapshot load failed, starting empty", zap.Error(err))
	} else if len(items) > 0 {
		s.Cart.Replace(items)
	}
	if ids, err := bridge.LoadWishlist(ctx); err != nil {
		lg.Warn("wishlist snapshot load failed, starting empty", zap.Error(err))
	} else if len(ids) > 0 {
		s.Wishlist.Replace(ids)
	}

	s.Validator = coupon.NewValidator(registry)
	if o.now != nil {
		s.Validator.WithNow(o.now)
	}
	s.Orders = order.NewLog(orderRepo, s.Cart, lg.Named("orders"))
	s.Checkout = order.NewCheckout(s.Cart, s.Validator, usage, s.Orders)

	s.Health = health.NewMonitor()
	s.Health.AddCheck("local", 5*time.Second, health.DataDirWritable(cfg.DataDir))
	if s.pool != nil {
		s.Health.AddCheck("remote", 5*time.Second, health.DatabasePing(s.pool))
	}
	s.Health.Start(ctx, cfg.Health.Interval)

	lg.Info("session ready",
		zap.String("session_id", sessionID),
		zap.Int("cart_items", len(s.Cart.Items())),
		zap.Int("wishlist_items", s.Wishlist.Count()),
		zap.Bool("remote_sync", remote != nil),
	)
	return s, nil
}

// Close flushes pending snapshot writes and releases the database pool.
func (s *Session) Close(ctx context.Context) error {
	s.Health.Stop()
	var firstErr error
	if err := s.cartWrites.Close(ctx); err != nil {
		s.lg.Error("final cart flush failed", zap.Error(err))
		firstErr = err
	}
	if err := s.wishlistWrites.Close(ctx); err != nil {
		s.lg.Error("final wishlist flush failed", zap.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	return firstErr
}

// fanoutOrders appends to the durable local log first and then syncs the
// order remotely, best effort. Reads come from the local log, which has
// every order this device committed.
type fanoutOrders struct {
	local  order.Repository
	remote order.Repository
}

func (f *fanoutOrders) Append(ctx context.Context, o *order.Order) error {
	if err := f.local.Append(ctx, o); err != nil {
		return err
	}
	if err := f.remote.Append(ctx, o); err != nil {
		zctx.From(ctx).Warn("remote order sync failed", zap.Error(err))
	}
	return nil
}

func (f *fanoutOrders) Recent(ctx context.Context, limit int) ([]order.Order, error) {
	return f.local.Recent(ctx, limit)
}
