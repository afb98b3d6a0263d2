package coupon

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
)

const bloomFPR = 0.001

// CachedRegistry is a read-through cache in front of a Registry. The shopper
// re-validates the same code repeatedly while editing the cart (every
// selection toggle and quantity change re-runs validation), so lookups are
// cached for a short TTL. A bloom filter of the known codes, primed from the
// backing registry, short-circuits unknown codes without a registry hit;
// false positives just fall through to the real lookup.
//
// Cached entries can serve a slightly stale UsedCount. That only affects the
// advisory usage-cap rejection; the authoritative guard is the recorder's
// conditional increment at commit time.
type CachedRegistry struct {
	inner Registry
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]cachedCoupon
	known   *bloom.BloomFilter
}

type cachedCoupon struct {
	coupon  Coupon
	fetched time.Time
}

var _ Registry = (*CachedRegistry)(nil)

// NewCachedRegistry wraps inner with a TTL lookup cache. Call Prime to enable
// the negative-lookup prefilter.
func NewCachedRegistry(inner Registry, ttl time.Duration) *CachedRegistry {
	return &CachedRegistry{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedCoupon),
	}
}

// Prime lists the backing registry and builds the bloom prefilter from the
// known codes. Codes registered after priming would be wrongly filtered, so
// Prime should be re-run after bulk registry changes.
func (r *CachedRegistry) Prime(ctx context.Context) error {
	coupons, err := r.inner.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list coupons")
	}

	capacity := uint(len(coupons))
	if capacity < 1024 {
		capacity = 1024
	}
	filter := bloom.NewWithEstimates(capacity, bloomFPR)
	for _, c := range coupons {
		filter.AddString(strings.ToUpper(c.Code))
	}

	r.mu.Lock()
	r.known = filter
	r.mu.Unlock()
	return nil
}

// FindByCode serves from cache when fresh, otherwise delegates to the backing
// registry and caches the result.
func (r *CachedRegistry) FindByCode(ctx context.Context, code string) (*Coupon, error) {
	key := strings.ToUpper(code)

	r.mu.RLock()
	known := r.known
	entry, hit := r.entries[key]
	r.mu.RUnlock()

	if known != nil && !known.TestString(key) {
		return nil, ErrNotFound
	}
	if hit && r.now().Sub(entry.fetched) < r.ttl {
		c := entry.coupon
		return &c, nil
	}

	c, err := r.inner.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.entries[key] = cachedCoupon{coupon: *c, fetched: r.now()}
	r.mu.Unlock()

	out := *c
	return &out, nil
}

// List delegates to the backing registry; bulk listings are not cached.
func (r *CachedRegistry) List(ctx context.Context) ([]Coupon, error) {
	return r.inner.List(ctx)
}

// IncrementUses delegates to the backing registry's usage channel and drops
// the cached entry so the next lookup sees the new count.
func (r *CachedRegistry) IncrementUses(ctx context.Context, code string) error {
	rec, ok := r.inner.(UsageRecorder)
	if !ok {
		return errors.New("backing registry does not record usage")
	}
	if err := rec.IncrementUses(ctx, code); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.entries, strings.ToUpper(code))
	r.mu.Unlock()
	return nil
}
