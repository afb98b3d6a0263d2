// Package cart implements the shopper's in-progress selection of items.
//
// The store is owned by a single session and mutated from a single logical
// thread; mutations are synchronous and visible to subsequent reads
// immediately. Durability is eventual: every mutation hands a value snapshot
// to the configured SnapshotWriter, which debounces and persists it off the
// mutation path.
package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/zippycart/storefront/internal/domain/catalog"
)

// SnapshotWriter schedules a durable write of a cart snapshot. Implementations
// must not block; the write happens asynchronously, after a debounce window.
type SnapshotWriter interface {
	Schedule(items []Item)
}

// Store owns the cart line items. At most one Item exists per product ID and
// every item has quantity >= 1.
type Store struct {
	catalog catalog.Repository
	writer  SnapshotWriter
	lg      *zap.Logger

	items   []Item
	subs    map[int]func()
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithSnapshotWriter attaches the persistence scheduler. Without one the
// store is memory-only, which is how tests run.
func WithSnapshotWriter(w SnapshotWriter) Option {
	return func(s *Store) { s.writer = w }
}

// WithLogger attaches a logger for mutation diagnostics.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Store) { s.lg = lg }
}

// NewStore creates an empty cart backed by the given catalog.
func NewStore(cat catalog.Repository, opts ...Option) *Store {
	s := &Store{
		catalog: cat,
		lg:      zap.NewNop(),
		subs:    make(map[int]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddItem adds quantity units of the given product. If the product is already
// in the cart its quantity is incremented; otherwise the product is looked up
// in the catalog and inserted with its price, category and vendor snapshotted
// and selected set to true. A failed catalog lookup is a hard failure: the
// item is not added. Non-positive quantities are ignored.
func (s *Store) AddItem(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		s.lg.Debug("ignoring add with non-positive quantity",
			zap.String("product_id", productID), zap.Int("quantity", quantity))
		return nil
	}

	if i := s.index(productID); i >= 0 {
		s.items[i].Quantity += quantity
		s.changed()
		return nil
	}

	p, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return errors.Wrapf(err, "lookup product %q", productID)
	}

	s.items = append(s.items, Item{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  quantity,
		Selected:  true,
		Category:  p.Category,
		Vendor:    p.Vendor,
	})
	s.changed()
	return nil
}

// RemoveItem deletes the matching item. Removing an absent product is a no-op.
func (s *Store) RemoveItem(productID string) {
	i := s.index(productID)
	if i < 0 {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.changed()
}

// UpdateQuantity sets the quantity for the given product. A quantity <= 0
// removes the item. Updating an unknown product is a no-op: over-eager UI
// events must never crash the cart.
func (s *Store) UpdateQuantity(productID string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(productID)
		return
	}
	i := s.index(productID)
	if i < 0 {
		return
	}
	s.items[i].Quantity = quantity
	s.changed()
}

// ToggleSelected flips the checkout-selection flag for the given product.
// Unknown products are ignored.
func (s *Store) ToggleSelected(productID string) {
	i := s.index(productID)
	if i < 0 {
		return
	}
	s.items[i].Selected = !s.items[i].Selected
	s.changed()
}

// RemoveSelected deletes every selected item and returns the removed items in
// cart order. This is the checkout path: committed items leave the cart while
// unselected ones stay.
func (s *Store) RemoveSelected() []Item {
	removed := Selected(s.items)
	if len(removed) == 0 {
		return nil
	}
	kept := s.items[:0]
	for _, it := range s.items {
		if !it.Selected {
			kept = append(kept, it)
		}
	}
	s.items = kept
	s.changed()
	return removed
}

// Replace swaps the cart contents for a loaded snapshot. Malformed entries
// (non-positive quantity, duplicate product) are dropped rather than
// rejected. Replace does not schedule a persistence write: it is the restore
// path and the snapshot is already durable.
func (s *Store) Replace(items []Item) {
	seen := make(map[string]struct{}, len(items))
	next := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			continue
		}
		if _, dup := seen[it.ProductID]; dup {
			s.lg.Warn("dropping duplicate cart snapshot entry", zap.String("product_id", it.ProductID))
			continue
		}
		seen[it.ProductID] = struct{}{}
		next = append(next, it)
	}
	s.items = next
	s.notify()
}

// Items returns a copy of the cart contents in insertion order.
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Total returns the cart-wide total over all items, regardless of selection.
// This is the pre-checkout drawer total; anything checkout-adjacent must use
// SelectedSubtotal instead.
func (s *Store) Total() decimal.Decimal {
	return Subtotal(s.items)
}

// SelectedSubtotal returns the total over items marked for checkout. This is
// the authoritative value for coupon minimums and order totals.
func (s *Store) SelectedSubtotal() decimal.Decimal {
	return SelectedSubtotal(s.items)
}

// Count returns the sum of quantities over all items, for badge display.
func (s *Store) Count() int {
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// SelectedCount returns the number of distinct items marked for checkout.
func (s *Store) SelectedCount() int {
	n := 0
	for _, it := range s.items {
		if it.Selected {
			n++
		}
	}
	return n
}

// Subscribe registers a listener invoked after every state change. The
// returned func cancels the subscription. Listeners run synchronously on the
// mutating goroutine and must be cheap.
func (s *Store) Subscribe(fn func()) (cancel func()) {
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

func (s *Store) index(productID string) int {
	for i, it := range s.items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// changed schedules a debounced persistence write and notifies subscribers.
// The writer receives a value copy, so later mutations never race the write.
func (s *Store) changed() {
	if s.writer != nil {
		s.writer.Schedule(s.Items())
	}
	s.notify()
}

func (s *Store) notify() {
	for _, fn := range s.subs {
		fn()
	}
}
