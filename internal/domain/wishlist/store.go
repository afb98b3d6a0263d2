// Package wishlist implements the shopper's saved-for-later product set.
package wishlist

import "go.uber.org/zap"

// SnapshotWriter schedules a durable write of the wishlist snapshot.
type SnapshotWriter interface {
	Schedule(productIDs []string)
}

// Store is an insertion-ordered set of product references. Unlike the cart,
// adding an already-present product is a true no-op.
type Store struct {
	writer SnapshotWriter
	lg     *zap.Logger

	ids     []string
	present map[string]struct{}
	subs    map[int]func()
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithSnapshotWriter attaches the persistence scheduler.
func WithSnapshotWriter(w SnapshotWriter) Option {
	return func(s *Store) { s.writer = w }
}

// WithLogger attaches a logger.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Store) { s.lg = lg }
}

// NewStore creates an empty wishlist.
func NewStore(opts ...Option) *Store {
	s := &Store{
		lg:      zap.NewNop(),
		present: make(map[string]struct{}),
		subs:    make(map[int]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add saves a product reference. Adding a present product changes nothing and
// schedules no write.
func (s *Store) Add(productID string) {
	if _, ok := s.present[productID]; ok {
		return
	}
	s.present[productID] = struct{}{}
	s.ids = append(s.ids, productID)
	s.changed()
}

// Remove drops a product reference. Absent products are a no-op.
func (s *Store) Remove(productID string) {
	if _, ok := s.present[productID]; !ok {
		return
	}
	delete(s.present, productID)
	for i, id := range s.ids {
		if id == productID {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	s.changed()
}

// Contains reports whether the product is saved.
func (s *Store) Contains(productID string) bool {
	_, ok := s.present[productID]
	return ok
}

// Count returns the number of saved products.
func (s *Store) Count() int {
	return len(s.ids)
}

// Items returns a copy of the saved product IDs in insertion order.
func (s *Store) Items() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Replace swaps the wishlist contents for a loaded snapshot, dropping
// duplicates. No persistence write is scheduled on the restore path.
func (s *Store) Replace(productIDs []string) {
	s.ids = s.ids[:0]
	s.present = make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		if _, dup := s.present[id]; dup {
			continue
		}
		s.present[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	s.notify()
}

// Subscribe registers a listener invoked after every state change. The
// returned func cancels the subscription.
func (s *Store) Subscribe(fn func()) (cancel func()) {
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

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
