package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. The cart
// snapshots price, category and vendor from it at add time, so later catalog
// changes never affect items already in a cart.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Category string
	Vendor   string
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
}

// StaticRepository is an in-memory catalog, used in tests and offline demos.
type StaticRepository struct {
	byID  map[string]Product
	order []string
}

var _ Repository = (*StaticRepository)(nil)

// NewStaticRepository builds a StaticRepository from the given products.
func NewStaticRepository(products ...Product) *StaticRepository {
	r := &StaticRepository{byID: make(map[string]Product, len(products))}
	for _, p := range products {
		if _, ok := r.byID[p.ID]; !ok {
			r.order = append(r.order, p.ID)
		}
		r.byID[p.ID] = p
	}
	return r
}

// List returns all products in insertion order.
func (r *StaticRepository) List(_ context.Context) ([]Product, error) {
	out := make([]Product, len(r.order))
	for i, id := range r.order {
		out[i] = r.byID[id]
	}
	return out, nil
}

// GetByID returns a single product, or ErrNotFound.
func (r *StaticRepository) GetByID(_ context.Context, id string) (*Product, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}
