package cart

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zippycart/storefront/internal/domain/catalog"
)

func testCatalog() *catalog.StaticRepository {
	return catalog.NewStaticRepository(
		catalog.Product{ID: "p1", Name: "Wireless Earbuds", Price: decimal.NewFromInt(500), Category: "electronics", Vendor: "TechNova"},
		catalog.Product{ID: "p2", Name: "Denim Jacket", Price: decimal.NewFromInt(1200), Category: "fashion", Vendor: "UrbanThreads"},
		catalog.Product{ID: "p3", Name: "Yoga Mat", Price: decimal.RequireFromString("549.50"), Category: "sports", Vendor: "Global Partners"},
	)
}

type recordingWriter struct {
	snapshots [][]Item
}

func (w *recordingWriter) Schedule(items []Item) {
	w.snapshots = append(w.snapshots, items)
}

func TestStore_AddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("new product snapshots catalog fields and selects it", func(t *testing.T) {
		s := NewStore(testCatalog())

		require.NoError(t, s.AddItem(ctx, "p1", 2))

		items := s.Items()
		require.Len(t, items, 1)
		assert.Equal(t, "p1", items[0].ProductID)
		assert.Equal(t, "Wireless Earbuds", items[0].Name)
		assert.True(t, decimal.NewFromInt(500).Equal(items[0].UnitPrice))
		assert.Equal(t, 2, items[0].Quantity)
		assert.True(t, items[0].Selected)
		assert.Equal(t, "electronics", items[0].Category)
		assert.Equal(t, "TechNova", items[0].Vendor)
	})

	t.Run("re-adding increments quantity instead of duplicating", func(t *testing.T) {
		s := NewStore(testCatalog())

		require.NoError(t, s.AddItem(ctx, "p1", 1))
		require.NoError(t, s.AddItem(ctx, "p1", 2))

		items := s.Items()
		require.Len(t, items, 1)
		assert.Equal(t, 3, items[0].Quantity)
		assert.True(t, decimal.NewFromInt(1500).Equal(s.Total()))
	})

	t.Run("unknown product is a hard failure and cart stays unchanged", func(t *testing.T) {
		s := NewStore(testCatalog())
		require.NoError(t, s.AddItem(ctx, "p1", 1))

		err := s.AddItem(ctx, "ghost", 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, catalog.ErrNotFound)
		assert.Len(t, s.Items(), 1)
	})

	t.Run("non-positive quantity is ignored", func(t *testing.T) {
		s := NewStore(testCatalog())

		require.NoError(t, s.AddItem(ctx, "p1", 0))
		require.NoError(t, s.AddItem(ctx, "p1", -3))

		assert.Empty(t, s.Items())
	})

	t.Run("increment does not hit the catalog", func(t *testing.T) {
		s := NewStore(testCatalog())
		require.NoError(t, s.AddItem(ctx, "p1", 1))

		// Swap in an empty catalog: the increment path must not look up.
		s.catalog = catalog.NewStaticRepository()
		require.NoError(t, s.AddItem(ctx, "p1", 4))
		assert.Equal(t, 5, s.Items()[0].Quantity)
	})
}

func TestStore_UpdateQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("sets quantity for existing item", func(t *testing.T) {
		s := NewStore(testCatalog())
		require.NoError(t, s.AddItem(ctx, "p1", 1))

		s.UpdateQuantity("p1", 7)
		assert.Equal(t, 7, s.Items()[0].Quantity)
	})

	t.Run("zero or negative quantity removes the item", func(t *testing.T) {
		s := NewStore(testCatalog())
		require.NoError(t, s.AddItem(ctx, "p1", 3))

		s.UpdateQuantity("p1", 0)
		assert.Empty(t, s.Items())

		require.NoError(t, s.AddItem(ctx, "p1", 3))
		s.UpdateQuantity("p1", -2)
		assert.Empty(t, s.Items())
	})

	t.Run("unknown product is a no-op", func(t *testing.T) {
		s := NewStore(testCatalog())
		require.NoError(t, s.AddItem(ctx, "p1", 2))

		s.UpdateQuantity("ghost", 5)

		items := s.Items()
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Quantity)
	})
}

func TestStore_RemoveItem(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testCatalog())
	require.NoError(t, s.AddItem(ctx, "p1", 1))
	require.NoError(t, s.AddItem(ctx, "p2", 1))

	s.RemoveItem("p1")
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ProductID)

	// Removing again does nothing.
	s.RemoveItem("p1")
	assert.Len(t, s.Items(), 1)
}

func TestStore_ToggleSelected(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testCatalog())
	require.NoError(t, s.AddItem(ctx, "p1", 1))

	assert.True(t, s.Items()[0].Selected)

	s.ToggleSelected("p1")
	assert.False(t, s.Items()[0].Selected)

	s.ToggleSelected("p1")
	assert.True(t, s.Items()[0].Selected)

	s.ToggleSelected("ghost")
	assert.Len(t, s.Items(), 1)
}

func TestStore_Totals(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testCatalog())
	require.NoError(t, s.AddItem(ctx, "p1", 2)) // 1000
	require.NoError(t, s.AddItem(ctx, "p2", 1)) // 1200
	require.NoError(t, s.AddItem(ctx, "p3", 2)) // 1099.00

	assert.True(t, decimal.RequireFromString("3299").Equal(s.Total()))
	assert.True(t, decimal.RequireFromString("3299").Equal(s.SelectedSubtotal()))
	assert.Equal(t, 5, s.Count())
	assert.Equal(t, 3, s.SelectedCount())

	// Deselect the jacket: the drawer total keeps it, checkout does not.
	s.ToggleSelected("p2")
	assert.True(t, decimal.RequireFromString("3299").Equal(s.Total()))
	assert.True(t, decimal.RequireFromString("2099").Equal(s.SelectedSubtotal()))
	assert.Equal(t, 5, s.Count())
	assert.Equal(t, 2, s.SelectedCount())
}

func TestStore_RemoveSelected(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testCatalog())
	require.NoError(t, s.AddItem(ctx, "p1", 1))
	require.NoError(t, s.AddItem(ctx, "p2", 1))
	require.NoError(t, s.AddItem(ctx, "p3", 1))
	s.ToggleSelected("p2")

	removed := s.RemoveSelected()
	require.Len(t, removed, 2)
	assert.Equal(t, "p1", removed[0].ProductID)
	assert.Equal(t, "p3", removed[1].ProductID)

	// The unselected item survives checkout.
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ProductID)

	// Nothing selected now: no removal, no write.
	w := &recordingWriter{}
	s.writer = w
	assert.Nil(t, s.RemoveSelected())
	assert.Empty(t, w.snapshots)
}

func TestStore_Replace(t *testing.T) {
	s := NewStore(testCatalog())

	price := decimal.NewFromInt(100)
	s.Replace([]Item{
		{ProductID: "p1", Name: "A", UnitPrice: price, Quantity: 2, Selected: true},
		{ProductID: "p1", Name: "A dup", UnitPrice: price, Quantity: 1, Selected: true},
		{ProductID: "p2", Name: "B", UnitPrice: price, Quantity: 0, Selected: true},
		{ProductID: "p3", Name: "C", UnitPrice: price, Quantity: 1, Selected: false},
	})

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "p3", items[1].ProductID)
}

func TestStore_ReplaceDoesNotScheduleWrite(t *testing.T) {
	w := &recordingWriter{}
	s := NewStore(testCatalog(), WithSnapshotWriter(w))

	s.Replace([]Item{
		{ProductID: "p1", UnitPrice: decimal.NewFromInt(10), Quantity: 1, Selected: true},
	})

	assert.Empty(t, w.snapshots, "restore must not re-persist the snapshot it loaded")
}

func TestStore_MutationsScheduleWrites(t *testing.T) {
	ctx := context.Background()
	w := &recordingWriter{}
	s := NewStore(testCatalog(), WithSnapshotWriter(w))

	require.NoError(t, s.AddItem(ctx, "p1", 1))
	s.UpdateQuantity("p1", 3)
	s.ToggleSelected("p1")
	s.RemoveItem("p1")

	require.Len(t, w.snapshots, 4)
	assert.Empty(t, w.snapshots[3], "final snapshot reflects the empty cart")

	// Scheduled snapshots are value copies: mutating the cart afterwards
	// must not change what was handed to the writer.
	require.NoError(t, s.AddItem(ctx, "p2", 1))
	snap := w.snapshots[4]
	s.UpdateQuantity("p2", 9)
	assert.Equal(t, 1, snap[0].Quantity)
}

func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testCatalog())

	calls := 0
	cancel := s.Subscribe(func() { calls++ })

	require.NoError(t, s.AddItem(ctx, "p1", 1))
	s.UpdateQuantity("p1", 2)
	assert.Equal(t, 2, calls)

	cancel()
	s.RemoveItem("p1")
	assert.Equal(t, 2, calls)
}

// TestStore_QuantityInvariant drives the store with a random mutation sequence
// and checks that it never holds a duplicate product or a quantity below one.
func TestStore_QuantityInvariant(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	products := []string{"p1", "p2", "p3", "ghost"}

	s := NewStore(testCatalog())
	for i := 0; i < 1000; i++ {
		id := products[rng.Intn(len(products))]
		switch rng.Intn(4) {
		case 0:
			_ = s.AddItem(ctx, id, rng.Intn(5)-1)
		case 1:
			s.UpdateQuantity(id, rng.Intn(6)-2)
		case 2:
			s.RemoveItem(id)
		case 3:
			s.ToggleSelected(id)
		}

		seen := make(map[string]struct{})
		for _, it := range s.Items() {
			_, dup := seen[it.ProductID]
			require.False(t, dup, fmt.Sprintf("step %d: duplicate product %s", i, it.ProductID))
			seen[it.ProductID] = struct{}{}
			require.GreaterOrEqual(t, it.Quantity, 1, fmt.Sprintf("step %d: product %s", i, it.ProductID))
		}
	}
}
