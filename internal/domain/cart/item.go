package cart

import "github.com/shopspring/decimal"

// Item is a single cart line. Name, price, category and vendor are
// snapshotted from the catalog when the item is added; coupon targeting runs
// against the snapshotted tags, not a live catalog lookup.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Selected  bool            `json:"selected"`
	Category  string          `json:"category"`
	Vendor    string          `json:"vendor"`
}

// LineTotal returns unit price times quantity.
func (it Item) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Subtotal returns the sum of line totals across all items.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// SelectedSubtotal returns the sum of line totals restricted to items marked
// for checkout.
func SelectedSubtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		if it.Selected {
			sum = sum.Add(it.LineTotal())
		}
	}
	return sum
}

// Selected returns the items marked for checkout, preserving order.
func Selected(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if it.Selected {
			out = append(out, it)
		}
	}
	return out
}
