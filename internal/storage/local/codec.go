package local

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/zippycart/storefront/internal/domain/cart"
	"github.com/zippycart/storefront/internal/domain/order"
)

// Snapshot files use a hand-written jx codec. Prices travel as strings so the
// decimal representation round-trips exactly.

func encodeCartItems(e *jx.Encoder, items []cart.Item) {
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Str(it.ProductID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("unit_price")
		e.Str(it.UnitPrice.String())
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("selected")
		e.Bool(it.Selected)
		e.FieldStart("category")
		e.Str(it.Category)
		e.FieldStart("vendor")
		e.Str(it.Vendor)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func decodeCartItems(d *jx.Decoder) ([]cart.Item, error) {
	var items []cart.Item
	err := d.Arr(func(d *jx.Decoder) error {
		it, err := decodeCartItem(d)
		if err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode cart items")
	}
	return items, nil
}

func decodeCartItem(d *jx.Decoder) (cart.Item, error) {
	var it cart.Item
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_id":
			it.ProductID, err = d.Str()
		case "name":
			it.Name, err = d.Str()
		case "unit_price":
			var s string
			if s, err = d.Str(); err == nil {
				it.UnitPrice, err = decimal.NewFromString(s)
			}
		case "quantity":
			it.Quantity, err = d.Int()
		case "selected":
			it.Selected, err = d.Bool()
		case "category":
			it.Category, err = d.Str()
		case "vendor":
			it.Vendor, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return it, err
}

func encodeStrings(e *jx.Encoder, values []string) {
	e.ArrStart()
	for _, v := range values {
		e.Str(v)
	}
	e.ArrEnd()
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	var out []string
	err := d.Arr(func(d *jx.Decoder) error {
		v, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("items")
	encodeCartItems(e, o.Items)
	e.FieldStart("subtotal")
	e.Str(o.Subtotal.String())
	e.FieldStart("coupon_code")
	e.Str(o.CouponCode)
	e.FieldStart("discount")
	e.Str(o.Discount.String())
	e.FieldStart("total")
	e.Str(o.Total.String())
	e.FieldStart("created_at")
	e.Str(o.CreatedAt.Format(time.RFC3339Nano))
	e.ObjEnd()
}

func decodeOrder(d *jx.Decoder) (order.Order, error) {
	var o order.Order
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			o.ID, err = d.Str()
		case "items":
			o.Items, err = decodeCartItems(d)
		case "subtotal":
			o.Subtotal, err = decodeDecimal(d)
		case "coupon_code":
			o.CouponCode, err = d.Str()
		case "discount":
			o.Discount, err = decodeDecimal(d)
		case "total":
			o.Total, err = decodeDecimal(d)
		case "created_at":
			var s string
			if s, err = d.Str(); err == nil {
				o.CreatedAt, err = time.Parse(time.RFC3339Nano, s)
			}
		default:
			err = d.Skip()
		}
		return err
	})
	return o, err
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	s, err := d.Str()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(s)
}
