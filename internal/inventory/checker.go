// Package inventory checks requested order lines against the catalog.
package inventory

import (
	"context"

	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/orders"
)

// ProductSource returns the existing products among ids, keyed by id.
type ProductSource interface {
	ProductsByIDs(ctx context.Context, ids []int64) (map[int64]catalog.Product, error)
}

// Checker implements orders.Inventory.
type Checker struct {
	products ProductSource
}

func NewChecker(products ProductSource) *Checker {
	return &Checker{products: products}
}

// ValidateAndPrice merges duplicate product ids, confirms every product
// exists and has enough stock for the requested quantity, and returns one
// line per product priced from the catalog. Stock is matched by product id.
func (c *Checker) ValidateAndPrice(ctx context.Context, items []orders.ItemRequest) ([]orders.LineItem, error) {
	if len(items) == 0 {
		return nil, apperr.Validation("order has no products", "products")
	}
	for _, it := range items {
		if it.ProductID <= 0 || it.Quantity < 1 {
			return nil, apperr.Validation("each product needs a valid id and a quantity of at least 1", "products")
		}
	}

	merged := Merge(items)
	ids := make([]int64, len(merged))
	for i, it := range merged {
		ids[i] = it.ProductID
	}

	found, err := c.products.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.ProductsNotFound(missing)
	}

	var short []int64
	lines := make([]orders.LineItem, 0, len(merged))
	for _, it := range merged {
		p := found[it.ProductID]
		if p.Quantity.InStock < it.Quantity {
			short = append(short, it.ProductID)
			continue
		}
		lines = append(lines, orders.LineItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     p.Price,
		})
	}
	if len(short) > 0 {
		return nil, apperr.InsufficientStock(short)
	}
	return lines, nil
}

// Merge sums the quantities of repeated product ids, keeping first-seen order.
func Merge(items []orders.ItemRequest) []orders.ItemRequest {
	index := make(map[int64]int, len(items))
	out := make([]orders.ItemRequest, 0, len(items))
	for _, it := range items {
		if i, ok := index[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}
