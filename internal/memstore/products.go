package memstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/store"
)

// Products implements catalog.ProductRepository.
type Products struct{ db *DB }

func (r *Products) NextID(ctx context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.next("products"), nil
}

func (r *Products) Get(ctx context.Context, id int64) (*catalog.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[id]
	if !ok {
		return nil, nil
	}
	cp := copyProduct(p)
	return &cp, nil
}

func (r *Products) BatchGet(ctx context.Context, ids []int64) ([]catalog.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := r.db.products[id]; ok {
			out = append(out, copyProduct(p))
		}
	}
	return out, nil
}

func (r *Products) List(ctx context.Context) ([]catalog.Product, error) {
	return r.filter(func(catalog.Product) bool { return true }), nil
}

func (r *Products) Search(ctx context.Context, q string) ([]catalog.Product, error) {
	q = strings.ToLower(q)
	return r.filter(func(p catalog.Product) bool { return strings.Contains(strings.ToLower(p.Name), q) }), nil
}

func (r *Products) FindByName(ctx context.Context, name string) (*catalog.Product, error) {
	found := r.filter(func(p catalog.Product) bool { return strings.EqualFold(p.Name, name) })
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (r *Products) filter(match func(catalog.Product) bool) []catalog.Product {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []catalog.Product
	for _, p := range r.db.products {
		if match(p) {
			out = append(out, copyProduct(p))
		}
	}
	return out
}

func (r *Products) Create(ctx context.Context, p catalog.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.products[p.ProductID]; ok {
		return store.ErrAlreadyExists
	}
	r.db.products[p.ProductID] = copyProduct(p)
	return nil
}

func (r *Products) Update(ctx context.Context, id int64, fields map[string]interface{}) (*catalog.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			p.Name = v.(string)
		case "search_name":
			p.SearchName = v.(string)
		case "slug":
			p.Slug = v.(string)
		case "description":
			p.Description = v.(string)
		case "thumbnail":
			p.Thumbnail = v.(string)
		case "price":
			p.Price = v.(float64)
		case "category_id":
			p.CategoryID = v.(int64)
		case "images":
			p.Images = v.([]string)
		default:
			return nil, fmt.Errorf("memstore: unsupported product attribute %q", k)
		}
	}
	r.db.products[id] = p
	cp := copyProduct(p)
	return &cp, nil
}

func (r *Products) Delete(ctx context.Context, id int64) (*catalog.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[id]
	if !ok {
		return nil, nil
	}
	delete(r.db.products, id)
	return &p, nil
}

func (r *Products) ToggleStatus(ctx context.Context, id int64) (*catalog.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	p.Status = !p.Status
	r.db.products[id] = p
	cp := copyProduct(p)
	return &cp, nil
}

func (r *Products) AdjustStock(ctx context.Context, id int64, delta int64) (*catalog.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	if p.Quantity.InStock+delta < 0 {
		return nil, store.ErrConditionFailed
	}
	p.Quantity.InStock += delta
	r.db.products[id] = p
	cp := copyProduct(p)
	return &cp, nil
}

func (r *Products) AddReview(ctx context.Context, productID int64, rev catalog.Review) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[productID]
	if !ok {
		return store.ErrItemNotFound
	}
	if p.HasReviewFrom(rev.UserID) {
		return catalog.ErrAlreadyReviewed
	}
	p = copyProduct(p)
	p.Reviews = append(p.Reviews, rev)
	p.ReviewerIDs = append(p.ReviewerIDs, rev.UserID)
	r.db.products[productID] = p
	return nil
}
