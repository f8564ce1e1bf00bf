package memstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/store"
)

// Categories implements catalog.CategoryRepository.
type Categories struct{ db *DB }

func (r *Categories) NextID(ctx context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.next("categories"), nil
}

func (r *Categories) Get(ctx context.Context, id int64) (*catalog.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *Categories) List(ctx context.Context) ([]catalog.Category, error) {
	return r.filter(func(catalog.Category) bool { return true }), nil
}

func (r *Categories) Search(ctx context.Context, q string) ([]catalog.Category, error) {
	q = strings.ToLower(q)
	return r.filter(func(c catalog.Category) bool { return strings.Contains(strings.ToLower(c.Name), q) }), nil
}

func (r *Categories) FindByName(ctx context.Context, name string) (*catalog.Category, error) {
	found := r.filter(func(c catalog.Category) bool { return strings.EqualFold(c.Name, name) })
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (r *Categories) filter(match func(catalog.Category) bool) []catalog.Category {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []catalog.Category
	for _, c := range r.db.categories {
		if match(c) {
			out = append(out, c)
		}
	}
	return out
}

func (r *Categories) Create(ctx context.Context, c catalog.Category) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.categories[c.CategoryID]; ok {
		return store.ErrAlreadyExists
	}
	r.db.categories[c.CategoryID] = c
	return nil
}

func (r *Categories) Update(ctx context.Context, id int64, fields map[string]interface{}) (*catalog.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.categories[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			c.Name = v.(string)
		case "search_name":
			c.SearchName = v.(string)
		case "slug":
			c.Slug = v.(string)
		case "image":
			c.Image = v.(string)
		case "description":
			c.Description = v.(string)
		default:
			return nil, fmt.Errorf("memstore: unsupported category attribute %q", k)
		}
	}
	r.db.categories[id] = c
	return &c, nil
}

func (r *Categories) Delete(ctx context.Context, id int64) (*catalog.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.categories[id]
	if !ok {
		return nil, nil
	}
	delete(r.db.categories, id)
	return &c, nil
}

func (r *Categories) ToggleStatus(ctx context.Context, id int64) (*catalog.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.categories[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	c.Status = !c.Status
	r.db.categories[id] = c
	return &c, nil
}
