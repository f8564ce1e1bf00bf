package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/imrishuroy/go-storefront/internal/content"
	"github.com/imrishuroy/go-storefront/internal/store"
)

// Records implements content.Repository for one record type.
type Records[T any] struct {
	mu     sync.Mutex
	seq    int64
	items  map[int64]T
	id     func(T) int64
	toggle func(*T)
	set    func(*T, string, interface{}) error
}

func (r *Records[T]) NextID(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *Records[T]) Get(ctx context.Context, id int64) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *Records[T]) List(ctx context.Context) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	return out, nil
}

func (r *Records[T]) Create(ctx context.Context, item T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[r.id(item)]; ok {
		return store.ErrAlreadyExists
	}
	r.items[r.id(item)] = item
	return nil
}

func (r *Records[T]) Update(ctx context.Context, id int64, fields map[string]interface{}) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	for k, v := range fields {
		if err := r.set(&item, k, v); err != nil {
			return nil, err
		}
	}
	r.items[id] = item
	return &item, nil
}

func (r *Records[T]) Delete(ctx context.Context, id int64) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	delete(r.items, id)
	return &item, nil
}

func (r *Records[T]) ToggleStatus(ctx context.Context, id int64) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	r.toggle(&item)
	r.items[id] = item
	return &item, nil
}

func NewBanners() *Records[content.Banner] {
	return &Records[content.Banner]{
		items:  map[int64]content.Banner{},
		id:     func(b content.Banner) int64 { return b.BannerID },
		toggle: func(b *content.Banner) { b.Status = !b.Status },
		set: func(b *content.Banner, k string, v interface{}) error {
			switch k {
			case "name":
				b.Name = v.(string)
			case "description":
				b.Description = v.(string)
			case "author":
				b.Author = v.(string)
			case "image":
				b.Image = v.(string)
			case "link":
				b.Link = v.(string)
			case "order":
				b.Order = v.(int)
			default:
				return fmt.Errorf("memstore: unsupported banner attribute %q", k)
			}
			return nil
		},
	}
}

func NewTestimonials() *Records[content.Testimonial] {
	return &Records[content.Testimonial]{
		items:  map[int64]content.Testimonial{},
		id:     func(t content.Testimonial) int64 { return t.TestimonialID },
		toggle: func(t *content.Testimonial) { t.Status = !t.Status },
		set: func(t *content.Testimonial, k string, v interface{}) error {
			switch k {
			case "name":
				t.Name = v.(string)
			case "image":
				t.Image = v.(string)
			case "description":
				t.Description = v.(string)
			default:
				return fmt.Errorf("memstore: unsupported testimonial attribute %q", k)
			}
			return nil
		},
	}
}
