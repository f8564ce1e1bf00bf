package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/imrishuroy/go-storefront/internal/store"
	"github.com/imrishuroy/go-storefront/internal/users"
)

// Users implements users.Repository.
type Users struct {
	mu    sync.Mutex
	seq   int64
	items map[int64]users.User
}

func NewUsers() *Users {
	return &Users{items: map[int64]users.User{}}
}

func (r *Users) NextID(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *Users) Get(ctx context.Context, id int64) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *Users) List(ctx context.Context) ([]users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]users.User, 0, len(r.items))
	for _, u := range r.items {
		out = append(out, u)
	}
	return out, nil
}

func (r *Users) FindByUsername(ctx context.Context, username string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.items {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *Users) Create(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[u.UserID]; ok {
		return store.ErrAlreadyExists
	}
	r.items[u.UserID] = u
	return nil
}

func (r *Users) Update(ctx context.Context, id int64, fields map[string]interface{}) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	for k, v := range fields {
		switch k {
		case "first_name":
			u.FirstName = v.(string)
		case "last_name":
			u.LastName = v.(string)
		case "telephone":
			u.Telephone = v.(string)
		case "email":
			u.Email = v.(string)
		default:
			return nil, fmt.Errorf("memstore: unsupported user attribute %q", k)
		}
	}
	r.items[id] = u
	return &u, nil
}

func (r *Users) Delete(ctx context.Context, id int64) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	delete(r.items, id)
	return &u, nil
}

func (r *Users) ToggleStatus(ctx context.Context, id int64) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	u.Status = !u.Status
	r.items[id] = u
	return &u, nil
}
