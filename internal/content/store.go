package content

import (
	"context"

	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/store"
)

// Store is a CRUD table with a status flag and sequential ids.
type Store[T any] struct {
	table      *store.Table[T]
	seq        *store.Sequence
	collection string
}

func NewBannerStore(client aws.DynamoDBAPI, tableName string, seq *store.Sequence) *Store[Banner] {
	return &Store[Banner]{table: store.NewTable[Banner](client, tableName, "banner_id"), seq: seq, collection: "banners"}
}

func NewTestimonialStore(client aws.DynamoDBAPI, tableName string, seq *store.Sequence) *Store[Testimonial] {
	return &Store[Testimonial]{table: store.NewTable[Testimonial](client, tableName, "testimonial_id"), seq: seq, collection: "testimonials"}
}

func (s *Store[T]) NextID(ctx context.Context) (int64, error) {
	return s.seq.Next(ctx, s.collection)
}

func (s *Store[T]) Get(ctx context.Context, id int64) (*T, error) {
	return s.table.Get(ctx, id)
}

func (s *Store[T]) List(ctx context.Context) ([]T, error) {
	return s.table.Scan(ctx, nil)
}

func (s *Store[T]) Create(ctx context.Context, item T) error {
	return s.table.Create(ctx, item)
}

func (s *Store[T]) Update(ctx context.Context, id int64, fields map[string]interface{}) (*T, error) {
	u, err := store.SetFields(fields)
	if err != nil {
		return nil, err
	}
	return s.table.Update(ctx, id, u)
}

func (s *Store[T]) Delete(ctx context.Context, id int64) (*T, error) {
	return s.table.Delete(ctx, id)
}

func (s *Store[T]) ToggleStatus(ctx context.Context, id int64) (*T, error) {
	return s.table.ToggleBool(ctx, id, "status")
}
