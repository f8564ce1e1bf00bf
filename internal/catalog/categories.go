package catalog

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/store"
)

const categoriesCollection = "categories"

// CategoryStore encapsulates operations on the categories table.
type CategoryStore struct {
	table *store.Table[Category]
	seq   *store.Sequence
}

func NewCategoryStore(client aws.DynamoDBAPI, tableName string, seq *store.Sequence) *CategoryStore {
	return &CategoryStore{
		table: store.NewTable[Category](client, tableName, "category_id"),
		seq:   seq,
	}
}

func (s *CategoryStore) NextID(ctx context.Context) (int64, error) {
	return s.seq.Next(ctx, categoriesCollection)
}

func (s *CategoryStore) Get(ctx context.Context, id int64) (*Category, error) {
	return s.table.Get(ctx, id)
}

func (s *CategoryStore) List(ctx context.Context) ([]Category, error) {
	return s.table.Scan(ctx, nil)
}

func (s *CategoryStore) Search(ctx context.Context, q string) ([]Category, error) {
	return s.table.Scan(ctx, &store.Filter{
		Expression: "contains(#sn, :q)",
		Names:      map[string]string{"#sn": "search_name"},
		Values:     map[string]types.AttributeValue{":q": store.S(strings.ToLower(q))},
	})
}

func (s *CategoryStore) FindByName(ctx context.Context, name string) (*Category, error) {
	found, err := s.table.Scan(ctx, &store.Filter{
		Expression: "#sn = :n",
		Names:      map[string]string{"#sn": "search_name"},
		Values:     map[string]types.AttributeValue{":n": store.S(strings.ToLower(name))},
	})
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}

func (s *CategoryStore) Create(ctx context.Context, c Category) error {
	return s.table.Create(ctx, c)
}

func (s *CategoryStore) Update(ctx context.Context, id int64, fields map[string]interface{}) (*Category, error) {
	u, err := store.SetFields(fields)
	if err != nil {
		return nil, err
	}
	return s.table.Update(ctx, id, u)
}

func (s *CategoryStore) Delete(ctx context.Context, id int64) (*Category, error) {
	return s.table.Delete(ctx, id)
}

func (s *CategoryStore) ToggleStatus(ctx context.Context, id int64) (*Category, error) {
	return s.table.ToggleBool(ctx, id, "status")
}
