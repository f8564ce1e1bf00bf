package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/store"
)

// ErrAlreadyReviewed is returned by AddReview when the user already reviewed the product.
var ErrAlreadyReviewed = errors.New("product already reviewed by user")

const productsCollection = "products"

// ProductStore encapsulates operations on the products table.
type ProductStore struct {
	table *store.Table[Product]
	seq   *store.Sequence
}

func NewProductStore(client aws.DynamoDBAPI, tableName string, seq *store.Sequence) *ProductStore {
	return &ProductStore{
		table: store.NewTable[Product](client, tableName, "product_id"),
		seq:   seq,
	}
}

func (s *ProductStore) NextID(ctx context.Context) (int64, error) {
	return s.seq.Next(ctx, productsCollection)
}

// Get fetches a product. Returns (nil, nil) if not found.
func (s *ProductStore) Get(ctx context.Context, id int64) (*Product, error) {
	return s.table.Get(ctx, id)
}

// BatchGet returns the products among ids that exist.
func (s *ProductStore) BatchGet(ctx context.Context, ids []int64) ([]Product, error) {
	return s.table.BatchGet(ctx, ids)
}

func (s *ProductStore) List(ctx context.Context) ([]Product, error) {
	return s.table.Scan(ctx, nil)
}

// Search returns products whose name contains q, ignoring case.
func (s *ProductStore) Search(ctx context.Context, q string) ([]Product, error) {
	return s.table.Scan(ctx, &store.Filter{
		Expression: "contains(#sn, :q)",
		Names:      map[string]string{"#sn": "search_name"},
		Values:     map[string]types.AttributeValue{":q": store.S(strings.ToLower(q))},
	})
}

// FindByName returns the product with exactly this name (case-insensitive), or nil.
func (s *ProductStore) FindByName(ctx context.Context, name string) (*Product, error) {
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

// Create writes a new product. Returns store.ErrAlreadyExists on id collision.
func (s *ProductStore) Create(ctx context.Context, p Product) error {
	return s.table.Create(ctx, p)
}

// Update sets the given attributes. Returns store.ErrItemNotFound if missing.
func (s *ProductStore) Update(ctx context.Context, id int64, fields map[string]interface{}) (*Product, error) {
	u, err := store.SetFields(fields)
	if err != nil {
		return nil, err
	}
	return s.table.Update(ctx, id, u)
}

// Delete removes a product. Returns (nil, nil) if not found.
func (s *ProductStore) Delete(ctx context.Context, id int64) (*Product, error) {
	return s.table.Delete(ctx, id)
}

func (s *ProductStore) ToggleStatus(ctx context.Context, id int64) (*Product, error) {
	return s.table.ToggleBool(ctx, id, "status")
}

// AdjustStock adds delta to in-stock units. A negative delta only applies
// while enough stock remains; otherwise store.ErrConditionFailed.
func (s *ProductStore) AdjustStock(ctx context.Context, id int64, delta int64) (*Product, error) {
	u := store.Update{
		Expression: "SET #q.#in = #q.#in + :d",
		Names:      map[string]string{"#q": "quantity", "#in": "in_stock"},
		Values:     map[string]types.AttributeValue{":d": store.N(delta)},
	}
	if delta < 0 {
		u.Condition = "#q.#in >= :need"
		u.Values[":need"] = store.N(-delta)
	}
	return s.table.Update(ctx, id, u)
}

// AddReview appends r unless r.UserID already reviewed the product. The
// append and the reviewer-set insert happen in one conditional update.
func (s *ProductStore) AddReview(ctx context.Context, productID int64, r Review) error {
	rev, err := attributevalue.Marshal([]Review{r})
	if err != nil {
		return fmt.Errorf("marshal review: %w", err)
	}
	_, err = s.table.Update(ctx, productID, store.Update{
		Expression: "SET #r = list_append(if_not_exists(#r, :empty), :rev) ADD #rid :uidset",
		Condition:  "NOT contains(#rid, :uid)",
		Names:      map[string]string{"#r": "reviews", "#rid": "reviewer_ids"},
		Values: map[string]types.AttributeValue{
			":empty":  &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":rev":    rev,
			":uidset": store.NS(r.UserID),
			":uid":    store.N(r.UserID),
		},
	})
	switch {
	case errors.Is(err, store.ErrConditionFailed):
		return ErrAlreadyReviewed
	case err != nil:
		return err
	}
	return nil
}

// ReserveItem is a transaction item that takes qty units out of stock,
// failing the transaction if fewer remain.
func (s *ProductStore) ReserveItem(productID, qty int64) types.TransactWriteItem {
	return types.TransactWriteItem{Update: &types.Update{
		TableName:                awsString(s.table.Name()),
		Key:                      s.table.Key(productID),
		UpdateExpression:         awsString("SET #q.#in = #q.#in - :qty"),
		ConditionExpression:      awsString("attribute_exists(#pk) AND #q.#in >= :qty"),
		ExpressionAttributeNames: map[string]string{"#pk": "product_id", "#q": "quantity", "#in": "in_stock"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":qty": store.N(qty),
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}}
}

// ReleaseItem is a transaction item that returns qty units to stock. It is
// skipped by the caller for products that no longer exist.
func (s *ProductStore) ReleaseItem(productID, qty int64) types.TransactWriteItem {
	return types.TransactWriteItem{Update: &types.Update{
		TableName:                awsString(s.table.Name()),
		Key:                      s.table.Key(productID),
		UpdateExpression:         awsString("SET #q.#in = #q.#in + :qty"),
		ConditionExpression:      awsString("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": "product_id", "#q": "quantity", "#in": "in_stock"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":qty": store.N(qty),
		},
	}}
}

// SaleItem is a transaction item that adds qty to the sold counter.
func (s *ProductStore) SaleItem(productID, qty int64) types.TransactWriteItem {
	return types.TransactWriteItem{Update: &types.Update{
		TableName:                awsString(s.table.Name()),
		Key:                      s.table.Key(productID),
		UpdateExpression:         awsString("SET #q.#sold = if_not_exists(#q.#sold, :zero) + :qty"),
		ConditionExpression:      awsString("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": "product_id", "#q": "quantity", "#sold": "sold"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":qty":  store.N(qty),
			":zero": store.N(0),
		},
	}}
}

func awsString(s string) *string { return &s }
