package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-storefront/internal/aws"
)

const (
	batchGetLimit   = 100
	maxBatchRetries = 5
)

// Update is a raw UpdateItem expression with its placeholders.
type Update struct {
	Expression string
	Condition  string
	Names      map[string]string
	Values     map[string]types.AttributeValue
}

// Filter narrows a Scan.
type Filter struct {
	Expression string
	Names      map[string]string
	Values     map[string]types.AttributeValue
}

// Table is a DynamoDB table whose items are T, keyed by a single numeric attribute.
type Table[T any] struct {
	client  aws.DynamoDBAPI
	name    string
	keyAttr string
}

func NewTable[T any](client aws.DynamoDBAPI, name, keyAttr string) *Table[T] {
	return &Table[T]{client: client, name: name, keyAttr: keyAttr}
}

func (t *Table[T]) Name() string    { return t.name }
func (t *Table[T]) KeyAttr() string { return t.keyAttr }

func (t *Table[T]) Key(id int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{t.keyAttr: N(id)}
}

// Get fetches one item. Returns (nil, nil) if not found.
func (t *Table[T]) Get(ctx context.Context, id int64) (*T, error) {
	out, err := t.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &t.name,
		Key:            t.Key(id),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", t.name, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var v T
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", t.name, err)
	}
	return &v, nil
}

// BatchGet fetches all ids that exist, in no particular order. Missing ids
// are simply absent from the result.
func (t *Table[T]) BatchGet(ctx context.Context, ids []int64) ([]T, error) {
	out := make([]T, 0, len(ids))
	for start := 0; start < len(ids); start += batchGetLimit {
		end := min(start+batchGetLimit, len(ids))
		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, t.Key(id))
		}

		request := map[string]types.KeysAndAttributes{t.name: {Keys: keys, ConsistentRead: awsBool(true)}}
		for attempt := 0; len(request) > 0; attempt++ {
			if attempt > maxBatchRetries {
				return nil, fmt.Errorf("batch get %s: unprocessed keys after %d retries", t.name, maxBatchRetries)
			}
			if attempt > 0 {
				if err := sleep(ctx, time.Duration(1<<attempt)*25*time.Millisecond); err != nil {
					return nil, err
				}
			}
			resp, err := t.client.BatchGetItem(ctx, &dyn.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, fmt.Errorf("batch get %s: %w", t.name, err)
			}
			for _, item := range resp.Responses[t.name] {
				var v T
				if err := attributevalue.UnmarshalMap(item, &v); err != nil {
					return nil, fmt.Errorf("unmarshal %s: %w", t.name, err)
				}
				out = append(out, v)
			}
			request = resp.UnprocessedKeys
		}
	}
	return out, nil
}

// Create writes item only if its key is unused. Returns ErrAlreadyExists otherwise.
func (t *Table[T]) Create(ctx context.Context, item T) error {
	put, err := t.TxCreate(item)
	if err != nil {
		return err
	}
	_, err = t.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:                put.Put.TableName,
		Item:                     put.Put.Item,
		ConditionExpression:      put.Put.ConditionExpression,
		ExpressionAttributeNames: put.Put.ExpressionAttributeNames,
	})
	if err != nil {
		if IsConditionFailed(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("put %s: %w", t.name, err)
	}
	return nil
}

// TxCreate returns the conditional Put of Create for use inside a transaction.
func (t *Table[T]) TxCreate(item T) (types.TransactWriteItem, error) {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("marshal %s: %w", t.name, err)
	}
	return types.TransactWriteItem{Put: &types.Put{
		TableName:                &t.name,
		Item:                     av,
		ConditionExpression:      awsString("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": t.keyAttr},
	}}, nil
}

// Update applies u to an existing item and returns the new image.
// Returns ErrItemNotFound when the item is missing and ErrConditionFailed
// when u.Condition does not hold.
func (t *Table[T]) Update(ctx context.Context, id int64, u Update) (*T, error) {
	names := map[string]string{"#pk": t.keyAttr}
	for k, v := range u.Names {
		names[k] = v
	}
	cond := "attribute_exists(#pk)"
	if u.Condition != "" {
		cond += " AND (" + u.Condition + ")"
	}
	in := &dyn.UpdateItemInput{
		TableName:                           &t.name,
		Key:                                 t.Key(id),
		UpdateExpression:                    &u.Expression,
		ConditionExpression:                 &cond,
		ExpressionAttributeNames:            names,
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}
	if len(u.Values) > 0 {
		in.ExpressionAttributeValues = u.Values
	}

	out, err := t.client.UpdateItem(ctx, in)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			if len(ccf.Item) == 0 {
				return nil, ErrItemNotFound
			}
			return nil, ErrConditionFailed
		}
		if IsConditionFailed(err) {
			return nil, ErrConditionFailed
		}
		return nil, fmt.Errorf("update %s: %w", t.name, err)
	}
	var v T
	if err := attributevalue.UnmarshalMap(out.Attributes, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", t.name, err)
	}
	return &v, nil
}

// ToggleBool flips a boolean attribute with a compare-and-set on its
// current value, retrying a few times under contention.
func (t *Table[T]) ToggleBool(ctx context.Context, id int64, attr string) (*T, error) {
	for attempt := 0; attempt < 3; attempt++ {
		out, err := t.client.GetItem(ctx, &dyn.GetItemInput{
			TableName:                &t.name,
			Key:                      t.Key(id),
			ProjectionExpression:     awsString("#a"),
			ExpressionAttributeNames: map[string]string{"#a": attr},
			ConsistentRead:           awsBool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", t.name, err)
		}
		if len(out.Item) == 0 {
			return nil, ErrItemNotFound
		}
		current := false
		if b, ok := out.Item[attr].(*types.AttributeValueMemberBOOL); ok {
			current = b.Value
		}

		u := Update{
			Expression: "SET #a = :next",
			Names:      map[string]string{"#a": attr},
			Values:     map[string]types.AttributeValue{":next": Bool(!current)},
		}
		if _, ok := out.Item[attr]; ok {
			u.Condition = "#a = :cur"
			u.Values[":cur"] = Bool(current)
		} else {
			u.Condition = "attribute_not_exists(#a)"
		}
		v, err := t.Update(ctx, id, u)
		if errors.Is(err, ErrConditionFailed) {
			continue
		}
		return v, err
	}
	return nil, ErrConditionFailed
}

// Delete removes an item and returns its last image. Returns (nil, nil) if not found.
func (t *Table[T]) Delete(ctx context.Context, id int64) (*T, error) {
	out, err := t.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName:    &t.name,
		Key:          t.Key(id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, fmt.Errorf("delete %s: %w", t.name, err)
	}
	if len(out.Attributes) == 0 {
		return nil, nil
	}
	var v T
	if err := attributevalue.UnmarshalMap(out.Attributes, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", t.name, err)
	}
	return &v, nil
}

// Scan reads the whole table, optionally filtered.
func (t *Table[T]) Scan(ctx context.Context, f *Filter) ([]T, error) {
	in := &dyn.ScanInput{TableName: &t.name}
	if f != nil && f.Expression != "" {
		in.FilterExpression = &f.Expression
		in.ExpressionAttributeNames = f.Names
		in.ExpressionAttributeValues = f.Values
	}

	var out []T
	for {
		resp, err := t.client.Scan(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		page := make([]T, 0, len(resp.Items))
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", t.name, err)
		}
		out = append(out, page...)
		if len(resp.LastEvaluatedKey) == 0 {
			return out, nil
		}
		in.ExclusiveStartKey = resp.LastEvaluatedKey
	}
}

// QueryIndex returns every item of index whose attr equals value.
func (t *Table[T]) QueryIndex(ctx context.Context, index, attr string, value types.AttributeValue) ([]T, error) {
	in := &dyn.QueryInput{
		TableName:                 &t.name,
		IndexName:                 &index,
		KeyConditionExpression:    awsString("#k = :v"),
		ExpressionAttributeNames:  map[string]string{"#k": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": value},
	}

	var out []T
	for {
		resp, err := t.client.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("query %s/%s: %w", t.name, index, err)
		}
		page := make([]T, 0, len(resp.Items))
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", t.name, err)
		}
		out = append(out, page...)
		if len(resp.LastEvaluatedKey) == 0 {
			return out, nil
		}
		in.ExclusiveStartKey = resp.LastEvaluatedKey
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
