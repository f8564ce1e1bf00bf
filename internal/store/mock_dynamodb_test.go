package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is a small in-memory table keyed by one numeric attribute.
// It understands "SET #a = :b, ..." updates and the "ADD seq :one" counter,
// which is all the generic table needs.
type mockDynamo struct {
	mu         sync.Mutex
	keyAttr    string
	items      map[string]map[string]types.AttributeValue
	pageSize   int  // scan/query page size; 0 = unlimited
	throttle   int  // number of BatchGetItem calls that leave half the keys unprocessed
	failCond   bool // UpdateItem fails its condition for existing items
	lastUpdate *dyn.UpdateItemInput
	batchCalls int
}

func newMockDynamo(keyAttr string) *mockDynamo {
	return &mockDynamo{keyAttr: keyAttr, items: map[string]map[string]types.AttributeValue{}}
}

func keyString(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		return v.Value
	case *types.AttributeValueMemberS:
		return v.Value
	}
	return ""
}

func (m *mockDynamo) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[keyString(in.Key[m.keyAttr])]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := keyString(in.Item[m.keyAttr])
	if k == "" {
		return nil, errors.New("no primary key in put item")
	}
	if in.ConditionExpression != nil && *in.ConditionExpression == "attribute_not_exists(#pk)" {
		if _, exists := m.items[k]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.items[k] = in.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUpdate = in
	k := keyString(in.Key[m.keyAttr])
	item, exists := m.items[k]

	if *in.UpdateExpression == "ADD seq :one" {
		if !exists {
			item = map[string]types.AttributeValue{m.keyAttr: in.Key[m.keyAttr], "seq": N(0)}
		}
		next := Int64(item, "seq") + 1
		item["seq"] = N(next)
		m.items[k] = item
		return &dyn.UpdateItemOutput{Attributes: map[string]types.AttributeValue{"seq": N(next)}}, nil
	}

	if !exists {
		return nil, &types.ConditionalCheckFailedException{}
	}
	if m.failCond {
		return nil, &types.ConditionalCheckFailedException{Item: item}
	}
	updated := make(map[string]types.AttributeValue, len(item))
	for a, v := range item {
		updated[a] = v
	}
	expr := strings.TrimPrefix(*in.UpdateExpression, "SET ")
	for _, clause := range strings.Split(expr, ",") {
		parts := strings.Split(clause, "=")
		if len(parts) != 2 {
			return nil, errors.New("mock only supports SET a = b")
		}
		name := in.ExpressionAttributeNames[strings.TrimSpace(parts[0])]
		updated[name] = in.ExpressionAttributeValues[strings.TrimSpace(parts[1])]
	}
	m.items[k] = updated
	return &dyn.UpdateItemOutput{Attributes: updated}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, in *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := keyString(in.Key[m.keyAttr])
	item := m.items[k]
	delete(m.items, k)
	return &dyn.DeleteItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) BatchGetItem(ctx context.Context, in *dyn.BatchGetItemInput, optFns ...func(*dyn.Options)) (*dyn.BatchGetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	out := &dyn.BatchGetItemOutput{Responses: map[string][]map[string]types.AttributeValue{}}
	for table, ka := range in.RequestItems {
		if len(ka.Keys) > batchGetLimit {
			return nil, errors.New("too many keys")
		}
		keys := ka.Keys
		if m.throttle > 0 && len(keys) > 1 {
			m.throttle--
			half := len(keys) / 2
			out.UnprocessedKeys = map[string]types.KeysAndAttributes{table: {Keys: keys[half:]}}
			keys = keys[:half]
		}
		for _, key := range keys {
			if item, ok := m.items[keyString(key[m.keyAttr])]; ok {
				out.Responses[table] = append(out.Responses[table], item)
			}
		}
	}
	return out, nil
}

func (m *mockDynamo) sortedItems(match func(map[string]types.AttributeValue) bool) []map[string]types.AttributeValue {
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []map[string]types.AttributeValue
	for _, k := range keys {
		if match == nil || match(m.items[k]) {
			out = append(out, m.items[k])
		}
	}
	return out
}

// page returns items after start, honouring pageSize.
func (m *mockDynamo) page(items []map[string]types.AttributeValue, start map[string]types.AttributeValue) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	from := 0
	if start != nil {
		for i, it := range items {
			if keyString(it[m.keyAttr]) == keyString(start[m.keyAttr]) {
				from = i + 1
			}
		}
	}
	items = items[from:]
	if m.pageSize == 0 || len(items) <= m.pageSize {
		return items, nil
	}
	last := items[m.pageSize-1]
	return items[:m.pageSize], map[string]types.AttributeValue{m.keyAttr: last[m.keyAttr]}
}

func (m *mockDynamo) Scan(ctx context.Context, in *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, lek := m.page(m.sortedItems(nil), in.ExclusiveStartKey)
	return &dyn.ScanOutput{Items: items, LastEvaluatedKey: lek}, nil
}

func (m *mockDynamo) Query(ctx context.Context, in *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attr := in.ExpressionAttributeNames["#k"]
	want := keyString(in.ExpressionAttributeValues[":v"])
	items, lek := m.page(m.sortedItems(func(it map[string]types.AttributeValue) bool {
		return keyString(it[attr]) == want
	}), in.ExclusiveStartKey)
	return &dyn.QueryOutput{Items: items, LastEvaluatedKey: lek}, nil
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, in *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	return nil, errors.New("not supported by this mock")
}
