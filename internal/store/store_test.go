package store

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID     int64  `dynamodbav:"widget_id"`
	Name   string `dynamodbav:"name"`
	Owner  int64  `dynamodbav:"owner_id,omitempty"`
	Active bool   `dynamodbav:"active"`
}

func TestTable_CreateGetDelete(t *testing.T) {
	mock := newMockDynamo("widget_id")
	tbl := NewTable[widget](mock, "widgets", "widget_id")
	ctx := context.Background()

	require.NoError(t, tbl.Create(ctx, widget{ID: 1, Name: "bolt"}))
	assert.ErrorIs(t, tbl.Create(ctx, widget{ID: 1, Name: "dup"}), ErrAlreadyExists)

	got, err := tbl.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "bolt", got.Name)

	missing, err := tbl.Get(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	deleted, err := tbl.Delete(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.Equal(t, "bolt", deleted.Name)

	again, err := tbl.Delete(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestTable_Update(t *testing.T) {
	mock := newMockDynamo("widget_id")
	tbl := NewTable[widget](mock, "widgets", "widget_id")
	ctx := context.Background()
	require.NoError(t, tbl.Create(ctx, widget{ID: 1, Name: "bolt"}))

	u, err := SetFields(map[string]interface{}{"name": "nut", "active": true})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :f0, #f1 = :f1", u.Expression)

	got, err := tbl.Update(ctx, 1, u)
	require.NoError(t, err)
	assert.Equal(t, "nut", got.Name)
	assert.True(t, got.Active)
	assert.Equal(t, "attribute_exists(#pk)", *mock.lastUpdate.ConditionExpression)

	_, err = tbl.Update(ctx, 2, u)
	assert.ErrorIs(t, err, ErrItemNotFound)

	mock.failCond = true
	u.Condition = "#f1 = :f1"
	_, err = tbl.Update(ctx, 1, u)
	assert.ErrorIs(t, err, ErrConditionFailed)
	assert.Equal(t, "attribute_exists(#pk) AND (#f1 = :f1)", *mock.lastUpdate.ConditionExpression)
}

func TestTable_BatchGet_ChunksAndRetries(t *testing.T) {
	mock := newMockDynamo("widget_id")
	tbl := NewTable[widget](mock, "widgets", "widget_id")
	ctx := context.Background()

	ids := make([]int64, 0, 150)
	for i := int64(1); i <= 150; i++ {
		require.NoError(t, tbl.Create(ctx, widget{ID: i, Name: "w"}))
		ids = append(ids, i)
	}
	ids = append(ids, 1000) // missing
	mock.throttle = 1

	got, err := tbl.BatchGet(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, got, 150)
	assert.Equal(t, 3, mock.batchCalls)
}

func TestTable_BatchGet_GivesUp(t *testing.T) {
	mock := newMockDynamo("widget_id")
	tbl := NewTable[widget](mock, "widgets", "widget_id")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, tbl.Create(context.Background(), widget{ID: 1}))
	require.NoError(t, tbl.Create(context.Background(), widget{ID: 2}))
	mock.throttle = 100

	_, err := tbl.BatchGet(ctx, []int64{1, 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTable_ScanAndQuery_Paginate(t *testing.T) {
	mock := newMockDynamo("widget_id")
	mock.pageSize = 2
	tbl := NewTable[widget](mock, "widgets", "widget_id")
	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, tbl.Create(ctx, widget{ID: i, Owner: i % 2}))
	}

	all, err := tbl.Scan(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	odd, err := tbl.QueryIndex(ctx, "owner_id-index", "owner_id", N(1))
	require.NoError(t, err)
	assert.Len(t, odd, 3)
}

func TestSequence_Next(t *testing.T) {
	mock := newMockDynamo("name")
	seq := NewSequence(mock, "counters")
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		id, err := seq.Next(ctx, "orders")
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
	id, err := seq.Next(ctx, "products")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestCancellationReasons(t *testing.T) {
	code := func(s string) *string { return &s }
	err := &types.TransactionCanceledException{CancellationReasons: []types.CancellationReason{
		{Code: code("None")}, {Code: code("ConditionalCheckFailed")},
	}}

	reasons, ok := CancellationReasons(err)
	require.True(t, ok)
	assert.Equal(t, []string{"None", "ConditionalCheckFailed"}, reasons)

	_, ok = CancellationReasons(errors.New("other"))
	assert.False(t, ok)
	assert.True(t, IsConditionFailed(&types.ConditionalCheckFailedException{}))
}

func TestTable_ToggleBool(t *testing.T) {
	mock := newMockDynamo("widget_id")
	tbl := NewTable[widget](mock, "widgets", "widget_id")
	ctx := context.Background()
	require.NoError(t, tbl.Create(ctx, widget{ID: 1, Active: true}))

	got, err := tbl.ToggleBool(ctx, 1, "active")
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, "attribute_exists(#pk) AND (#a = :cur)", *mock.lastUpdate.ConditionExpression)

	got, err = tbl.ToggleBool(ctx, 1, "active")
	require.NoError(t, err)
	assert.True(t, got.Active)

	_, err = tbl.ToggleBool(ctx, 2, "active")
	assert.ErrorIs(t, err, ErrItemNotFound)
}
