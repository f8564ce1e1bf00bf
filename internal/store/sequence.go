package store

import (
	"context"
	"fmt"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-storefront/internal/aws"
)

// Sequence hands out per-collection auto-increment ids from a counters table
// keyed by "name". Ids start at 1 and are never reused.
type Sequence struct {
	client    aws.DynamoDBAPI
	tableName string
}

func NewSequence(client aws.DynamoDBAPI, tableName string) *Sequence {
	return &Sequence{client: client, tableName: tableName}
}

// Next atomically increments and returns the counter for collection.
func (s *Sequence) Next(ctx context.Context, collection string) (int64, error) {
	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       map[string]types.AttributeValue{"name": S(collection)},
		UpdateExpression:          awsString("ADD seq :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":one": N(1)},
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", collection, err)
	}
	id := Int64(out.Attributes, "seq")
	if id <= 0 {
		return 0, fmt.Errorf("next %s id: counter returned %d", collection, id)
	}
	return id, nil
}
