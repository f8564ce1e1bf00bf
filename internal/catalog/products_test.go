package catalog

import (
	"context"
	"errors"
	"testing"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/store"
)

// updateRecorder captures UpdateItem calls and answers with a scripted error.
// Other DynamoDB calls are not expected by these tests.
type updateRecorder struct {
	aws.DynamoDBAPI
	last *dyn.UpdateItemInput
	err  error
}

func (u *updateRecorder) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	u.last = in
	if u.err != nil {
		return nil, u.err
	}
	return &dyn.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
		"product_id": store.N(1),
		"name":       store.S("Mug"),
	}}, nil
}

func conditionFailed(existing bool) error {
	ccf := &types.ConditionalCheckFailedException{Message: awsString("The conditional request failed")}
	if existing {
		ccf.Item = map[string]types.AttributeValue{"product_id": store.N(1)}
	}
	return ccf
}

func numberValue(t *testing.T, av types.AttributeValue) string {
	t.Helper()
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		t.Fatalf("expected number attribute, got %T", av)
	}
	return n.Value
}

func TestAddReview_ConditionalAppend(t *testing.T) {
	rec := &updateRecorder{}
	s := NewProductStore(rec, "products", nil)

	if err := s.AddReview(context.Background(), 1, Review{UserID: 7, Review: "good", Rating: 5}); err != nil {
		t.Fatalf("AddReview: %v", err)
	}
	in := rec.last
	if got := *in.UpdateExpression; got != "SET #r = list_append(if_not_exists(#r, :empty), :rev) ADD #rid :uidset" {
		t.Fatalf("unexpected update expression %q", got)
	}
	if got := *in.ConditionExpression; got != "attribute_exists(#pk) AND (NOT contains(#rid, :uid))" {
		t.Fatalf("unexpected condition %q", got)
	}
	if got := numberValue(t, in.ExpressionAttributeValues[":uid"]); got != "7" {
		t.Fatalf("expected :uid 7, got %s", got)
	}
	set, ok := in.ExpressionAttributeValues[":uidset"].(*types.AttributeValueMemberNS)
	if !ok || len(set.Value) != 1 || set.Value[0] != "7" {
		t.Fatalf("expected reviewer set [7], got %#v", in.ExpressionAttributeValues[":uidset"])
	}
	list, ok := in.ExpressionAttributeValues[":rev"].(*types.AttributeValueMemberL)
	if !ok || len(list.Value) != 1 {
		t.Fatalf("expected one-element review list, got %#v", in.ExpressionAttributeValues[":rev"])
	}
}

func TestAddReview_Failures(t *testing.T) {
	s := NewProductStore(&updateRecorder{err: conditionFailed(true)}, "products", nil)
	if err := s.AddReview(context.Background(), 1, Review{UserID: 7}); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}

	s = NewProductStore(&updateRecorder{err: conditionFailed(false)}, "products", nil)
	if err := s.AddReview(context.Background(), 1, Review{UserID: 7}); !errors.Is(err, store.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound for a missing product, got %v", err)
	}
}

func TestAdjustStock_GuardsNegativeDelta(t *testing.T) {
	rec := &updateRecorder{}
	s := NewProductStore(rec, "products", nil)

	if _, err := s.AdjustStock(context.Background(), 1, 5); err != nil {
		t.Fatalf("restock: %v", err)
	}
	if got := *rec.last.ConditionExpression; got != "attribute_exists(#pk)" {
		t.Fatalf("restock should only require the product, got %q", got)
	}

	if _, err := s.AdjustStock(context.Background(), 1, -3); err != nil {
		t.Fatalf("write off: %v", err)
	}
	if got := *rec.last.ConditionExpression; got != "attribute_exists(#pk) AND (#q.#in >= :need)" {
		t.Fatalf("unexpected condition %q", got)
	}
	if got := numberValue(t, rec.last.ExpressionAttributeValues[":need"]); got != "3" {
		t.Fatalf("expected :need 3, got %s", got)
	}

	rec.err = conditionFailed(true)
	if _, err := s.AdjustStock(context.Background(), 1, -100); !errors.Is(err, store.ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed, got %v", err)
	}
}

func TestStockTransactionItems(t *testing.T) {
	s := NewProductStore(&updateRecorder{}, "products", nil)

	reserve := s.ReserveItem(4, 2).Update
	if reserve == nil || *reserve.TableName != "products" {
		t.Fatalf("expected an update on products, got %#v", reserve)
	}
	if *reserve.ConditionExpression != "attribute_exists(#pk) AND #q.#in >= :qty" {
		t.Fatalf("unexpected reserve condition %q", *reserve.ConditionExpression)
	}
	if reserve.ReturnValuesOnConditionCheckFailure != types.ReturnValuesOnConditionCheckFailureAllOld {
		t.Fatal("reserve must return the old item to tell missing products from short stock")
	}
	if got := numberValue(t, reserve.Key["product_id"]); got != "4" {
		t.Fatalf("expected key 4, got %s", got)
	}

	release := s.ReleaseItem(4, 2).Update
	if *release.UpdateExpression != "SET #q.#in = #q.#in + :qty" {
		t.Fatalf("unexpected release expression %q", *release.UpdateExpression)
	}

	sale := s.SaleItem(4, 2).Update
	if got := numberValue(t, sale.ExpressionAttributeValues[":qty"]); got != "2" {
		t.Fatalf("expected :qty 2, got %s", got)
	}
}
