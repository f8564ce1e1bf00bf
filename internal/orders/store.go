package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/store"
)

var (
	// ErrStatusMismatch is returned when the order's status changed under us.
	ErrStatusMismatch = errors.New("status mismatch/conditional failed")
	// ErrDuplicateRequest is returned when the idempotency key was already used.
	ErrDuplicateRequest = errors.New("duplicate idempotency key")
	// ErrSalesRecorded is returned when sold counters were already bumped for the order.
	ErrSalesRecorded = errors.New("sales already recorded")
	// ErrNotDelivered is returned by RecordSales when the order is no longer delivered.
	ErrNotDelivered = errors.New("order is not delivered")
	// ErrOrderNotFound is returned by writes that target a missing order.
	ErrOrderNotFound = errors.New("order not found")
)

const ordersCollection = "orders"

// StockItems builds the product-side transaction items.
type StockItems interface {
	ReserveItem(productID, qty int64) types.TransactWriteItem
	ReleaseItem(productID, qty int64) types.TransactWriteItem
	SaleItem(productID, qty int64) types.TransactWriteItem
}

// IdempotencyWriter builds the idempotency record written with a new order.
type IdempotencyWriter interface {
	TxPut(key string, orderID int64, requesterID *int64) (types.TransactWriteItem, error)
}

// Transition describes one status change and its stock effects.
type Transition struct {
	From     Status
	To       Status
	Entry    LogEntry
	Reserve  []LineItem // stock to take back out (leaving canceled)
	Release  []LineItem // stock to return (entering canceled)
	Reserved bool       // stock_reserved after the change
}

// Store encapsulates operations on the orders table.
type Store struct {
	client      aws.DynamoDBAPI
	table       *store.Table[Order]
	userIndex   string
	seq         *store.Sequence
	stock       StockItems
	idempotency IdempotencyWriter
	nowFunc     func() time.Time
}

// NewStore creates a new orders Store. idem may be nil when idempotency keys are not used.
func NewStore(client aws.DynamoDBAPI, tableName, userIndex string, seq *store.Sequence, stock StockItems, idem IdempotencyWriter) *Store {
	return &Store{
		client:      client,
		table:       store.NewTable[Order](client, tableName, "order_id"),
		userIndex:   userIndex,
		seq:         seq,
		stock:       stock,
		idempotency: idem,
		nowFunc:     time.Now,
	}
}

func (s *Store) NextID(ctx context.Context) (int64, error) {
	return s.seq.Next(ctx, ordersCollection)
}

// Create atomically writes, in one TransactWriteItems call:
//   - the idempotency record (when key is set), conditioned on the key being new
//   - the order, conditioned on the order id being new
//   - one conditional stock decrement per line item
//
// Line items must reference distinct products.
func (s *Store) Create(ctx context.Context, o Order, idempotencyKey string) error {
	now := s.nowFunc().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	var items []types.TransactWriteItem
	if idempotencyKey != "" && s.idempotency != nil {
		put, err := s.idempotency.TxPut(idempotencyKey, o.OrderID, o.UserID)
		if err != nil {
			return err
		}
		items = append(items, put)
	}
	first := len(items)

	orderPut, err := s.table.TxCreate(o)
	if err != nil {
		return err
	}
	items = append(items, orderPut)
	for _, it := range o.Products {
		items = append(items, s.stock.ReserveItem(it.ProductID, it.Quantity))
	}

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{TransactItems: items})
	if err == nil {
		return nil
	}
	reasons, ok := store.CancellationReasons(err)
	if !ok {
		return fmt.Errorf("transact write: %w", err)
	}
	if first > 0 && reasonAt(reasons, 0) == "ConditionalCheckFailed" {
		return ErrDuplicateRequest
	}
	if reasonAt(reasons, first) == "ConditionalCheckFailed" {
		return fmt.Errorf("order %d already exists: %w", o.OrderID, store.ErrAlreadyExists)
	}
	if stockErr := stockFailure(err, reasons, first+1, o.Products); stockErr != nil {
		return stockErr
	}
	return fmt.Errorf("transaction canceled %v: %w", reasons, err)
}

// stockFailure classifies failed stock items starting at offset: a missing
// product means ProductsNotFound, otherwise the shortfall is InsufficientStock.
func stockFailure(err error, reasons []string, offset int, lines []LineItem) error {
	var tce *types.TransactionCanceledException
	errors.As(err, &tce)

	var missing, short []int64
	for i, it := range lines {
		idx := offset + i
		if reasonAt(reasons, idx) != "ConditionalCheckFailed" {
			continue
		}
		if tce != nil && idx < len(tce.CancellationReasons) && len(tce.CancellationReasons[idx].Item) == 0 {
			missing = append(missing, it.ProductID)
			continue
		}
		short = append(short, it.ProductID)
	}
	switch {
	case len(missing) > 0:
		return apperr.ProductsNotFound(missing)
	case len(short) > 0:
		return apperr.InsufficientStock(short)
	}
	return nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID int64) (*Order, error) {
	return s.table.Get(ctx, orderID)
}

func (s *Store) List(ctx context.Context) ([]Order, error) {
	return s.table.Scan(ctx, nil)
}

// ListByUser queries the sparse user_id index.
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	return s.table.QueryIndex(ctx, s.userIndex, "user_id", store.N(userID))
}

// ApplyTransition sets the new status and appends the log entry in one
// conditional write, guarded by the expected current status. Stock effects,
// if any, commit in the same transaction. Returns ErrStatusMismatch if the
// status is no longer t.From and ErrOrderNotFound if the order is gone.
func (s *Store) ApplyTransition(ctx context.Context, orderID int64, t Transition) (*Order, error) {
	entry, err := attributevalue.Marshal([]LogEntry{t.Entry})
	if err != nil {
		return nil, fmt.Errorf("marshal log entry: %w", err)
	}
	u := store.Update{
		Expression: "SET #s = :to, #log = list_append(#log, :entry), #ua = :ua, #sr = :sr",
		Condition:  "#s = :expected",
		Names: map[string]string{
			"#s":   "status",
			"#log": "shipping_log",
			"#ua":  "updated_at",
			"#sr":  "stock_reserved",
		},
		Values: map[string]types.AttributeValue{
			":to":       store.S(string(t.To)),
			":expected": store.S(string(t.From)),
			":entry":    entry,
			":ua":       store.S(s.nowFunc().UTC().Format(time.RFC3339Nano)),
			":sr":       store.Bool(t.Reserved),
		},
	}

	if len(t.Reserve) == 0 && len(t.Release) == 0 {
		o, err := s.table.Update(ctx, orderID, u)
		switch {
		case errors.Is(err, store.ErrConditionFailed):
			return nil, ErrStatusMismatch
		case errors.Is(err, store.ErrItemNotFound):
			return nil, ErrOrderNotFound
		case err != nil:
			return nil, err
		}
		return o, nil
	}

	items := []types.TransactWriteItem{s.orderUpdateItem(orderID, u)}
	for _, it := range t.Reserve {
		items = append(items, s.stock.ReserveItem(it.ProductID, it.Quantity))
	}
	for _, it := range t.Release {
		items = append(items, s.stock.ReleaseItem(it.ProductID, it.Quantity))
	}

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		reasons, ok := store.CancellationReasons(err)
		if !ok {
			return nil, fmt.Errorf("transact write: %w", err)
		}
		if reasonAt(reasons, 0) == "ConditionalCheckFailed" {
			return nil, s.orderConditionFailure(err)
		}
		if stockErr := stockFailure(err, reasons, 1, t.Reserve); stockErr != nil {
			return nil, stockErr
		}
		return nil, fmt.Errorf("transaction canceled %v: %w", reasons, err)
	}

	o, err := s.table.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// RecordSales marks a delivered order's sales as recorded and bumps each
// product's sold counter, once per order. Products that no longer exist
// should be left out of items. Returns ErrSalesRecorded on repeats and
// ErrNotDelivered when the order has moved on from delivered.
func (s *Store) RecordSales(ctx context.Context, orderID int64, items []LineItem) error {
	u := store.Update{
		Expression: "SET #sales = :true, #ua = :ua",
		Condition:  "#s = :delivered AND (attribute_not_exists(#sales) OR #sales = :false)",
		Names:      map[string]string{"#sales": "sales_recorded", "#ua": "updated_at", "#s": "status"},
		Values: map[string]types.AttributeValue{
			":true":      store.Bool(true),
			":false":     store.Bool(false),
			":delivered": store.S(string(StatusDelivered)),
			":ua":        store.S(s.nowFunc().UTC().Format(time.RFC3339Nano)),
		},
	}
	tx := []types.TransactWriteItem{s.orderUpdateItem(orderID, u)}
	for _, it := range items {
		tx = append(tx, s.stock.SaleItem(it.ProductID, it.Quantity))
	}

	_, err := s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{TransactItems: tx})
	if err == nil {
		return nil
	}
	reasons, ok := store.CancellationReasons(err)
	if ok && reasonAt(reasons, 0) == "ConditionalCheckFailed" {
		return salesConditionFailure(err)
	}
	return fmt.Errorf("record sales: %w", err)
}

// salesConditionFailure reads the order's old image to tell why RecordSales
// was refused.
func salesConditionFailure(err error) error {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) || len(tce.CancellationReasons) == 0 || len(tce.CancellationReasons[0].Item) == 0 {
		return ErrOrderNotFound
	}
	var old Order
	if uerr := attributevalue.UnmarshalMap(tce.CancellationReasons[0].Item, &old); uerr != nil {
		return fmt.Errorf("unmarshal order image: %w", uerr)
	}
	if old.SalesRecorded {
		return ErrSalesRecorded
	}
	if old.Status != StatusDelivered {
		return fmt.Errorf("order %d is %s: %w", old.OrderID, old.Status, ErrNotDelivered)
	}
	return ErrSalesRecorded
}

func (s *Store) orderUpdateItem(orderID int64, u store.Update) types.TransactWriteItem {
	names := map[string]string{"#pk": "order_id"}
	for k, v := range u.Names {
		names[k] = v
	}
	cond := "attribute_exists(#pk) AND (" + u.Condition + ")"
	return types.TransactWriteItem{Update: &types.Update{
		TableName:                           awsString(s.table.Name()),
		Key:                                 s.table.Key(orderID),
		UpdateExpression:                    awsString(u.Expression),
		ConditionExpression:                 &cond,
		ExpressionAttributeNames:            names,
		ExpressionAttributeValues:           u.Values,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}}
}

// orderConditionFailure tells a missing order from a status mismatch using
// the old image returned with the first cancellation reason.
func (s *Store) orderConditionFailure(err error) error {
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) && len(tce.CancellationReasons) > 0 && len(tce.CancellationReasons[0].Item) == 0 {
		return ErrOrderNotFound
	}
	return ErrStatusMismatch
}

func reasonAt(reasons []string, i int) string {
	if i < 0 || i >= len(reasons) {
		return ""
	}
	return reasons[i]
}

func awsString(s string) *string { return &s }
