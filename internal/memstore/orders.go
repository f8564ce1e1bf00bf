package memstore

import (
	"context"
	"time"

	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/idempotency"
	"github.com/imrishuroy/go-storefront/internal/orders"
	"github.com/imrishuroy/go-storefront/internal/store"
)

// Orders implements orders.Repository. Stock moves on the shared product
// map in the same critical section as the order write.
type Orders struct{ db *DB }

func (r *Orders) NextID(ctx context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.next("orders"), nil
}

func (r *Orders) Create(ctx context.Context, o orders.Order, idempotencyKey string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if idempotencyKey != "" {
		if _, ok := r.db.idempotency[idempotencyKey]; ok {
			return orders.ErrDuplicateRequest
		}
	}
	if _, ok := r.db.orders[o.OrderID]; ok {
		return store.ErrAlreadyExists
	}
	if err := r.db.checkStock(o.Products); err != nil {
		return err
	}
	r.db.moveStock(o.Products, -1)

	r.db.orders[o.OrderID] = copyOrder(o)
	if idempotencyKey != "" {
		now := r.db.nowFunc().UTC()
		r.db.idempotency[idempotencyKey] = idempotency.Record{
			IdempotencyKey: idempotencyKey,
			Status:         idempotency.StatusInProgress,
			OrderID:        o.OrderID,
			RequesterID:    o.UserID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}
	return nil
}

func (r *Orders) Get(ctx context.Context, orderID int64) (*orders.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := copyOrder(o)
	return &cp, nil
}

func (r *Orders) List(ctx context.Context) ([]orders.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []orders.Order
	for _, o := range r.db.orders {
		out = append(out, copyOrder(o))
	}
	return out, nil
}

func (r *Orders) ListByUser(ctx context.Context, userID int64) ([]orders.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []orders.Order
	for _, o := range r.db.orders {
		if o.OwnedBy(userID) {
			out = append(out, copyOrder(o))
		}
	}
	return out, nil
}

func (r *Orders) ApplyTransition(ctx context.Context, orderID int64, t orders.Transition) (*orders.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	o, ok := r.db.orders[orderID]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	if r.db.mismatches > 0 {
		r.db.mismatches--
		return nil, orders.ErrStatusMismatch
	}
	if o.Status != t.From {
		return nil, orders.ErrStatusMismatch
	}
	if err := r.db.checkStock(t.Reserve); err != nil {
		return nil, err
	}
	for _, it := range t.Release {
		if _, ok := r.db.products[it.ProductID]; !ok {
			return nil, store.ErrConditionFailed
		}
	}
	r.db.moveStock(t.Reserve, -1)
	r.db.moveStock(t.Release, 1)

	o = copyOrder(o)
	o.Status = t.To
	o.ShippingLog = append(o.ShippingLog, t.Entry)
	o.StockReserved = t.Reserved
	o.UpdatedAt = r.db.nowFunc().UTC()
	r.db.orders[orderID] = o

	cp := copyOrder(o)
	return &cp, nil
}

// RecordSales mirrors orders.Store.RecordSales.
func (r *Orders) RecordSales(ctx context.Context, orderID int64, items []orders.LineItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	o, ok := r.db.orders[orderID]
	if !ok {
		return orders.ErrOrderNotFound
	}
	if o.SalesRecorded {
		return orders.ErrSalesRecorded
	}
	if o.Status != orders.StatusDelivered {
		return orders.ErrNotDelivered
	}
	for _, it := range items {
		if _, ok := r.db.products[it.ProductID]; !ok {
			return store.ErrConditionFailed
		}
	}
	for _, it := range items {
		p := r.db.products[it.ProductID]
		p.Quantity.Sold += it.Quantity
		r.db.products[it.ProductID] = p
	}
	o.SalesRecorded = true
	o.UpdatedAt = r.db.nowFunc().UTC()
	r.db.orders[orderID] = o
	return nil
}

// checkStock reports missing products first, then shortfalls, in line order.
// Caller holds the lock.
func (db *DB) checkStock(lines []orders.LineItem) error {
	var missing, short []int64
	for _, it := range lines {
		p, ok := db.products[it.ProductID]
		switch {
		case !ok:
			missing = append(missing, it.ProductID)
		case p.Quantity.InStock < it.Quantity:
			short = append(short, it.ProductID)
		}
	}
	switch {
	case len(missing) > 0:
		return apperr.ProductsNotFound(missing)
	case len(short) > 0:
		return apperr.InsufficientStock(short)
	}
	return nil
}

func (db *DB) moveStock(lines []orders.LineItem, sign int64) {
	for _, it := range lines {
		p := db.products[it.ProductID]
		p.Quantity.InStock += sign * it.Quantity
		db.products[it.ProductID] = p
	}
}

// Idempotency serves idempotency records written by Orders.Create.
type Idempotency struct{ db *DB }

func (r *Idempotency) Get(ctx context.Context, key string) (*idempotency.Record, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rec, ok := r.db.idempotency[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *Idempotency) MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rec, ok := r.db.idempotency[key]
	if !ok {
		return store.ErrItemNotFound
	}
	rec.Status = idempotency.StatusDone
	rec.ResponseBody = responseBody
	rec.ResponseStatus = responseStatus
	rec.UpdatedAt = r.db.nowFunc().UTC()
	r.db.idempotency[key] = rec
	return nil
}

// SetClock replaces the clock used for timestamps.
func (db *DB) SetClock(now func() time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nowFunc = now
}
