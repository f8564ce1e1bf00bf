// Package memstore is an in-memory implementation of the storage ports,
// with the same error contracts as the DynamoDB stores. Every write that
// DynamoDB performs in one transaction happens here under one lock.
package memstore

import (
	"sync"
	"time"

	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/idempotency"
	"github.com/imrishuroy/go-storefront/internal/orders"
)

// DB holds every collection.
type DB struct {
	mu          sync.Mutex
	seq         map[string]int64
	products    map[int64]catalog.Product
	categories  map[int64]catalog.Category
	orders      map[int64]orders.Order
	idempotency map[string]idempotency.Record

	// mismatches makes the next n ApplyTransition calls fail with
	// orders.ErrStatusMismatch, simulating concurrent writers.
	mismatches int
	nowFunc    func() time.Time
}

func New() *DB {
	return &DB{
		seq:         map[string]int64{},
		products:    map[int64]catalog.Product{},
		categories:  map[int64]catalog.Category{},
		orders:      map[int64]orders.Order{},
		idempotency: map[string]idempotency.Record{},
		nowFunc:     time.Now,
	}
}

// InjectStatusMismatch makes the next n status writes lose their race.
func (db *DB) InjectStatusMismatch(n int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.mismatches = n
}

func (db *DB) next(collection string) int64 {
	db.seq[collection]++
	return db.seq[collection]
}

func (db *DB) Products() *Products     { return &Products{db: db} }
func (db *DB) Categories() *Categories { return &Categories{db: db} }
func (db *DB) Orders() *Orders         { return &Orders{db: db} }
func (db *DB) Idempotency() *Idempotency {
	return &Idempotency{db: db}
}

func copyProduct(p catalog.Product) catalog.Product {
	p.Images = append([]string(nil), p.Images...)
	p.Reviews = append([]catalog.Review(nil), p.Reviews...)
	p.ReviewerIDs = append([]int64(nil), p.ReviewerIDs...)
	return p
}

func copyOrder(o orders.Order) orders.Order {
	o.Products = append([]orders.LineItem(nil), o.Products...)
	o.ShippingLog = append([]orders.LogEntry(nil), o.ShippingLog...)
	if o.UserID != nil {
		uid := *o.UserID
		o.UserID = &uid
	}
	return o
}
