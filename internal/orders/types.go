package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is an order lifecycle state.
type Status string

// Order statuses
const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipping  Status = "shipping"
	StatusDelivered Status = "delivered"
	StatusCanceled  Status = "canceled"
)

const DefaultPayment = "cash"

type Contact struct {
	FullName    string `dynamodbav:"full_name" json:"full_name" validate:"notblank,max=100"`
	PhoneNumber string `dynamodbav:"phone_number" json:"phone_number" validate:"notblank,max=20"`
	Email       string `dynamodbav:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
}

type Address struct {
	Address  string `dynamodbav:"address" json:"address" validate:"notblank,max=200"`
	Province string `dynamodbav:"province" json:"province" validate:"notblank,max=100"`
	District string `dynamodbav:"district" json:"district" validate:"notblank,max=100"`
	Ward     string `dynamodbav:"ward" json:"ward" validate:"notblank,max=100"`
}

// LineItem is the product snapshot taken when the order was placed.
// Quantity and Price are never re-derived from the catalog.
type LineItem struct {
	ProductID int64   `dynamodbav:"product_id" json:"product_id"`
	Quantity  int64   `dynamodbav:"quantity" json:"quantity"`
	Price     float64 `dynamodbav:"price" json:"price"`
}

// LogEntry is one row of the append-only shipping log.
type LogEntry struct {
	Status      Status    `dynamodbav:"status" json:"status"`
	Description string    `dynamodbav:"description" json:"description"`
	Time        time.Time `dynamodbav:"time" json:"time"`
	CreatedBy   *int64    `dynamodbav:"created_by" json:"created_by"` // nil for anonymous requesters
}

// Order represents the item stored in the orders table.
type Order struct {
	OrderID       int64      `dynamodbav:"order_id" json:"order_id"`                   // PK
	UserID        *int64     `dynamodbav:"user_id,omitempty" json:"user_id,omitempty"` // sparse GSI; nil for anonymous orders
	Contact       Contact    `dynamodbav:"contact" json:"contact"`
	Address       Address    `dynamodbav:"address" json:"address"`
	Products      []LineItem `dynamodbav:"products" json:"products"`
	Payment       string     `dynamodbav:"payment" json:"payment"`
	Status        Status     `dynamodbav:"status" json:"status"`
	ShippingLog   []LogEntry `dynamodbav:"shipping_log" json:"shipping_log"`
	ShippingCost  float64    `dynamodbav:"shipping_cost" json:"shipping_cost"`
	StockReserved bool       `dynamodbav:"stock_reserved" json:"-"`
	SalesRecorded bool       `dynamodbav:"sales_recorded" json:"-"`
	CreatedAt     time.Time  `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `dynamodbav:"updated_at" json:"updated_at"`
}

// OwnedBy reports whether the order was placed by userID.
func (o *Order) OwnedBy(userID int64) bool {
	return o.UserID != nil && *o.UserID == userID
}

// Item returns the line item for productID, if present.
func (o *Order) Item(productID int64) (LineItem, bool) {
	for _, it := range o.Products {
		if it.ProductID == productID {
			return it, true
		}
	}
	return LineItem{}, false
}

func (o *Order) ProductIDs() []int64 {
	ids := make([]int64, 0, len(o.Products))
	for _, it := range o.Products {
		ids = append(ids, it.ProductID)
	}
	return ids
}

// Subtotal is the sum of price * quantity over the line items.
func (o *Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Products {
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(it.Quantity)))
	}
	return sum
}

func (o *Order) Total() decimal.Decimal {
	return o.Subtotal().Add(decimal.NewFromFloat(o.ShippingCost))
}

// ItemRequest is one requested product line.
type ItemRequest struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Quantity  int64 `json:"quantity" validate:"gte=1,lte=10000"`
}

// CreateOrderInput is the payload for POST /order/create.
type CreateOrderInput struct {
	Contact  Contact       `json:"contact"`
	Address  Address       `json:"address"`
	Products []ItemRequest `json:"products" validate:"required,min=1,max=50,dive"`
	Payment  string        `json:"payment" validate:"omitempty,max=30"`
}

// StatusUpdate is the payload for an admin status change.
type StatusUpdate struct {
	Status      string `json:"status" form:"status" validate:"required"`
	Description string `json:"description" form:"description" validate:"max=500"`
}

// DetailItem is a line item enriched with the product's current name.
type DetailItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price"`
}

// OrderDetail is an order as returned by Get.
type OrderDetail struct {
	Order
	Items    []DetailItem `json:"items"`
	Subtotal float64      `json:"subtotal"`
	Total    float64      `json:"total"`
}
