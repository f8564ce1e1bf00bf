package idempotency

import "time"

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
)

// Record is the shape persisted in the idempotency DynamoDB table.
type Record struct {
	IdempotencyKey string    `dynamodbav:"idempotency_key"` // PK
	Status         string    `dynamodbav:"status"`
	OrderID        int64     `dynamodbav:"order_id,omitempty"`
	RequesterID    *int64    `dynamodbav:"requester_id,omitempty"` // nil for anonymous requests
	ResponseBody   string    `dynamodbav:"response_body,omitempty"`   // small responses only
	ResponseStatus int       `dynamodbav:"response_status,omitempty"` // e.g., 201
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
	ExpiresAt      int64     `dynamodbav:"expires_at"` // TTL epoch seconds
}

// SameRequester reports whether userID (nil when anonymous) made the request
// that created the record.
func (r *Record) SameRequester(userID *int64) bool {
	if r.RequesterID == nil || userID == nil {
		return r.RequesterID == nil && userID == nil
	}
	return *r.RequesterID == *userID
}
