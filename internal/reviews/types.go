package reviews

// Outcome of one submitted review.
const (
	OutcomeCreated = "created"
	OutcomeSkipped = "skipped" // the user already reviewed the product
	OutcomeFailed  = "failed"
)

// ReviewableProduct is a product from the order the requester may still review.
type ReviewableProduct struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Thumbnail string  `json:"thumbnail"`
	Price     float64 `json:"price"` // price paid, from the order snapshot
}

type ReviewInput struct {
	ProductID int64  `json:"product_id" validate:"gt=0"`
	Review    string `json:"review" validate:"notblank,max=2000"`
	Rating    int    `json:"rating" validate:"gte=1,lte=5"`
}

// SubmitInput is the payload for POST /review/userReview.
type SubmitInput struct {
	OrderID int64         `json:"order_id" validate:"gt=0"`
	Reviews []ReviewInput `json:"reviews" validate:"required,min=1,max=50,dive"`
}

// ItemResult reports what happened to one submitted review.
type ItemResult struct {
	ProductID int64  `json:"product_id"`
	Outcome   string `json:"outcome"`
	Kind      string `json:"kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SubmitResult lists per-item outcomes in submission order. Items are
// independent: a failure does not undo reviews created for other products.
type SubmitResult struct {
	OrderID int64        `json:"order_id"`
	Items   []ItemResult `json:"items"`
	Created int          `json:"created"`
	Skipped int          `json:"skipped"`
	Failed  int          `json:"failed"`
}
