package catalog

import "time"

// Quantity tracks stock on hand and units sold.
type Quantity struct {
	InStock int64 `dynamodbav:"in_stock" json:"inStock"`
	Sold    int64 `dynamodbav:"sold" json:"sold"`
}

// Review is one user's review of a product. A user reviews a product at most once.
type Review struct {
	UserID    int64     `dynamodbav:"user_id" json:"user_id"`
	Review    string    `dynamodbav:"review" json:"review"`
	Rating    int       `dynamodbav:"rating" json:"rating"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
}

// Product is the item stored in the products table.
type Product struct {
	ProductID   int64     `dynamodbav:"product_id" json:"product_id"` // PK
	Name        string    `dynamodbav:"name" json:"name"`
	SearchName  string    `dynamodbav:"search_name" json:"-"` // lower-cased name
	Slug        string    `dynamodbav:"slug" json:"slug"`
	Description string    `dynamodbav:"description,omitempty" json:"description"`
	Price       float64   `dynamodbav:"price" json:"price"`
	Thumbnail   string    `dynamodbav:"thumbnail,omitempty" json:"thumbnail"`
	Images      []string  `dynamodbav:"images,omitempty" json:"images"`
	CategoryID  int64     `dynamodbav:"category_id" json:"category_id"`
	Quantity    Quantity  `dynamodbav:"quantity" json:"quantity"`
	Reviews     []Review  `dynamodbav:"reviews,omitempty" json:"reviews"`
	ReviewerIDs []int64   `dynamodbav:"reviewer_ids,numberset,omitempty" json:"-"` // mirrors Reviews[].UserID
	Status      bool      `dynamodbav:"status" json:"status"`
	CreatedAt   time.Time `dynamodbav:"created_at" json:"created_at"`
}

// HasReviewFrom reports whether userID already reviewed the product.
func (p *Product) HasReviewFrom(userID int64) bool {
	for _, id := range p.ReviewerIDs {
		if id == userID {
			return true
		}
	}
	for _, r := range p.Reviews {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// Category is the item stored in the categories table.
type Category struct {
	CategoryID  int64     `dynamodbav:"category_id" json:"category_id"` // PK
	Name        string    `dynamodbav:"name" json:"name"`
	SearchName  string    `dynamodbav:"search_name" json:"-"`
	Slug        string    `dynamodbav:"slug" json:"slug"`
	Image       string    `dynamodbav:"image,omitempty" json:"image"`
	Description string    `dynamodbav:"description,omitempty" json:"description"`
	Status      bool      `dynamodbav:"status" json:"status"`
	CreatedAt   time.Time `dynamodbav:"created_at" json:"created_at"`
}

// ProductInput is the payload for creating a product.
type ProductInput struct {
	Name        string   `json:"name" validate:"notblank,max=200"`
	Description string   `json:"description" validate:"notblank,max=5000"`
	Price       float64  `json:"price" validate:"gt=0"`
	Thumbnail   string   `json:"thumbnail" validate:"omitempty,url"`
	Images      []string `json:"images" validate:"max=20,dive,url"`
	CategoryID  int64    `json:"category_id" validate:"gt=0"`
	InStock     int64    `json:"in_stock" validate:"gte=0"`
	Status      *bool    `json:"status"`
}

// ProductPatch is the payload for updating a product. Nil fields are left unchanged.
type ProductPatch struct {
	Name        *string   `json:"name" validate:"omitempty,notblank,max=200"`
	Description *string   `json:"description" validate:"omitempty,notblank,max=5000"`
	Price       *float64  `json:"price" validate:"omitempty,gt=0"`
	Thumbnail   *string   `json:"thumbnail" validate:"omitempty,url"`
	Images      *[]string `json:"images" validate:"omitempty,max=20,dive,url"`
	CategoryID  *int64    `json:"category_id" validate:"omitempty,gt=0"`
}

// CategoryInput is the payload for creating a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Image       string `json:"image" validate:"omitempty,url"`
	Description string `json:"description" validate:"max=2000"`
	Status      *bool  `json:"status"`
}

// CategoryPatch is the payload for updating a category.
type CategoryPatch struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=100"`
	Image       *string `json:"image" validate:"omitempty,url"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// StockAdjustment adds (positive) or removes (negative) units of stock.
type StockAdjustment struct {
	Delta int64 `json:"delta" validate:"ne=0"`
}
