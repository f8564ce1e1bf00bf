package content

import "time"

// Banner is a homepage banner. Banners are shown by ascending Order.
type Banner struct {
	BannerID    int64     `dynamodbav:"banner_id" json:"banner_id"` // PK
	Name        string    `dynamodbav:"name" json:"name"`
	Description string    `dynamodbav:"description,omitempty" json:"description"`
	Author      string    `dynamodbav:"author,omitempty" json:"author"`
	Image       string    `dynamodbav:"image" json:"image"`
	Link        string    `dynamodbav:"link,omitempty" json:"link"`
	Order       int       `dynamodbav:"order" json:"order"`
	Status      bool      `dynamodbav:"status" json:"status"`
	CreatedAt   time.Time `dynamodbav:"created_at" json:"created_at"`
}

type Testimonial struct {
	TestimonialID int64     `dynamodbav:"testimonial_id" json:"testimonial_id"` // PK
	Name          string    `dynamodbav:"name" json:"name"`
	Image         string    `dynamodbav:"image,omitempty" json:"image"`
	Description   string    `dynamodbav:"description" json:"description"`
	Status        bool      `dynamodbav:"status" json:"status"`
	CreatedAt     time.Time `dynamodbav:"created_at" json:"created_at"`
}

type BannerInput struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Description string `json:"description" validate:"max=500"`
	Author      string `json:"author" validate:"max=100"`
	Image       string `json:"image" validate:"required,url"`
	Link        string `json:"link" validate:"omitempty,url"`
	Order       int    `json:"order" validate:"gte=0"`
	Status      *bool  `json:"status"`
}

type BannerPatch struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Author      *string `json:"author" validate:"omitempty,max=100"`
	Image       *string `json:"image" validate:"omitempty,url"`
	Link        *string `json:"link" validate:"omitempty,url"`
	Order       *int    `json:"order" validate:"omitempty,gte=0"`
}

type TestimonialInput struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Image       string `json:"image" validate:"omitempty,url"`
	Description string `json:"description" validate:"notblank,max=2000"`
	Status      *bool  `json:"status"`
}

type TestimonialPatch struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=100"`
	Image       *string `json:"image" validate:"omitempty,url"`
	Description *string `json:"description" validate:"omitempty,notblank,max=2000"`
}
