package users

import "time"

// User is the item stored in the users table.
type User struct {
	UserID       int64     `dynamodbav:"user_id" json:"user_id"`   // PK
	Username     string    `dynamodbav:"username" json:"username"` // GSI, lower-cased
	PasswordHash string    `dynamodbav:"password_hash" json:"-"`
	FirstName    string    `dynamodbav:"first_name,omitempty" json:"first_name"`
	LastName     string    `dynamodbav:"last_name,omitempty" json:"last_name"`
	Telephone    string    `dynamodbav:"telephone,omitempty" json:"telephone"`
	Email        string    `dynamodbav:"email,omitempty" json:"email"`
	Role         string    `dynamodbav:"role" json:"role"`
	Status       bool      `dynamodbav:"status" json:"status"`
	CreatedAt    time.Time `dynamodbav:"created_at" json:"created_at"`
}

// RegisterInput is the payload for self sign-up.
type RegisterInput struct {
	Username  string `json:"username" validate:"required,alphanum,min=3,max=30"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=50"`
	LastName  string `json:"last_name" validate:"max=50"`
	Telephone string `json:"telephone" validate:"max=20"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// CreateInput is the payload for an admin creating an account.
type CreateInput struct {
	RegisterInput
	Role string `json:"role" validate:"omitempty,oneof=user admin"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries the signed token for the authenticated user.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UpdateInput changes profile fields. Nil fields are left unchanged.
type UpdateInput struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,max=50"`
	Telephone *string `json:"telephone" validate:"omitempty,max=20"`
	Email     *string `json:"email" validate:"omitempty,email"`
}
