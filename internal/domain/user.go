package domain

import "time"

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	Email        string     `json:"email" dynamodbav:"email"`
	Phone        *string    `json:"phone" dynamodbav:"phone"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Role         string     `json:"role" dynamodbav:"role"`
	FirstName    string     `json:"first_name" dynamodbav:"first_name"`
	LastName     string     `json:"last_name" dynamodbav:"last_name"`
	Enable       bool       `json:"enable" dynamodbav:"enable"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	FirstName       string  `json:"first_name" validate:"required"`
	LastName        string  `json:"last_name"`
	Email           string  `json:"email" validate:"required,email"`
	Phone           *string `json:"phone"`
	Password        string  `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string  `json:"confirm_password"`
}

type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      *string `json:"role"`
	Enable    *bool   `json:"enable"`
}
