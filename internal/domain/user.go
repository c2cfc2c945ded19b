package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	Username     string     `json:"username" dynamodbav:"username"`
	Email        string     `json:"email" dynamodbav:"email"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Role         string     `json:"role" dynamodbav:"role"`
	FirstName    string     `json:"first_name" dynamodbav:"first_name"`
	LastName     string     `json:"last_name" dynamodbav:"last_name"`
	// PushToken is the current push delivery token for this user's device.
	// At most one token per user; re-registration overwrites, gateway-reported
	// invalidation clears it.
	PushToken  string     `json:"-" dynamodbav:"push_token"`
	PushOptOut bool       `json:"push_opt_out" dynamodbav:"push_opt_out"`
	Enable     bool       `json:"enable" dynamodbav:"enable"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt  time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type CreateUserRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

type UpdateUserRequest struct {
	Username   *string `json:"username"`
	Email      *string `json:"email" validate:"omitempty,email"`
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	PushOptOut *bool   `json:"push_opt_out"`
}
