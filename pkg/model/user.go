package model

import (
	"time"
)

// User roles
const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleRentor = "rentor"
)

type User struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	FullName     string    `json:"full_name" bson:"full_name" validate:"required,min=2,max=100"`
	Email        string    `json:"email" bson:"email" validate:"required,email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	UserType     string    `json:"user_type" bson:"user_type" validate:"required,oneof=admin staff rentor"`
	Age          int       `json:"age,omitempty" bson:"age,omitempty" validate:"omitempty,min=18,max=120"`
	Address      string    `json:"address,omitempty" bson:"address,omitempty" validate:"omitempty,max=300"`
	Phone        string    `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,max=20"`
	ValidID      string    `json:"valid_id,omitempty" bson:"valid_id,omitempty"`
	IsVerified   bool      `json:"is_verified" bson:"is_verified"`
	IsIDVerified bool      `json:"is_id_verified" bson:"is_id_verified"`
	IsActive     bool      `json:"is_active" bson:"is_active"`
	LastActivity time.Time `json:"last_activity,omitempty" bson:"last_activity,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

type UserUpdate struct {
	FullName string `json:"full_name,omitempty" validate:"omitempty,min=2,max=100"`
	Age      *int   `json:"age,omitempty" validate:"omitempty,min=18,max=120"`
	Address  string `json:"address,omitempty" validate:"omitempty,max=300"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

// UserSummary is the projection embedded in booking and ledger reads.
type UserSummary struct {
	ID       string `json:"id" bson:"_id"`
	FullName string `json:"full_name" bson:"full_name"`
	Email    string `json:"email" bson:"email"`
}

// UserStats aggregates counts for the admin dashboard.
type UserStats struct {
	TotalUsers      int64 `json:"total_users" bson:"total_users"`
	VerifiedUsers   int64 `json:"verified_users" bson:"verified_users"`
	IDVerifiedUsers int64 `json:"id_verified_users" bson:"id_verified_users"`
	PendingIDChecks int64 `json:"pending_id_checks" bson:"pending_id_checks"`
}
