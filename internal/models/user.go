package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRole is the descriptive role label shown to users.
type UserRole string

const (
	RoleTenant   UserRole = "tenant"
	RoleAdmin    UserRole = "admin"
	RoleSubAdmin UserRole = "sub-admin"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique).
	Email string

	// DisplayName is the name shown to housemates.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// Role is a display label only. It is kept in step with the user's house
	// but never consulted for authorization.
	Role UserRole

	// WalletBalance is the stored-value balance. Never negative.
	WalletBalance decimal.Decimal

	// HouseID is the house the user belongs to, empty if none.
	HouseID string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// NewUser creates a user with a fresh ID and a zero wallet.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:            uuid.New().String(),
		Email:         email,
		DisplayName:   displayName,
		PasswordHash:  passwordHash,
		Role:          RoleTenant,
		WalletBalance: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// InHouse reports whether the user currently belongs to a house.
func (u *User) InHouse() bool {
	return u.HouseID != ""
}
