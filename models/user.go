package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents an account holding a spendable credit balance
type User struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Username  string          `db:"username" json:"username"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	IsAdmin   bool            `db:"is_admin" json:"is_admin"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Actor is the authenticated caller of an operation as supplied by the identity layer
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}
