package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceHistory is one journal row of the ledger. Every debit and credit
// writes exactly one row in the same transaction as the balance update.
type BalanceHistory struct {
	ID                  int64           `db:"id" json:"id"`
	UserID              uuid.UUID       `db:"user_id" json:"user_id"`
	BalanceBefore       decimal.Decimal `db:"balance_before" json:"balance_before"`
	BalanceAfter        decimal.Decimal `db:"balance_after" json:"balance_after"`
	ChangeAmount        decimal.Decimal `db:"change_amount" json:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type" json:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata" json:"transaction_metadata,omitempty"`
	RelatedID           *uuid.UUID      `db:"related_id" json:"related_id,omitempty"`
	RelatedType         *RelatedType    `db:"related_type" json:"related_type,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}
