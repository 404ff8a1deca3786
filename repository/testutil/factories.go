package testutil

import (
	"context"
	"fmt"
	"testing"

	"parlayz/database"
	"parlayz/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Money parses a credit amount, panicking on malformed input
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateTestUser creates an unsaved user with default values
func CreateTestUser(username string) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Username: username,
		Balance:  Money("1000"),
	}
}

// CreateTestUserWithBalance creates an unsaved user with a specific balance
func CreateTestUserWithBalance(username string, balance string) *models.User {
	user := CreateTestUser(username)
	user.Balance = Money(balance)
	return user
}

// CreateTestEvent creates an unsaved open pool event
func CreateTestEvent(creatorID uuid.UUID, outcomes ...string) *models.Event {
	if len(outcomes) == 0 {
		outcomes = []string{"yes", "no"}
	}
	return &models.Event{
		ID:        uuid.New(),
		CreatorID: creatorID,
		Title:     "Test event",
		EventType: models.EventTypePool,
		Outcomes:  outcomes,
		Status:    models.EventStatusOpen,
	}
}

// CreateTestBalanceHistory creates an unsaved ledger row
func CreateTestBalanceHistory(userID uuid.UUID, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   Money("1000"),
		BalanceAfter:    Money("900"),
		ChangeAmount:    Money("-100"),
		TransactionType: transactionType,
		TransactionMetadata: map[string]interface{}{
			"test": true,
		},
	}
}

// InsertUsers saves users directly through the pool
func InsertUsers(t *testing.T, db *database.DB, users ...*models.User) {
	t.Helper()
	ctx := context.Background()
	for _, u := range users {
		_, err := db.Exec(ctx,
			`INSERT INTO users (id, username, balance, is_admin) VALUES ($1, $2, $3, $4)`,
			u.ID, u.Username, u.Balance, u.IsAdmin)
		require.NoError(t, err, fmt.Sprintf("insert user %s", u.Username))
	}
}

// SumBalances returns the total of every user balance
func SumBalances(t *testing.T, db *database.DB) decimal.Decimal {
	t.Helper()
	var total decimal.Decimal
	err := db.QueryRow(context.Background(), `SELECT COALESCE(SUM(balance), 0) FROM users`).Scan(&total)
	require.NoError(t, err)
	return total
}
