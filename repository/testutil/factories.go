package testutil

import (
	"time"

	"github.com/Tedik0/TortygaZP/models"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(id int64, name string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestTransaction creates a test transaction entry
func CreateTestTransaction(memberID, amount int64, kind models.TransactionKind) *models.Transaction {
	return &models.Transaction{
		MemberID:  memberID,
		Amount:    amount,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
}
