package models

import (
	"time"
)

// TransactionKind represents the type of balance change
type TransactionKind string

const (
	TransactionKindInitial    TransactionKind = "initial"
	TransactionKindWithdrawal TransactionKind = "withdrawal"
)

// Transaction is an immutable record of a balance change. Rows are only ever
// appended, and only removed when the owning point is deleted.
type Transaction struct {
	ID        int64           `db:"id"`
	MemberID  int64           `db:"member_id"`
	Amount    int64           `db:"amount"`
	Kind      TransactionKind `db:"kind"`
	CreatedAt time.Time       `db:"created_at"`
}
