package repository

import (
	"context"
	"fmt"

	"github.com/Tedik0/TortygaZP/database"
	"github.com/Tedik0/TortygaZP/models"
)

// TransactionRepository implements the service.TransactionRepository interface
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepositoryWithTx creates a new transaction repository with a transaction
func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

// Record appends a transaction row
func (r *TransactionRepository) Record(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (member_id, amount, kind)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		txn.MemberID,
		txn.Amount,
		txn.Kind,
	).Scan(&txn.ID, &txn.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record transaction for member %d: %w", txn.MemberID, err)
	}

	return nil
}

// GetByMember returns transactions for a member, most recent first
func (r *TransactionRepository) GetByMember(ctx context.Context, memberID int64, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT id, member_id, amount, kind, created_at
		FROM transactions
		WHERE member_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for member %d: %w", memberID, err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		var txn models.Transaction
		err := rows.Scan(
			&txn.ID,
			&txn.MemberID,
			&txn.Amount,
			&txn.Kind,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, &txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txns, nil
}

// DeleteByPoint removes all transactions belonging to a point's members
func (r *TransactionRepository) DeleteByPoint(ctx context.Context, pointID int64) error {
	query := `
		DELETE FROM transactions
		WHERE member_id IN (SELECT id FROM members WHERE point_id = $1)
	`

	if _, err := r.q.Exec(ctx, query, pointID); err != nil {
		return fmt.Errorf("failed to delete transactions of point %d: %w", pointID, err)
	}

	return nil
}
