package repository

import (
	"context"
	"fmt"

	"github.com/Tedik0/TortygaZP/database"
	"github.com/Tedik0/TortygaZP/models"
	"github.com/Tedik0/TortygaZP/service"
	"github.com/jackc/pgx/v5"
)

// MemberRepository implements the service.MemberRepository interface
type MemberRepository struct {
	q queryable
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *database.DB) *MemberRepository {
	return &MemberRepository{q: db.Pool}
}

// newMemberRepositoryWithTx creates a new member repository with a transaction
func newMemberRepositoryWithTx(tx queryable) *MemberRepository {
	return &MemberRepository{q: tx}
}

// Add inserts a member for the (point, user) pair. ON CONFLICT DO NOTHING
// makes two simultaneous calls for the same pair yield exactly one inserted
// row; the loser observes no returned row and reports ErrAlreadyMember.
func (r *MemberRepository) Add(ctx context.Context, pointID, userID int64, name string) (*models.Member, error) {
	query := `
		INSERT INTO members (point_id, user_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (point_id, user_id) DO NOTHING
		RETURNING id, point_id, user_id, name, balance, is_set, created_at
	`

	var member models.Member
	err := r.q.QueryRow(ctx, query, pointID, userID, name).Scan(
		&member.ID,
		&member.PointID,
		&member.UserID,
		&member.Name,
		&member.Balance,
		&member.IsSet,
		&member.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("point %d user %d: %w", pointID, userID, service.ErrAlreadyMember)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add member to point %d: %w", pointID, err)
	}

	return &member, nil
}

// GetByID retrieves a member by id
func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	query := `
		SELECT id, point_id, user_id, name, balance, is_set, created_at
		FROM members
		WHERE id = $1
	`

	var member models.Member
	err := r.q.QueryRow(ctx, query, id).Scan(
		&member.ID,
		&member.PointID,
		&member.UserID,
		&member.Name,
		&member.Balance,
		&member.IsSet,
		&member.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member %d: %w", id, err)
	}

	return &member, nil
}

// GetDetail retrieves a member joined with its point name
func (r *MemberRepository) GetDetail(ctx context.Context, id int64) (*models.MemberDetail, error) {
	query := `
		SELECT m.id, m.point_id, m.user_id, m.name, m.balance, m.is_set, m.created_at, p.name
		FROM members m
		JOIN points p ON p.id = m.point_id
		WHERE m.id = $1
	`

	var detail models.MemberDetail
	err := r.q.QueryRow(ctx, query, id).Scan(
		&detail.ID,
		&detail.PointID,
		&detail.UserID,
		&detail.Name,
		&detail.Balance,
		&detail.IsSet,
		&detail.CreatedAt,
		&detail.PointName,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("member %d: %w", id, service.ErrMemberNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member detail %d: %w", id, err)
	}

	return &detail, nil
}

// GetByPoint returns the members of a point in insertion order
func (r *MemberRepository) GetByPoint(ctx context.Context, pointID int64) ([]*models.Member, error) {
	query := `
		SELECT id, point_id, user_id, name, balance, is_set, created_at
		FROM members
		WHERE point_id = $1
		ORDER BY id ASC
	`

	rows, err := r.q.Query(ctx, query, pointID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members of point %d: %w", pointID, err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		var member models.Member
		err := rows.Scan(
			&member.ID,
			&member.PointID,
			&member.UserID,
			&member.Name,
			&member.Balance,
			&member.IsSet,
			&member.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, &member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// SetInitialBalance establishes the starting balance for a member
func (r *MemberRepository) SetInitialBalance(ctx context.Context, memberID, amount int64) error {
	query := `
		UPDATE members
		SET balance = $1, is_set = TRUE
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, memberID)
	if err != nil {
		return fmt.Errorf("failed to set initial balance for member %d: %w", memberID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("member %d: %w", memberID, service.ErrMemberNotFound)
	}

	return nil
}

// DecreaseBalance subtracts amount from a member's balance. The balance has
// no floor; withdrawals beyond the available cash drive it negative.
func (r *MemberRepository) DecreaseBalance(ctx context.Context, memberID, amount int64) error {
	query := `
		UPDATE members
		SET balance = balance - $1
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, memberID)
	if err != nil {
		return fmt.Errorf("failed to decrease balance for member %d: %w", memberID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("member %d: %w", memberID, service.ErrMemberNotFound)
	}

	return nil
}

// DeleteByPoint removes all members of a point
func (r *MemberRepository) DeleteByPoint(ctx context.Context, pointID int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM members WHERE point_id = $1`, pointID); err != nil {
		return fmt.Errorf("failed to delete members of point %d: %w", pointID, err)
	}

	return nil
}
