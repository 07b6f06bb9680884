package service

import (
	"context"
	"fmt"

	"github.com/Tedik0/TortygaZP/events"
	"github.com/Tedik0/TortygaZP/models"
)

// DefaultHistoryLimit is the number of transactions shown in history views
const DefaultHistoryLimit = 10

// ledgerService implements the LedgerService interface
type ledgerService struct {
	uowFactory UnitOfWorkFactory
	adminID    int64
}

// NewLedgerService creates a new ledger service. adminID is the single
// privileged identity allowed to delete points.
func NewLedgerService(uowFactory UnitOfWorkFactory, adminID int64) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
		adminID:    adminID,
	}
}

// UpsertUser refreshes the display name cache for a user
func (s *ledgerService) UpsertUser(ctx context.Context, id int64, name string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().Upsert(ctx, id, name); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListPoints returns all points ordered by name
func (s *ledgerService) ListPoints(ctx context.Context) ([]*models.Point, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	points, err := uow.PointRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list points: %w", err)
	}

	return points, nil
}

// GetPoint retrieves a point by id
func (s *ledgerService) GetPoint(ctx context.Context, pointID int64) (*models.Point, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	point, err := uow.PointRepository().GetByID(ctx, pointID)
	if err != nil {
		return nil, fmt.Errorf("failed to get point: %w", err)
	}
	if point == nil {
		return nil, fmt.Errorf("point %d: %w", pointID, ErrPointNotFound)
	}

	return point, nil
}

// GetPointMembers returns a point and its members in insertion order
func (s *ledgerService) GetPointMembers(ctx context.Context, pointID int64) (*models.Point, []*models.Member, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	point, err := uow.PointRepository().GetByID(ctx, pointID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get point: %w", err)
	}
	if point == nil {
		return nil, nil, fmt.Errorf("point %d: %w", pointID, ErrPointNotFound)
	}

	members, err := uow.MemberRepository().GetByPoint(ctx, pointID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get members: %w", err)
	}

	return point, members, nil
}

// GetMemberDetails retrieves a member with its point name
func (s *ledgerService) GetMemberDetails(ctx context.Context, memberID int64) (*models.MemberDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	detail, err := uow.MemberRepository().GetDetail(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member details: %w", err)
	}

	return detail, nil
}

// MutateBalance applies a balance mutation and appends the matching
// transaction row inside a single database transaction, so a concurrent
// reader can never observe the balance write without its transaction row.
func (s *ledgerService) MutateBalance(ctx context.Context, memberID, amount int64, kind models.TransactionKind) (*models.MemberDetail, error) {
	if amount < 0 {
		return nil, fmt.Errorf("amount %d: %w", amount, ErrInvalidInput)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	member, err := uow.MemberRepository().GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return nil, fmt.Errorf("member %d: %w", memberID, ErrMemberNotFound)
	}

	// Transactions carry a signed amount; withdrawals are negative.
	txnAmount := amount

	switch kind {
	case models.TransactionKindInitial:
		if err := uow.MemberRepository().SetInitialBalance(ctx, memberID, amount); err != nil {
			return nil, fmt.Errorf("failed to set initial balance: %w", err)
		}
	case models.TransactionKindWithdrawal:
		if err := uow.MemberRepository().DecreaseBalance(ctx, memberID, amount); err != nil {
			return nil, fmt.Errorf("failed to decrease balance: %w", err)
		}
		txnAmount = -amount
	default:
		return nil, fmt.Errorf("unknown transaction kind %q", kind)
	}

	txn := &models.Transaction{
		MemberID: memberID,
		Amount:   txnAmount,
		Kind:     kind,
	}
	if err := uow.TransactionRepository().Record(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	detail, err := uow.MemberRepository().GetDetail(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member details: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		MemberID:   memberID,
		PointID:    member.PointID,
		OldBalance: member.Balance,
		NewBalance: detail.Balance,
		Amount:     txnAmount,
		Kind:       kind,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return detail, nil
}

// ListTransactions returns up to limit transactions for a member,
// most recent first
func (s *ledgerService) ListTransactions(ctx context.Context, memberID int64, limit int) ([]*models.Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	txns, err := uow.TransactionRepository().GetByMember(ctx, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return txns, nil
}

// DeletePointCascade removes a point with all its members and their
// transactions as one atomic unit. Any failure rolls the whole unit back so
// no partial deletion is ever observable.
func (s *ledgerService) DeletePointCascade(ctx context.Context, actorID, pointID int64) error {
	if !s.IsAdmin(actorID) {
		return fmt.Errorf("user %d: %w", actorID, ErrNotAdmin)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	point, err := uow.PointRepository().GetByID(ctx, pointID)
	if err != nil {
		return fmt.Errorf("failed to get point: %w", err)
	}
	if point == nil {
		return fmt.Errorf("point %d: %w", pointID, ErrPointNotFound)
	}

	if err := uow.TransactionRepository().DeleteByPoint(ctx, pointID); err != nil {
		return fmt.Errorf("failed to delete transactions: %w", err)
	}

	if err := uow.MemberRepository().DeleteByPoint(ctx, pointID); err != nil {
		return fmt.Errorf("failed to delete members: %w", err)
	}

	if err := uow.PointRepository().Delete(ctx, pointID); err != nil {
		return fmt.Errorf("failed to delete point: %w", err)
	}

	uow.EventBus().Publish(events.PointDeletedEvent{
		PointID:   pointID,
		PointName: point.Name,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// IsAdmin reports whether the user is the administrative identity
func (s *ledgerService) IsAdmin(userID int64) bool {
	return userID == s.adminID
}
