package service

import (
	"context"

	"github.com/Tedik0/TortygaZP/models"

	"github.com/stretchr/testify/mock"
)

// MockLedgerService is a mock implementation of LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) UpsertUser(ctx context.Context, id int64, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func (m *MockLedgerService) ListPoints(ctx context.Context) ([]*models.Point, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Point), args.Error(1)
}

func (m *MockLedgerService) GetPoint(ctx context.Context, pointID int64) (*models.Point, error) {
	args := m.Called(ctx, pointID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Point), args.Error(1)
}

func (m *MockLedgerService) GetPointMembers(ctx context.Context, pointID int64) (*models.Point, []*models.Member, error) {
	args := m.Called(ctx, pointID)
	var point *models.Point
	var members []*models.Member
	if args.Get(0) != nil {
		point = args.Get(0).(*models.Point)
	}
	if args.Get(1) != nil {
		members = args.Get(1).([]*models.Member)
	}
	return point, members, args.Error(2)
}

func (m *MockLedgerService) GetMemberDetails(ctx context.Context, memberID int64) (*models.MemberDetail, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MemberDetail), args.Error(1)
}

func (m *MockLedgerService) MutateBalance(ctx context.Context, memberID, amount int64, kind models.TransactionKind) (*models.MemberDetail, error) {
	args := m.Called(ctx, memberID, amount, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MemberDetail), args.Error(1)
}

func (m *MockLedgerService) ListTransactions(ctx context.Context, memberID int64, limit int) ([]*models.Transaction, error) {
	args := m.Called(ctx, memberID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockLedgerService) DeletePointCascade(ctx context.Context, actorID, pointID int64) error {
	args := m.Called(ctx, actorID, pointID)
	return args.Error(0)
}

func (m *MockLedgerService) IsAdmin(userID int64) bool {
	args := m.Called(userID)
	return args.Bool(0)
}

// MockMembershipService is a mock implementation of MembershipService
type MockMembershipService struct {
	mock.Mock
}

func (m *MockMembershipService) RequestJoin(ctx context.Context, userID int64, userName, pointName string) (*JoinResult, error) {
	args := m.Called(ctx, userID, userName, pointName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*JoinResult), args.Error(1)
}

func (m *MockMembershipService) Approve(ctx context.Context, requesterID, pointID int64) (*ApprovalResult, error) {
	args := m.Called(ctx, requesterID, pointID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ApprovalResult), args.Error(1)
}

func (m *MockMembershipService) Reject(ctx context.Context, requesterID, pointID int64) (*models.Point, error) {
	args := m.Called(ctx, requesterID, pointID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Point), args.Error(1)
}
