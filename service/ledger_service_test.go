package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Tedik0/TortygaZP/events"
	"github.com/Tedik0/TortygaZP/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testAdminID int64 = 999

func newLedgerMocks() (*MockUnitOfWorkFactory, *MockUnitOfWork, *MockUserRepository, *MockPointRepository, *MockMemberRepository, *MockTransactionRepository) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockPointRepo := new(MockPointRepository)
	mockMemberRepo := new(MockMemberRepository)
	mockTxnRepo := new(MockTransactionRepository)

	mockUoW.SetRepositories(mockUserRepo, mockPointRepo, mockMemberRepo, mockTxnRepo)
	mockFactory.On("Create").Return(mockUoW)

	return mockFactory, mockUoW, mockUserRepo, mockPointRepo, mockMemberRepo, mockTxnRepo
}

func TestLedgerService_MutateBalance_InitialDeposit(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, _, mockMemberRepo, mockTxnRepo := newLedgerMocks()

	svc := NewLedgerService(mockFactory, testAdminID)

	member := &models.Member{ID: 7, PointID: 3, UserID: 100, Name: "Анна", Balance: 0, IsSet: false}
	detail := &models.MemberDetail{Member: models.Member{ID: 7, PointID: 3, UserID: 100, Name: "Анна", Balance: 5000, IsSet: true}, PointName: "Амбар"}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMemberRepo.On("GetByID", ctx, int64(7)).Return(member, nil)
	mockMemberRepo.On("SetInitialBalance", ctx, int64(7), int64(5000)).Return(nil)
	mockMemberRepo.On("GetDetail", ctx, int64(7)).Return(detail, nil)

	mockTxnRepo.On("Record", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.MemberID == 7 &&
			txn.Amount == 5000 &&
			txn.Kind == models.TransactionKindInitial
	})).Return(nil)

	got, err := svc.MutateBalance(ctx, 7, 5000, models.TransactionKindInitial)

	assert.NoError(t, err)
	assert.Equal(t, detail, got)

	published := mockUoW.PublishedEvents()
	assert.Len(t, published, 1)
	change, ok := published[0].(events.BalanceChangeEvent)
	assert.True(t, ok)
	assert.Equal(t, int64(0), change.OldBalance)
	assert.Equal(t, int64(5000), change.NewBalance)
	assert.Equal(t, models.TransactionKindInitial, change.Kind)

	mockUoW.AssertExpectations(t)
	mockMemberRepo.AssertExpectations(t)
	mockTxnRepo.AssertExpectations(t)
}

func TestLedgerService_MutateBalance_Withdrawal(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, _, mockMemberRepo, mockTxnRepo := newLedgerMocks()

	svc := NewLedgerService(mockFactory, testAdminID)

	member := &models.Member{ID: 7, PointID: 3, Balance: 5000, IsSet: true}
	detail := &models.MemberDetail{Member: models.Member{ID: 7, PointID: 3, Balance: 3500, IsSet: true}, PointName: "Амбар"}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMemberRepo.On("GetByID", ctx, int64(7)).Return(member, nil)
	mockMemberRepo.On("DecreaseBalance", ctx, int64(7), int64(1500)).Return(nil)
	mockMemberRepo.On("GetDetail", ctx, int64(7)).Return(detail, nil)

	// Withdrawals are recorded with a negative signed amount
	mockTxnRepo.On("Record", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.MemberID == 7 &&
			txn.Amount == -1500 &&
			txn.Kind == models.TransactionKindWithdrawal
	})).Return(nil)

	got, err := svc.MutateBalance(ctx, 7, 1500, models.TransactionKindWithdrawal)

	assert.NoError(t, err)
	assert.Equal(t, int64(3500), got.Balance)

	mockUoW.AssertExpectations(t)
	mockMemberRepo.AssertExpectations(t)
	mockTxnRepo.AssertExpectations(t)
}

func TestLedgerService_MutateBalance_MemberGone(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, _, mockMemberRepo, mockTxnRepo := newLedgerMocks()

	svc := NewLedgerService(mockFactory, testAdminID)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// Point was deleted mid-flow, the member no longer exists
	mockMemberRepo.On("GetByID", ctx, int64(7)).Return(nil, nil)

	got, err := svc.MutateBalance(ctx, 7, 1500, models.TransactionKindWithdrawal)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrMemberNotFound))
	assert.Nil(t, got)

	mockUoW.AssertNotCalled(t, "Commit")
	mockTxnRepo.AssertNotCalled(t, "Record")
}

func TestLedgerService_MutateBalance_NegativeAmount(t *testing.T) {
	ctx := context.Background()
	mockFactory, _, _, _, _, _ := newLedgerMocks()

	svc := NewLedgerService(mockFactory, testAdminID)

	got, err := svc.MutateBalance(ctx, 7, -1, models.TransactionKindWithdrawal)

	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Nil(t, got)

	// Validation rejects before any unit of work is created
	mockFactory.AssertNotCalled(t, "Create")
}

func TestLedgerService_MutateBalance_UnknownKind(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, _, mockMemberRepo, _ := newLedgerMocks()

	svc := NewLedgerService(mockFactory, testAdminID)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockMemberRepo.On("GetByID", ctx, int64(7)).Return(&models.Member{ID: 7}, nil)

	got, err := svc.MutateBalance(ctx, 7, 100, models.TransactionKind("transfer"))

	assert.Error(t, err)
	assert.Nil(t, got)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestLedgerService_DeletePointCascade(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, mockPointRepo, mockMemberRepo, mockTxnRepo := newLedgerMocks()

	svc := NewLedgerService(mockFactory, testAdminID)

	point := &models.Point{ID: 3, Name: "Амбар", OwnerID: 100}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockPointRepo.On("GetByID", ctx, int64(3)).Return(point, nil)
	mockTxnRepo.On("DeleteByPoint", ctx, int64(3)).Return(nil)
	mockMemberRepo.On("DeleteByPoint", ctx, int64(3)).Return(nil)
	mockPointRepo.On("Delete", ctx, int64(3)).Return(nil)

	err := svc.DeletePointCascade(ctx, testAdminID, 3)

	assert.NoError(t, err)

	published := mockUoW.PublishedEvents()
	assert.Len(t, published, 1)
	deleted, ok := published[0].(events.PointDeletedEvent)
	assert.True(t, ok)
	assert.Equal(t, "Амбар", deleted.PointName)

	mockUoW.AssertExpectations(t)
	mockPointRepo.AssertExpectations(t)
	mockMemberRepo.AssertExpectations(t)
	mockTxnRepo.AssertExpectations(t)
}

func TestLedgerService_DeletePointCascade_NotAdmin(t *testing.T) {
	ctx := context.Background()
	mockFactory, _, _, _, _, _ := newLedgerMocks()

	svc := NewLedgerService(mockFactory, testAdminID)

	err := svc.DeletePointCascade(ctx, 12345, 3)

	assert.True(t, errors.Is(err, ErrNotAdmin))
	mockFactory.AssertNotCalled(t, "Create")
}

func TestLedgerService_DeletePointCascade_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, mockPointRepo, mockMemberRepo, mockTxnRepo := newLedgerMocks()

	svc := NewLedgerService(mockFactory, testAdminID)

	point := &models.Point{ID: 3, Name: "Амбар", OwnerID: 100}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockPointRepo.On("GetByID", ctx, int64(3)).Return(point, nil)
	mockTxnRepo.On("DeleteByPoint", ctx, int64(3)).Return(nil)
	mockMemberRepo.On("DeleteByPoint", ctx, int64(3)).Return(errors.New("database error"))

	err := svc.DeletePointCascade(ctx, testAdminID, 3)

	assert.Error(t, err)

	// Partial deletion must never be committed
	mockUoW.AssertNotCalled(t, "Commit")
	mockPointRepo.AssertNotCalled(t, "Delete")
	mockUoW.AssertExpectations(t)
}

func TestLedgerService_ListTransactions_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, _, _, mockTxnRepo := newLedgerMocks()

	svc := NewLedgerService(mockFactory, testAdminID)

	txns := []*models.Transaction{
		{ID: 2, MemberID: 7, Amount: -500, Kind: models.TransactionKindWithdrawal},
		{ID: 1, MemberID: 7, Amount: 5000, Kind: models.TransactionKindInitial},
	}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockTxnRepo.On("GetByMember", ctx, int64(7), DefaultHistoryLimit).Return(txns, nil)

	got, err := svc.ListTransactions(ctx, 7, 0)

	assert.NoError(t, err)
	assert.Equal(t, txns, got)
	mockTxnRepo.AssertExpectations(t)
}

func TestLedgerService_GetPointMembers_PointGone(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, mockPointRepo, mockMemberRepo, _ := newLedgerMocks()

	svc := NewLedgerService(mockFactory, testAdminID)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockPointRepo.On("GetByID", ctx, int64(42)).Return(nil, nil)

	point, members, err := svc.GetPointMembers(ctx, 42)

	assert.True(t, errors.Is(err, ErrPointNotFound))
	assert.Nil(t, point)
	assert.Nil(t, members)
	mockMemberRepo.AssertNotCalled(t, "GetByPoint")
}

func TestLedgerService_IsAdmin(t *testing.T) {
	mockFactory, _, _, _, _, _ := newLedgerMocks()

	svc := NewLedgerService(mockFactory, testAdminID)

	assert.True(t, svc.IsAdmin(testAdminID))
	assert.False(t, svc.IsAdmin(1))
}
