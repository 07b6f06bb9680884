package service

import (
	"context"

	"github.com/Tedik0/TortygaZP/events"
	"github.com/Tedik0/TortygaZP/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Upsert(ctx context.Context, id int64, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockPointRepository is a mock implementation of PointRepository
type MockPointRepository struct {
	mock.Mock
}

func (m *MockPointRepository) Create(ctx context.Context, name string, ownerID int64) (*models.Point, error) {
	args := m.Called(ctx, name, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Point), args.Error(1)
}

func (m *MockPointRepository) GetByID(ctx context.Context, id int64) (*models.Point, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Point), args.Error(1)
}

func (m *MockPointRepository) GetByName(ctx context.Context, name string) (*models.Point, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Point), args.Error(1)
}

func (m *MockPointRepository) GetByNameFold(ctx context.Context, name string) (*models.Point, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Point), args.Error(1)
}

func (m *MockPointRepository) GetAll(ctx context.Context) ([]*models.Point, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Point), args.Error(1)
}

func (m *MockPointRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMemberRepository is a mock implementation of MemberRepository
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Add(ctx context.Context, pointID, userID int64, name string) (*models.Member, error) {
	args := m.Called(ctx, pointID, userID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMemberRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMemberRepository) GetDetail(ctx context.Context, id int64) (*models.MemberDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MemberDetail), args.Error(1)
}

func (m *MockMemberRepository) GetByPoint(ctx context.Context, pointID int64) ([]*models.Member, error) {
	args := m.Called(ctx, pointID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Member), args.Error(1)
}

func (m *MockMemberRepository) SetInitialBalance(ctx context.Context, memberID, amount int64) error {
	args := m.Called(ctx, memberID, amount)
	return args.Error(0)
}

func (m *MockMemberRepository) DecreaseBalance(ctx context.Context, memberID, amount int64) error {
	args := m.Called(ctx, memberID, amount)
	return args.Error(0)
}

func (m *MockMemberRepository) DeleteByPoint(ctx context.Context, pointID int64) error {
	args := m.Called(ctx, pointID)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Record(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByMember(ctx context.Context, memberID int64, limit int) ([]*models.Transaction, error) {
	args := m.Called(ctx, memberID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) DeleteByPoint(ctx context.Context, pointID int64) error {
	args := m.Called(ctx, pointID)
	return args.Error(0)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, userID int64, text string, actions []Action) error {
	args := m.Called(ctx, userID, text, actions)
	return args.Error(0)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Published events
// are captured rather than mocked so tests can assert on them directly.
type MockUnitOfWork struct {
	mock.Mock

	userRepo        UserRepository
	pointRepo       PointRepository
	memberRepo      MemberRepository
	transactionRepo TransactionRepository

	published []events.Event
}

// SetRepositories wires the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(user UserRepository, point PointRepository, member MemberRepository, txn TransactionRepository) {
	m.userRepo = user
	m.pointRepo = point
	m.memberRepo = member
	m.transactionRepo = txn
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) PointRepository() PointRepository {
	return m.pointRepo
}

func (m *MockUnitOfWork) MemberRepository() MemberRepository {
	return m.memberRepo
}

func (m *MockUnitOfWork) TransactionRepository() TransactionRepository {
	return m.transactionRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m
}

func (m *MockUnitOfWork) Publish(event events.Event) {
	m.published = append(m.published, event)
}

// PublishedEvents returns the events published into this unit of work
func (m *MockUnitOfWork) PublishedEvents() []events.Event {
	return m.published
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
