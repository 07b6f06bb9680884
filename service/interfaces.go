package service

import (
	"context"

	"github.com/Tedik0/TortygaZP/events"
	"github.com/Tedik0/TortygaZP/models"
)

// UserRepository defines the interface for the user name cache
type UserRepository interface {
	// Upsert inserts the user or overwrites its cached display name
	Upsert(ctx context.Context, id int64, name string) error

	// GetByID retrieves a user by id, nil when absent
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// PointRepository defines the interface for point data access
type PointRepository interface {
	// Create creates a new point owned by ownerID.
	// Returns ErrDuplicateName when the name is taken.
	Create(ctx context.Context, name string, ownerID int64) (*models.Point, error)

	// GetByID retrieves a point by id, nil when absent
	GetByID(ctx context.Context, id int64) (*models.Point, error)

	// GetByName retrieves a point by exact name match, nil when absent
	GetByName(ctx context.Context, name string) (*models.Point, error)

	// GetByNameFold retrieves a point by case-insensitive name match,
	// nil when absent. Legacy matching mode.
	GetByNameFold(ctx context.Context, name string) (*models.Point, error)

	// GetAll returns all points ordered by name
	GetAll(ctx context.Context) ([]*models.Point, error)

	// Delete removes a point row
	Delete(ctx context.Context, id int64) error
}

// MemberRepository defines the interface for member data access
type MemberRepository interface {
	// Add inserts a member for the (point, user) pair. Returns
	// ErrAlreadyMember without writing when the pair already exists;
	// this is the sole guard against double-join races.
	Add(ctx context.Context, pointID, userID int64, name string) (*models.Member, error)

	// GetByID retrieves a member by id, nil when absent
	GetByID(ctx context.Context, id int64) (*models.Member, error)

	// GetDetail retrieves a member joined with its point name.
	// Returns ErrMemberNotFound when absent.
	GetDetail(ctx context.Context, id int64) (*models.MemberDetail, error)

	// GetByPoint returns the members of a point in insertion order
	GetByPoint(ctx context.Context, pointID int64) ([]*models.Member, error)

	// SetInitialBalance sets balance := amount and marks the balance as
	// established. Returns ErrMemberNotFound when the member is gone.
	SetInitialBalance(ctx context.Context, memberID, amount int64) error

	// DecreaseBalance sets balance := balance - amount. No floor check;
	// the balance may go negative. Returns ErrMemberNotFound when the
	// member is gone.
	DecreaseBalance(ctx context.Context, memberID, amount int64) error

	// DeleteByPoint removes all members of a point
	DeleteByPoint(ctx context.Context, pointID int64) error
}

// TransactionRepository defines the interface for the append-only
// transaction log
type TransactionRepository interface {
	// Record appends a transaction row
	Record(ctx context.Context, txn *models.Transaction) error

	// GetByMember returns transactions for a member, most recent first
	GetByMember(ctx context.Context, memberID int64, limit int) ([]*models.Transaction, error)

	// DeleteByPoint removes all transactions of a point's members
	DeleteByPoint(ctx context.Context, pointID int64) error
}

// Action is a labeled choice attached to an outbound message. Data is an
// opaque identifier echoed back by the transport when the recipient acts.
type Action struct {
	Label string
	Data  string
}

// Notifier delivers a message to a user's private chat. Implementations
// live at the transport boundary; delivery failure maps to
// ErrRecipientUnreachable.
type Notifier interface {
	Send(ctx context.Context, userID int64, text string, actions []Action) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// LedgerService defines the interface for ledger operations
type LedgerService interface {
	// UpsertUser refreshes the display name cache for a user
	UpsertUser(ctx context.Context, id int64, name string) error

	// ListPoints returns all points ordered by name
	ListPoints(ctx context.Context) ([]*models.Point, error)

	// GetPoint retrieves a point by id. Returns ErrPointNotFound when absent.
	GetPoint(ctx context.Context, pointID int64) (*models.Point, error)

	// GetPointMembers returns the members of a point in insertion order.
	// Returns ErrPointNotFound when the point does not exist.
	GetPointMembers(ctx context.Context, pointID int64) (*models.Point, []*models.Member, error)

	// GetMemberDetails retrieves a member with its point name.
	// Returns ErrMemberNotFound when absent.
	GetMemberDetails(ctx context.Context, memberID int64) (*models.MemberDetail, error)

	// MutateBalance applies a balance mutation and appends the matching
	// transaction row as one atomic unit. Kind initial sets the balance,
	// kind withdrawal subtracts from it. Returns the fresh member detail.
	MutateBalance(ctx context.Context, memberID, amount int64, kind models.TransactionKind) (*models.MemberDetail, error)

	// ListTransactions returns up to limit transactions for a member,
	// most recent first
	ListTransactions(ctx context.Context, memberID int64, limit int) ([]*models.Transaction, error)

	// DeletePointCascade removes a point with all its members and their
	// transactions as one atomic unit. Administrative identities only.
	DeletePointCascade(ctx context.Context, actorID, pointID int64) error

	// IsAdmin reports whether the user is the administrative identity
	IsAdmin(userID int64) bool
}

// JoinOutcome is the terminal state of a create-or-join request
type JoinOutcome string

const (
	// JoinCreated means no point with that name existed; the point was
	// created and the requester became its owner and first member.
	JoinCreated JoinOutcome = "created"

	// JoinAlreadyOwner means the requester already owns the point;
	// nothing was written.
	JoinAlreadyOwner JoinOutcome = "already_owner"

	// JoinRequested means an approval prompt was delivered to the owner
	// and the decision is pending.
	JoinRequested JoinOutcome = "requested"
)

// JoinResult describes how a create-or-join request resolved
type JoinResult struct {
	Outcome JoinOutcome
	Point   *models.Point
	// Member is set only for JoinCreated
	Member *models.Member
}

// ApprovalResult describes the effect of an owner approving a join request
type ApprovalResult struct {
	Point *models.Point
	// AlreadyMember is true when the requester had already joined;
	// no member or transaction rows were written.
	AlreadyMember bool
	// Member is set when a new member was created
	Member *models.Member
	// Members is the fresh member list handed to the requester
	Members []*models.Member
}

// MembershipService resolves create-or-join requests and owner decisions
type MembershipService interface {
	// RequestJoin resolves a typed point name into immediate creation,
	// an owner guidance message, or a pending approval prompt routed to
	// the owner through the notification gateway.
	RequestJoin(ctx context.Context, userID int64, userName, pointName string) (*JoinResult, error)

	// Approve adds the requester as a member. Idempotent: a repeated
	// approval reports AlreadyMember and writes nothing.
	Approve(ctx context.Context, requesterID, pointID int64) (*ApprovalResult, error)

	// Reject notifies the requester of the rejection. No ledger mutation.
	Reject(ctx context.Context, requesterID, pointID int64) (*models.Point, error)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	PointRepository() PointRepository
	MemberRepository() MemberRepository
	TransactionRepository() TransactionRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
