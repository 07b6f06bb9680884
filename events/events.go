package events

import (
	"context"
	"sync"

	"github.com/Tedik0/TortygaZP/models"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange EventType = "balance_change"
	EventTypeMemberJoined  EventType = "member_joined"
	EventTypePointDeleted  EventType = "point_deleted"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a committed balance mutation
type BalanceChangeEvent struct {
	MemberID   int64
	PointID    int64
	OldBalance int64
	NewBalance int64
	Amount     int64
	Kind       models.TransactionKind
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// MemberJoinedEvent represents a user becoming a member of a point,
// either at point creation or through an approved join request.
type MemberJoinedEvent struct {
	MemberID int64
	PointID  int64
	UserID   int64
	Name     string
}

func (e MemberJoinedEvent) Type() EventType {
	return EventTypeMemberJoined
}

// PointDeletedEvent represents an administrative cascade deletion
type PointDeletedEvent struct {
	PointID   int64
	PointName string
}

func (e PointDeletedEvent) Type() EventType {
	return EventTypePointDeleted
}

// Handler processes a dispatched event
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit publishes an event to all registered handlers. Handlers run
// asynchronously so a slow subscriber cannot block the caller.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus stashes events published during a unit of work and
// flushes them to the real bus only after the database commit. Events
// published into a rolled-back unit of work are discarded.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after a successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) {
	// Events are processed independently of the transaction lifecycle,
	// so a background context avoids expired transaction contexts.
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events. Called after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
