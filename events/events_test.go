package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectEvents(bus *Bus, eventType EventType) <-chan Event {
	received := make(chan Event, 16)
	bus.Subscribe(eventType, func(ctx context.Context, event Event) {
		received <- event
	})
	return received
}

func waitForEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("expected an event, got none")
		return nil
	}
}

func assertNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("expected no event, got %v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTransactionalBus_FlushEmitsPendingOnce(t *testing.T) {
	bus := NewBus()
	received := collectEvents(bus, EventTypeBalanceChange)

	txBus := NewTransactionalBus(bus)
	txBus.Publish(BalanceChangeEvent{MemberID: 7, Amount: -1500})

	// Nothing leaves the unit of work before Flush
	assertNoEvent(t, received)

	txBus.Flush(context.Background())
	ev := waitForEvent(t, received)
	require.IsType(t, BalanceChangeEvent{}, ev)
	assert.Equal(t, int64(7), ev.(BalanceChangeEvent).MemberID)

	// Flushing again must not replay
	txBus.Flush(context.Background())
	assertNoEvent(t, received)
}

func TestTransactionalBus_DiscardDropsPending(t *testing.T) {
	bus := NewBus()
	received := collectEvents(bus, EventTypeMemberJoined)

	txBus := NewTransactionalBus(bus)
	txBus.Publish(MemberJoinedEvent{MemberID: 7, PointID: 3})
	txBus.Publish(MemberJoinedEvent{MemberID: 8, PointID: 3})
	txBus.Discard()

	txBus.Flush(context.Background())
	assertNoEvent(t, received)
}

func TestBus_EmitRoutesByType(t *testing.T) {
	bus := NewBus()
	balance := collectEvents(bus, EventTypeBalanceChange)
	deleted := collectEvents(bus, EventTypePointDeleted)

	bus.Emit(context.Background(), PointDeletedEvent{PointID: 3, PointName: "Амбар"})

	waitForEvent(t, deleted)
	assertNoEvent(t, balance)
}
