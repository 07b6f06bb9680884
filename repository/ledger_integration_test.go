package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Tedik0/TortygaZP/events"
	"github.com/Tedik0/TortygaZP/models"
	"github.com/Tedik0/TortygaZP/repository/testutil"
	"github.com/Tedik0/TortygaZP/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Exercises the ledger service against a real database through the unit
// of work, where the mocks in the service tests cannot vouch for SQL.
func TestLedgerService_MutateBalance_Integration(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	svc := service.NewLedgerService(factory, 1)

	point := seedPoint(t, testDB, 100, "Амбар")
	require.NoError(t, NewUserRepository(testDB.DB).Upsert(ctx, 200, "Анна"))
	member, err := NewMemberRepository(testDB.DB).Add(ctx, point.ID, 200, "Анна")
	require.NoError(t, err)

	t.Run("initial then withdrawal", func(t *testing.T) {
		detail, err := svc.MutateBalance(ctx, member.ID, 5000, models.TransactionKindInitial)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), detail.Balance)
		assert.True(t, detail.IsSet)

		detail, err = svc.MutateBalance(ctx, member.ID, 1500, models.TransactionKindWithdrawal)
		require.NoError(t, err)
		assert.Equal(t, int64(3500), detail.Balance)

		// Each mutation leaves exactly one signed history row
		txns, err := svc.ListTransactions(ctx, member.ID, 10)
		require.NoError(t, err)
		require.Len(t, txns, 2)
		assert.Equal(t, int64(-1500), txns[0].Amount)
		assert.Equal(t, models.TransactionKindWithdrawal, txns[0].Kind)
		assert.Equal(t, int64(5000), txns[1].Amount)
		assert.Equal(t, models.TransactionKindInitial, txns[1].Kind)
	})

	t.Run("failed mutation writes nothing", func(t *testing.T) {
		_, err := svc.MutateBalance(ctx, 999999, 100, models.TransactionKindWithdrawal)
		assert.True(t, errors.Is(err, service.ErrMemberNotFound))

		txns, err := svc.ListTransactions(ctx, member.ID, 10)
		require.NoError(t, err)
		assert.Len(t, txns, 2)
	})
}

// Events published inside a unit of work reach subscribers only after the
// transaction commits; a rollback drops them.
func TestUnitOfWork_EventLifecycle_Integration(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	received := make(chan events.Event, 4)
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, ev events.Event) {
		received <- ev
	})
	factory := NewUnitOfWorkFactory(testDB.DB, bus)

	t.Run("rollback discards published events", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		uow.EventBus().Publish(events.BalanceChangeEvent{MemberID: 7, Amount: -100})
		require.NoError(t, uow.Rollback())

		select {
		case ev := <-received:
			t.Fatalf("event emitted despite rollback: %v", ev)
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("commit flushes published events exactly once", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		uow.EventBus().Publish(events.BalanceChangeEvent{MemberID: 7, Amount: -100, NewBalance: 400})
		require.NoError(t, uow.Commit())

		select {
		case ev := <-received:
			change, ok := ev.(events.BalanceChangeEvent)
			require.True(t, ok)
			assert.Equal(t, int64(7), change.MemberID)
			assert.Equal(t, int64(400), change.NewBalance)
		case <-time.After(time.Second):
			t.Fatal("no event delivered after commit")
		}

		select {
		case ev := <-received:
			t.Fatalf("event delivered twice: %v", ev)
		case <-time.After(100 * time.Millisecond):
		}
	})
}

func TestLedgerService_DeletePointCascade_Integration(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	const adminID = 100
	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	svc := service.NewLedgerService(factory, adminID)

	point := seedPoint(t, testDB, adminID, "Амбар")
	require.NoError(t, NewUserRepository(testDB.DB).Upsert(ctx, 200, "Анна"))
	member, err := NewMemberRepository(testDB.DB).Add(ctx, point.ID, 200, "Анна")
	require.NoError(t, err)
	_, err = svc.MutateBalance(ctx, member.ID, 5000, models.TransactionKindInitial)
	require.NoError(t, err)

	t.Run("non-admin rejected", func(t *testing.T) {
		err := svc.DeletePointCascade(ctx, 200, point.ID)
		assert.True(t, errors.Is(err, service.ErrNotAdmin))

		got, err := svc.GetPoint(ctx, point.ID)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("admin cascade removes everything", func(t *testing.T) {
		err := svc.DeletePointCascade(ctx, adminID, point.ID)
		require.NoError(t, err)

		_, err = svc.GetPoint(ctx, point.ID)
		assert.True(t, errors.Is(err, service.ErrPointNotFound))

		members, err := NewMemberRepository(testDB.DB).GetByPoint(ctx, point.ID)
		require.NoError(t, err)
		assert.Empty(t, members)

		txns, err := NewTransactionRepository(testDB.DB).GetByMember(ctx, member.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, txns)
	})
}
