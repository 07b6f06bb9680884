package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Tedik0/TortygaZP/bot"
	"github.com/Tedik0/TortygaZP/config"
	"github.com/Tedik0/TortygaZP/database"
	"github.com/Tedik0/TortygaZP/events"
	"github.com/Tedik0/TortygaZP/repository"
	"github.com/Tedik0/TortygaZP/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context, cfg *config.Config) error {
	log.Info("Starting cash calculator bot...")

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established")

	eventBus := events.NewBus()
	subscribeAuditLog(eventBus)

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram API: %w", err)
	}

	ledgerService := service.NewLedgerService(uowFactory, cfg.AdminID)
	notifier := bot.NewNotifier(api)
	membershipService := service.NewMembershipService(uowFactory, notifier, cfg.FoldPointNames)

	telegramBot := bot.New(api, ledgerService, membershipService, cfg.FoldPointNames)

	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"username":    api.Self.UserName,
	}).Info("Bot is running")

	err = telegramBot.Run(ctx)

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Info("Shutdown completed")
	}

	return err
}

// subscribeAuditLog attaches structured logging to every committed ledger
// change so operations leave a trace beyond the transactions table
func subscribeAuditLog(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BalanceChangeEvent); ok {
			log.WithFields(log.Fields{
				"member_id":   e.MemberID,
				"point_id":    e.PointID,
				"old_balance": e.OldBalance,
				"new_balance": e.NewBalance,
				"amount":      e.Amount,
				"kind":        e.Kind,
			}).Info("Balance changed")
		}
	})
	bus.Subscribe(events.EventTypeMemberJoined, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.MemberJoinedEvent); ok {
			log.WithFields(log.Fields{
				"member_id": e.MemberID,
				"point_id":  e.PointID,
				"user_id":   e.UserID,
				"name":      e.Name,
			}).Info("Member joined")
		}
	})
	bus.Subscribe(events.EventTypePointDeleted, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.PointDeletedEvent); ok {
			log.WithFields(log.Fields{
				"point_id":   e.PointID,
				"point_name": e.PointName,
			}).Info("Point deleted")
		}
	})
}
