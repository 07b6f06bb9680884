package bot

import (
	"context"

	"github.com/Tedik0/TortygaZP/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Bot runs the long polling loop and dispatches updates to the handler
type Bot struct {
	api      *tgbotapi.BotAPI
	handler  *Handler
	sessions *SessionStore
}

func New(api *tgbotapi.BotAPI, ledger service.LedgerService, membership service.MembershipService, foldNames bool) *Bot {
	sessions := NewSessionStore()
	conv := NewConversation(sessions, ledger, membership)
	return &Bot{
		api:      api,
		handler:  NewHandler(api, ledger, membership, conv, sessions, foldNames),
		sessions: sessions,
	}
}

// Run polls for updates until ctx is cancelled. Updates from the same user
// are handled in order, one at a time; distinct users run concurrently.
func (b *Bot) Run(ctx context.Context) error {
	b.sessions.StartSweeper(ctx)

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := b.api.GetUpdatesChan(cfg)

	log.WithField("username", b.api.Self.UserName).Info("Bot is polling for updates")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			userID := updateUserID(update)
			if userID == 0 {
				continue
			}
			b.sessions.Enqueue(userID, func() {
				b.handler.HandleUpdate(ctx, update)
			})
		}
	}
}

func updateUserID(update tgbotapi.Update) int64 {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	}
	return 0
}
