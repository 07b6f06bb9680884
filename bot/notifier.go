package bot

import (
	"context"
	"fmt"

	"github.com/Tedik0/TortygaZP/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier delivers service-initiated messages (approval prompts, outcome
// notices) to a user's private chat.
type Notifier struct {
	api *tgbotapi.BotAPI
}

func NewNotifier(api *tgbotapi.BotAPI) *Notifier {
	return &Notifier{api: api}
}

// Send delivers text to the user, rendering actions as one inline keyboard
// button per row. Any delivery failure maps to ErrRecipientUnreachable:
// the user may have never started the bot or may have blocked it.
func (n *Notifier) Send(ctx context.Context, userID int64, text string, actions []service.Action) error {
	msg := tgbotapi.NewMessage(userID, text)

	if len(actions) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(actions))
		for _, action := range actions {
			rows = append(rows, []tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData(action.Label, action.Data),
			})
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("sending to user %d: %v: %w", userID, err, service.ErrRecipientUnreachable)
	}
	return nil
}
