package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Tedik0/TortygaZP/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Handler routes incoming Telegram updates to the services and the
// conversation controller.
type Handler struct {
	api        *tgbotapi.BotAPI
	ledger     service.LedgerService
	membership service.MembershipService
	conv       *Conversation
	sessions   *SessionStore
	foldNames  bool
}

func NewHandler(api *tgbotapi.BotAPI, ledger service.LedgerService, membership service.MembershipService, conv *Conversation, sessions *SessionStore, foldNames bool) *Handler {
	return &Handler{
		api:        api,
		ledger:     ledger,
		membership: membership,
		conv:       conv,
		sessions:   sessions,
		foldNames:  foldNames,
	}
}

// HandleUpdate processes one update. The caller serializes per user.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || !msg.Chat.IsPrivate() {
		return
	}

	userID := msg.From.ID
	name := displayName(msg.From)

	if err := h.ledger.UpsertUser(ctx, userID, name); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to upsert user")
		h.send(msg.Chat.ID, Reply{Text: "Произошла ошибка. Попробуйте позже."})
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			h.conv.Cancel(userID)
			h.deleteMessage(msg.Chat.ID, msg.MessageID)
			h.send(msg.Chat.ID, mainMenu())
		default:
			h.send(msg.Chat.ID, mainMenu())
		}
		return
	}

	// Retract the prompt this text answers before replying
	if session := h.sessions.Get(userID); session != nil && session.PromptMessageID != 0 {
		h.deleteMessage(session.ChatID, session.PromptMessageID)
	}

	reply, handled := h.conv.HandleText(ctx, userID, name, msg.Text)
	if !handled {
		h.send(msg.Chat.ID, mainMenu())
		return
	}
	h.sendPrompt(userID, msg.Chat.ID, reply)
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	h.answer(q.ID, "")

	if q.Message == nil || q.From == nil {
		return
	}
	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID
	userID := q.From.ID
	data := q.Data

	// Approval callbacks carry their own encoding
	if strings.HasPrefix(data, service.CallbackJoinApprove+":") || strings.HasPrefix(data, service.CallbackJoinReject+":") {
		h.handleJoinDecision(ctx, chatID, messageID, data)
		return
	}

	switch data {
	case cbOpenCalc:
		h.conv.Cancel(userID)
		h.showFolder(ctx, chatID, messageID)
		return
	case cbAddPoint:
		reply := h.conv.StartAddPoint(userID, chatID)
		h.sendPrompt(userID, chatID, reply)
		return
	}

	prefix, id, err := splitData(data)
	if err != nil {
		log.WithError(err).Debug("Unroutable callback data")
		return
	}

	switch prefix {
	case cbPoint:
		h.conv.Cancel(userID)
		h.showPoint(ctx, chatID, messageID, userID, id)
	case cbMember:
		h.showMember(ctx, chatID, messageID, id)
	case cbSetBalance:
		reply := h.conv.StartInitialBalance(ctx, userID, chatID, id)
		h.sendPrompt(userID, chatID, reply)
	case cbWithdraw:
		reply := h.conv.StartWithdraw(ctx, userID, chatID, id)
		h.sendPrompt(userID, chatID, reply)
	case cbHistory:
		h.showHistory(ctx, chatID, messageID, id)
	case cbAskDelete:
		h.askDelete(ctx, chatID, messageID, id)
	case cbConfirmDelete:
		h.confirmDelete(ctx, q, chatID, messageID, id)
	default:
		log.WithField("data", data).Debug("Unknown callback prefix")
	}
}

func (h *Handler) handleJoinDecision(ctx context.Context, chatID int64, messageID int, data string) {
	prefix, requesterID, pointID, err := service.DecodeJoinAction(data)
	if err != nil {
		log.WithError(err).Warn("Malformed join callback data")
		return
	}

	if prefix == service.CallbackJoinApprove {
		result, err := h.membership.Approve(ctx, requesterID, pointID)
		switch {
		case errors.Is(err, service.ErrPointNotFound):
			h.edit(chatID, messageID, Reply{Text: "Точка уже удалена."})
		case err != nil:
			log.WithError(err).Error("Approve failed")
			h.edit(chatID, messageID, Reply{Text: "Произошла ошибка. Попробуйте позже."})
		case result.AlreadyMember:
			h.edit(chatID, messageID, Reply{Text: "Этот сотрудник уже добавлен."})
		default:
			h.edit(chatID, messageID, Reply{
				Text: fmt.Sprintf("Сотрудник %s добавлен в точку «%s».", result.Member.Name, result.Point.Name),
			})
		}
		return
	}

	point, err := h.membership.Reject(ctx, requesterID, pointID)
	switch {
	case errors.Is(err, service.ErrPointNotFound):
		h.edit(chatID, messageID, Reply{Text: "Точка уже удалена."})
	case err != nil:
		log.WithError(err).Error("Reject failed")
		h.edit(chatID, messageID, Reply{Text: "Произошла ошибка. Попробуйте позже."})
	default:
		h.edit(chatID, messageID, Reply{Text: fmt.Sprintf("Запрос в точку «%s» отклонён.", point.Name)})
	}
}

func (h *Handler) showFolder(ctx context.Context, chatID int64, messageID int) {
	points, err := h.ledger.ListPoints(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list points")
		h.edit(chatID, messageID, Reply{Text: "Произошла ошибка. Попробуйте позже."})
		return
	}
	h.edit(chatID, messageID, folderScreen(points, h.foldNames))
}

func (h *Handler) showPoint(ctx context.Context, chatID int64, messageID int, userID, pointID int64) {
	point, members, err := h.ledger.GetPointMembers(ctx, pointID)
	switch {
	case errors.Is(err, service.ErrPointNotFound):
		h.edit(chatID, messageID, Reply{Text: "Точка не найдена.", Buttons: backToFolder()})
	case err != nil:
		log.WithError(err).WithField("point_id", pointID).Error("Failed to load point")
		h.edit(chatID, messageID, Reply{Text: "Произошла ошибка. Попробуйте позже."})
	default:
		h.edit(chatID, messageID, pointScreen(point, members, h.ledger.IsAdmin(userID)))
	}
}

func (h *Handler) showMember(ctx context.Context, chatID int64, messageID int, memberID int64) {
	detail, err := h.ledger.GetMemberDetails(ctx, memberID)
	switch {
	case errors.Is(err, service.ErrMemberNotFound):
		h.edit(chatID, messageID, Reply{Text: "Сотрудник не найден.", Buttons: backToFolder()})
	case err != nil:
		log.WithError(err).WithField("member_id", memberID).Error("Failed to load member")
		h.edit(chatID, messageID, Reply{Text: "Произошла ошибка. Попробуйте позже."})
	default:
		h.edit(chatID, messageID, memberCard(detail))
	}
}

func (h *Handler) showHistory(ctx context.Context, chatID int64, messageID int, memberID int64) {
	detail, err := h.ledger.GetMemberDetails(ctx, memberID)
	if err != nil {
		if errors.Is(err, service.ErrMemberNotFound) {
			h.edit(chatID, messageID, Reply{Text: "Сотрудник не найден.", Buttons: backToFolder()})
		} else {
			log.WithError(err).WithField("member_id", memberID).Error("Failed to load member")
			h.edit(chatID, messageID, Reply{Text: "Произошла ошибка. Попробуйте позже."})
		}
		return
	}

	txns, err := h.ledger.ListTransactions(ctx, memberID, 0)
	if err != nil {
		log.WithError(err).WithField("member_id", memberID).Error("Failed to load history")
		h.edit(chatID, messageID, Reply{Text: "Произошла ошибка. Попробуйте позже."})
		return
	}
	h.edit(chatID, messageID, historyScreen(detail, txns))
}

func (h *Handler) askDelete(ctx context.Context, chatID int64, messageID int, pointID int64) {
	point, err := h.ledger.GetPoint(ctx, pointID)
	switch {
	case errors.Is(err, service.ErrPointNotFound):
		h.edit(chatID, messageID, Reply{Text: "Точка не найдена.", Buttons: backToFolder()})
	case err != nil:
		log.WithError(err).WithField("point_id", pointID).Error("Failed to load point")
		h.edit(chatID, messageID, Reply{Text: "Произошла ошибка. Попробуйте позже."})
	default:
		h.edit(chatID, messageID, confirmDeleteScreen(point))
	}
}

func (h *Handler) confirmDelete(ctx context.Context, q *tgbotapi.CallbackQuery, chatID int64, messageID int, pointID int64) {
	err := h.ledger.DeletePointCascade(ctx, q.From.ID, pointID)
	switch {
	case errors.Is(err, service.ErrNotAdmin):
		h.answer(q.ID, "Недостаточно прав для удаления точки.")
	case errors.Is(err, service.ErrPointNotFound):
		h.edit(chatID, messageID, Reply{Text: "Точка уже удалена.", Buttons: backToFolder()})
	case err != nil:
		log.WithError(err).WithField("point_id", pointID).Error("Cascade delete failed")
		h.edit(chatID, messageID, Reply{Text: "Произошла ошибка. Попробуйте позже."})
	default:
		h.edit(chatID, messageID, Reply{Text: "Точка удалена.", Buttons: backToFolder()})
	}
}

func backToFolder() [][]Button {
	return [][]Button{{{Label: "⬅️ К точкам", Data: cbOpenCalc}}}
}

// sendPrompt sends a reply and, when it expects a typed answer, remembers
// its message id so the prompt can be retracted once answered
func (h *Handler) sendPrompt(userID, chatID int64, reply Reply) {
	sent, err := h.send(chatID, reply)
	if err != nil {
		return
	}
	if reply.Prompt {
		h.sessions.SetPrompt(userID, sent.MessageID)
	}
}

func (h *Handler) send(chatID int64, reply Reply) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if markup := keyboard(reply); markup != nil {
		msg.ReplyMarkup = *markup
	}

	sent, err := h.api.Send(msg)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Debug("Failed to send message")
	}
	return sent, err
}

func (h *Handler) edit(chatID int64, messageID int, reply Reply) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, reply.Text)
	edit.ReplyMarkup = keyboard(reply)

	if _, err := h.api.Send(edit); err != nil {
		// The message may be gone or unchanged; fall back to a fresh one
		log.WithError(err).WithField("chat_id", chatID).Debug("Failed to edit message")
		h.send(chatID, reply)
	}
}

func (h *Handler) deleteMessage(chatID int64, messageID int) {
	if _, err := h.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Debug("Failed to delete message")
	}
}

func (h *Handler) answer(callbackID, text string) {
	if _, err := h.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.WithError(err).Debug("Failed to answer callback query")
	}
}

func keyboard(reply Reply) *tgbotapi.InlineKeyboardMarkup {
	if len(reply.Buttons) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(reply.Buttons))
	for _, row := range reply.Buttons {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(button.Label, button.Data))
		}
		rows = append(rows, buttons)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func displayName(user *tgbotapi.User) string {
	name := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	if name == "" {
		name = user.UserName
	}
	return name
}
