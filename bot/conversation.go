package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Tedik0/TortygaZP/models"
	"github.com/Tedik0/TortygaZP/service"

	log "github.com/sirupsen/logrus"
)

// Button is one inline keyboard button
type Button struct {
	Label string
	Data  string
}

// Reply is what a conversation step wants sent back to the user
type Reply struct {
	Text    string
	Buttons [][]Button
	// Prompt marks replies that expect a typed answer; the transport
	// remembers their message id so a superseded prompt can be retracted
	Prompt bool
}

// Conversation drives the per-user input flows: point creation, initial
// balance entry and withdrawals. All state lives in the session store.
type Conversation struct {
	sessions   *SessionStore
	ledger     service.LedgerService
	membership service.MembershipService
}

func NewConversation(sessions *SessionStore, ledger service.LedgerService, membership service.MembershipService) *Conversation {
	return &Conversation{
		sessions:   sessions,
		ledger:     ledger,
		membership: membership,
	}
}

// StartAddPoint begins the point creation flow, superseding any active flow
func (c *Conversation) StartAddPoint(userID, chatID int64) Reply {
	c.sessions.Put(&Session{
		UserID: userID,
		ChatID: chatID,
		State:  StateAwaitingPointName,
	})
	return Reply{Text: "Введите название точки:", Prompt: true}
}

// StartInitialBalance begins initial cash entry for a member. The member
// id arrives from callback data, so it is checked before any state is kept.
func (c *Conversation) StartInitialBalance(ctx context.Context, userID, chatID, memberID int64) Reply {
	if reply, ok := c.checkMember(ctx, memberID); !ok {
		return reply
	}
	c.sessions.Put(&Session{
		UserID:   userID,
		ChatID:   chatID,
		State:    StateAwaitingInitialBalance,
		MemberID: memberID,
	})
	return Reply{Text: "Введите сумму наличных:", Prompt: true}
}

// StartWithdraw begins a withdrawal for a member. The member id arrives
// from callback data, so it is checked before any state is kept.
func (c *Conversation) StartWithdraw(ctx context.Context, userID, chatID, memberID int64) Reply {
	if reply, ok := c.checkMember(ctx, memberID); !ok {
		return reply
	}
	c.sessions.Put(&Session{
		UserID:   userID,
		ChatID:   chatID,
		State:    StateAwaitingWithdrawAmount,
		MemberID: memberID,
	})
	return Reply{Text: "Введите сумму снятия:", Prompt: true}
}

func (c *Conversation) checkMember(ctx context.Context, memberID int64) (Reply, bool) {
	_, err := c.ledger.GetMemberDetails(ctx, memberID)
	switch {
	case errors.Is(err, service.ErrMemberNotFound):
		return Reply{Text: "Сотрудник не найден. Возможно, точка была удалена."}, false
	case err != nil:
		log.WithError(err).WithField("member_id", memberID).Error("Member lookup failed")
		return Reply{Text: "Произошла ошибка. Попробуйте позже."}, false
	}
	return Reply{}, true
}

// Cancel drops the user's session. Safe to call when idle.
func (c *Conversation) Cancel(userID int64) {
	c.sessions.Delete(userID)
}

// Active reports whether the user is inside a flow
func (c *Conversation) Active(userID int64) bool {
	return c.sessions.Get(userID) != nil
}

// HandleText feeds a typed message into the active flow. The second return
// value is false when the user is idle and the text is not ours to handle.
func (c *Conversation) HandleText(ctx context.Context, userID int64, userName, text string) (Reply, bool) {
	session := c.sessions.Get(userID)
	if session == nil {
		return Reply{}, false
	}

	switch session.State {
	case StateAwaitingPointName:
		return c.handlePointName(ctx, session, userName, text), true
	case StateAwaitingInitialBalance:
		return c.handleAmount(ctx, session, text, models.TransactionKindInitial), true
	case StateAwaitingWithdrawAmount:
		return c.handleAmount(ctx, session, text, models.TransactionKindWithdrawal), true
	default:
		log.WithFields(log.Fields{
			"user_id": userID,
			"state":   session.State,
		}).Warn("Unknown conversation state, resetting")
		c.sessions.Delete(userID)
		return Reply{}, false
	}
}

func (c *Conversation) handlePointName(ctx context.Context, session *Session, userName, text string) Reply {
	result, err := c.membership.RequestJoin(ctx, session.UserID, userName, text)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		// State is held, the user retries
		return Reply{Text: "Название не может быть пустым. Введите название точки:", Prompt: true}
	case errors.Is(err, service.ErrRecipientUnreachable):
		c.sessions.Delete(session.UserID)
		return Reply{Text: "Не удалось отправить запрос владельцу точки. Попробуйте позже."}
	case err != nil:
		log.WithError(err).WithField("user_id", session.UserID).Error("Join request failed")
		c.sessions.Delete(session.UserID)
		return Reply{Text: "Произошла ошибка. Попробуйте позже."}
	}

	switch result.Outcome {
	case service.JoinCreated:
		// The creator becomes the first member and proceeds straight
		// to initial cash entry
		c.sessions.Put(&Session{
			UserID:   session.UserID,
			ChatID:   session.ChatID,
			State:    StateAwaitingInitialBalance,
			MemberID: result.Member.ID,
		})
		return Reply{
			Text:   fmt.Sprintf("Точка «%s» создана. Введите сумму наличных:", result.Point.Name),
			Prompt: true,
		}
	case service.JoinAlreadyOwner:
		c.sessions.Delete(session.UserID)
		return Reply{
			Text:    fmt.Sprintf("Вы уже владелец точки «%s».", result.Point.Name),
			Buttons: [][]Button{{{Label: "Открыть", Data: pointData(result.Point.ID)}}},
		}
	default:
		c.sessions.Delete(session.UserID)
		return Reply{Text: fmt.Sprintf("Запрос отправлен владельцу точки «%s». Ожидайте подтверждения.", result.Point.Name)}
	}
}

func (c *Conversation) handleAmount(ctx context.Context, session *Session, text string, kind models.TransactionKind) Reply {
	amount, err := parseAmount(text)
	if err != nil {
		// State is held, no mutation happened
		return Reply{Text: "Введите целое неотрицательное число:", Prompt: true}
	}

	detail, err := c.ledger.MutateBalance(ctx, session.MemberID, amount, kind)
	switch {
	case errors.Is(err, service.ErrMemberNotFound):
		c.sessions.Delete(session.UserID)
		return Reply{Text: "Сотрудник не найден. Возможно, точка была удалена."}
	case err != nil:
		log.WithError(err).WithFields(log.Fields{
			"user_id":   session.UserID,
			"member_id": session.MemberID,
		}).Error("Balance mutation failed")
		c.sessions.Delete(session.UserID)
		return Reply{Text: "Произошла ошибка. Попробуйте позже."}
	}

	c.sessions.Delete(session.UserID)
	return memberCard(detail)
}

// parseAmount accepts only a non-negative integer literal
func parseAmount(text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("empty amount")
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("amount %q is not a number", text)
		}
	}
	return strconv.ParseInt(text, 10, 64)
}
