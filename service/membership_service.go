package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Tedik0/TortygaZP/events"
	"github.com/Tedik0/TortygaZP/models"
	log "github.com/sirupsen/logrus"
)

// Callback namespaces for the actions attached to an approval prompt. The
// transport echoes the encoded data back when the owner decides.
const (
	CallbackJoinApprove = "join_approve"
	CallbackJoinReject  = "join_reject"
)

// FallbackMemberName is used when the requester has no cached display name
const FallbackMemberName = "Сотрудник"

// EncodeJoinAction packs a pending approval into opaque callback data.
// The tuple (requester id, point id) lives only inside the prompt message;
// there is no separate pending-request store.
func EncodeJoinAction(prefix string, requesterID, pointID int64) string {
	return fmt.Sprintf("%s:%d:%d", prefix, requesterID, pointID)
}

// DecodeJoinAction unpacks callback data produced by EncodeJoinAction
func DecodeJoinAction(data string) (prefix string, requesterID, pointID int64, err error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return "", 0, 0, fmt.Errorf("malformed join action %q", data)
	}

	requesterID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("malformed requester id in %q: %w", data, err)
	}
	pointID, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("malformed point id in %q: %w", data, err)
	}

	return parts[0], requesterID, pointID, nil
}

// membershipService implements the MembershipService interface
type membershipService struct {
	uowFactory UnitOfWorkFactory
	notifier   Notifier
	foldNames  bool
}

// NewMembershipService creates a new membership service. foldNames enables
// the legacy case-insensitive point name matching.
func NewMembershipService(uowFactory UnitOfWorkFactory, notifier Notifier, foldNames bool) MembershipService {
	return &membershipService{
		uowFactory: uowFactory,
		notifier:   notifier,
		foldNames:  foldNames,
	}
}

// RequestJoin resolves a create-or-join request for a typed point name.
// When no point matches, the point is created and the requester becomes its
// owner and first member. When the requester already owns the matching
// point, nothing happens. Otherwise an approval prompt is routed to the
// owner; repeated requests are not deduplicated and prompts never expire.
func (s *membershipService) RequestJoin(ctx context.Context, userID int64, userName, pointName string) (*JoinResult, error) {
	name := strings.TrimSpace(pointName)
	if name == "" {
		return nil, fmt.Errorf("empty point name: %w", ErrInvalidInput)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	point, err := s.lookupPoint(ctx, uow, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up point: %w", err)
	}

	if point == nil {
		return s.createPoint(ctx, uow, userID, userName, name)
	}

	if point.OwnerID == userID {
		return &JoinResult{Outcome: JoinAlreadyOwner, Point: point}, nil
	}

	// Nothing is written for a pending request; the prompt message itself
	// carries the whole pending approval.
	prompt := fmt.Sprintf("👤 %s хочет присоединиться к точке «%s». Принять?", userName, point.Name)
	actions := []Action{
		{Label: "✅ Принять", Data: EncodeJoinAction(CallbackJoinApprove, userID, point.ID)},
		{Label: "❌ Отклонить", Data: EncodeJoinAction(CallbackJoinReject, userID, point.ID)},
	}

	if err := s.notifier.Send(ctx, point.OwnerID, prompt, actions); err != nil {
		return nil, fmt.Errorf("owner %d: %w", point.OwnerID, ErrRecipientUnreachable)
	}

	return &JoinResult{Outcome: JoinRequested, Point: point}, nil
}

func (s *membershipService) lookupPoint(ctx context.Context, uow UnitOfWork, name string) (*models.Point, error) {
	if s.foldNames {
		return uow.PointRepository().GetByNameFold(ctx, name)
	}
	return uow.PointRepository().GetByName(ctx, name)
}

func (s *membershipService) createPoint(ctx context.Context, uow UnitOfWork, userID int64, userName, name string) (*JoinResult, error) {
	point, err := uow.PointRepository().Create(ctx, name, userID)
	if err != nil {
		// A concurrent creation of the same name loses here with
		// ErrDuplicateName; the requester simply retries.
		return nil, fmt.Errorf("failed to create point: %w", err)
	}

	member, err := uow.MemberRepository().Add(ctx, point.ID, userID, userName)
	if err != nil {
		return nil, fmt.Errorf("failed to add owner as member: %w", err)
	}

	uow.EventBus().Publish(events.MemberJoinedEvent{
		MemberID: member.ID,
		PointID:  point.ID,
		UserID:   userID,
		Name:     userName,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &JoinResult{Outcome: JoinCreated, Point: point, Member: member}, nil
}

// Approve adds the requester as a member of the point. The member insert is
// the sole idempotency guard: a second approval of the same prompt reports
// AlreadyMember and writes nothing.
func (s *membershipService) Approve(ctx context.Context, requesterID, pointID int64) (*ApprovalResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	point, err := uow.PointRepository().GetByID(ctx, pointID)
	if err != nil {
		return nil, fmt.Errorf("failed to get point: %w", err)
	}
	if point == nil {
		return nil, fmt.Errorf("point %d: %w", pointID, ErrPointNotFound)
	}

	name := FallbackMemberName
	user, err := uow.UserRepository().GetByID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get requester: %w", err)
	}
	if user != nil {
		name = user.Name
	}

	member, err := uow.MemberRepository().Add(ctx, pointID, requesterID, name)
	if err != nil {
		if errors.Is(err, ErrAlreadyMember) {
			return &ApprovalResult{Point: point, AlreadyMember: true}, nil
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	members, err := uow.MemberRepository().GetByPoint(ctx, pointID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}

	uow.EventBus().Publish(events.MemberJoinedEvent{
		MemberID: member.ID,
		PointID:  pointID,
		UserID:   requesterID,
		Name:     name,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Outcome notices are best-effort: the membership is already
	// committed, an unreachable requester must not fail the approval.
	notice := fmt.Sprintf("✅ Вас приняли в точку «%s»!\n\n%s", point.Name, renderMemberList(members))
	if err := s.notifier.Send(ctx, requesterID, notice, nil); err != nil {
		log.WithFields(log.Fields{
			"requester_id": requesterID,
			"point_id":     pointID,
			"error":        err,
		}).Warn("Failed to deliver approval notice")
	}

	return &ApprovalResult{Point: point, Member: member, Members: members}, nil
}

// Reject notifies the requester of the rejection. No ledger mutation occurs.
func (s *membershipService) Reject(ctx context.Context, requesterID, pointID int64) (*models.Point, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	point, err := uow.PointRepository().GetByID(ctx, pointID)
	if err != nil {
		return nil, fmt.Errorf("failed to get point: %w", err)
	}
	if point == nil {
		return nil, fmt.Errorf("point %d: %w", pointID, ErrPointNotFound)
	}

	notice := fmt.Sprintf("❌ Запрос на вступление в точку «%s» отклонён.", point.Name)
	if err := s.notifier.Send(ctx, requesterID, notice, nil); err != nil {
		log.WithFields(log.Fields{
			"requester_id": requesterID,
			"point_id":     pointID,
			"error":        err,
		}).Warn("Failed to deliver rejection notice")
	}

	return point, nil
}

func renderMemberList(members []*models.Member) string {
	var b strings.Builder
	b.WriteString("Сотрудники:\n")
	for _, m := range members {
		if m.IsSet {
			fmt.Fprintf(&b, "👤 %s — %d руб.\n", m.Name, m.Balance)
		} else {
			fmt.Fprintf(&b, "👤 %s — касса не задана\n", m.Name)
		}
	}
	return b.String()
}
