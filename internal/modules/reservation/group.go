package reservation

import (
	"context"

	"go.uber.org/zap"

	"labreserve/internal/domain"
	"labreserve/internal/notification"
	"labreserve/internal/repository"
)

func (s *Service) ApproveRecurringGroup(ctx context.Context, groupID string, actor *domain.User, reason string) (*GroupResult, error) {
	return s.decideGroup(ctx, groupID, actor, reason, domain.ReservationApproved)
}

func (s *Service) DeclineRecurringGroup(ctx context.Context, groupID string, actor *domain.User, reason string) (*GroupResult, error) {
	return s.decideGroup(ctx, groupID, actor, reason, domain.ReservationRejected)
}

// decideGroup moves every PENDING member to target. Members in any other
// status are reported as skipped and left untouched. All members share a
// lab, so the first one stands in for the authorization check.
func (s *Service) decideGroup(ctx context.Context, groupID string, actor *domain.User, reason string, target domain.ReservationStatus) (*GroupResult, error) {
	res := &GroupResult{GroupID: groupID, Skipped: []SkippedMember{}}
	var out outbox

	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		members, err := s.loadGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if !s.authz.CanManageReservation(ctx, actor, &members[0]) {
			return ErrNotAuthorized
		}

		for i := range members {
			m := &members[i]
			if m.Status != domain.ReservationPending {
				res.Skipped = append(res.Skipped, SkippedMember{ReservationID: m.ID, Reason: "status is " + string(m.Status)})
				continue
			}
			m.Status = target
			m.DecisionReason = reason
			if err := tx.Reservations.Update(ctx, m); err != nil {
				return err
			}
			res.Affected++
		}
		if res.Affected == 0 {
			return ErrInvalidState.WithMessage("recurring group has no PENDING reservations")
		}
		res.Reservations = members

		first := &members[0]
		ev := newEvent(notification.EventGroupStatusChanged, first, actor)
		ev.ReservationID = ""
		ev.Status = string(target)
		ev.Reason = reason
		ev.Count = res.Affected
		out.toUser(first.User, first.UserID, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("recurring group decided",
		zap.String("group_id", groupID), zap.String("status", string(target)),
		zap.Int("affected", res.Affected), zap.Int("skipped", len(res.Skipped)))
	s.flush(ctx, &out)
	return res, nil
}
