package reservation

import (
	"context"

	"go.uber.org/zap"

	"labreserve/internal/domain"
	"labreserve/internal/notification"
)

// outbox collects events during a transaction. They are handed to the
// notifier only after commit, so a rolled back step never notifies.
type outbox struct {
	items []queued
}

type queued struct {
	ev         notification.Event
	managersOf int64
	actorID    int64
}

func (o *outbox) toUser(u *domain.User, userID int64, ev notification.Event) {
	ev.RecipientID = userID
	if u != nil {
		ev.RecipientEmail = u.Email
		ev.RecipientName = u.DisplayName()
	}
	o.items = append(o.items, queued{ev: ev})
}

// toManagers addresses ev to every active manager of labID except the actor.
func (o *outbox) toManagers(labID, actorID int64, ev notification.Event) {
	o.items = append(o.items, queued{ev: ev, managersOf: labID, actorID: actorID})
}

func (s *Service) flush(ctx context.Context, o *outbox) {
	if s.notifier == nil || o == nil {
		return
	}
	for _, q := range o.items {
		if q.managersOf == 0 {
			s.notifier.Publish(q.ev)
			continue
		}
		managers, err := s.catalog.ListManagers(ctx, q.managersOf)
		if err != nil {
			s.log.Warn("resolve lab managers for notification failed",
				zap.Int64("lab_id", q.managersOf), zap.String("type", string(q.ev.Type)), zap.Error(err))
			continue
		}
		for i := range managers {
			m := managers[i]
			if m.ID == q.actorID {
				continue
			}
			ev := q.ev
			ev.RecipientID = m.ID
			ev.RecipientEmail = m.Email
			ev.RecipientName = m.DisplayName()
			s.notifier.Publish(ev)
		}
	}
}

func newEvent(t notification.EventType, r *domain.Reservation, actor *domain.User) notification.Event {
	ev := notification.Event{
		Type:          t,
		ActorName:     actor.DisplayName(),
		ReservationID: r.ID,
		Status:        string(r.Status),
		StartTime:     r.StartTime,
	}
	if r.Lab != nil {
		ev.LabName = r.Lab.Name
	}
	if r.InGroup() {
		ev.GroupID = *r.RecurringGroupID
	}
	return ev
}
