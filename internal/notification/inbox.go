package notification

import (
	"context"

	"labreserve/internal/domain"
)

type InboxStore interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// Inbox stores every event as an in-app notification row.
type Inbox struct {
	store InboxStore
}

func NewInbox(store InboxStore) *Inbox {
	return &Inbox{store: store}
}

func (i *Inbox) Name() string { return "inbox" }

func (i *Inbox) Send(ctx context.Context, ev Event) error {
	return i.store.Create(ctx, &domain.Notification{
		UserID:        ev.RecipientID,
		Type:          string(ev.Type),
		Title:         ev.Title(),
		Message:       ev.Message(),
		ReservationID: ev.ReservationID,
		CreatedAt:     ev.OccurredAt,
	})
}
