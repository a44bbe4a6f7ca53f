package notification

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventReservationCreated EventType = "reservation.created"
	EventStatusChanged      EventType = "reservation.status_changed"
	EventGroupStatusChanged EventType = "reservation.group_status_changed"
	EventEditProposed       EventType = "reservation.edit_proposed"
	EventEditAutoApplied    EventType = "reservation.edit_auto_applied"
	EventEditApproved       EventType = "reservation.edit_approved"
	EventEditRejected       EventType = "reservation.edit_rejected"
)

// Event is one workflow notification addressed to a single recipient. It is
// self-contained so sinks and the mailer never query the database.
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	RecipientID    int64     `json:"recipient_id"`
	RecipientEmail string    `json:"recipient_email"`
	RecipientName  string    `json:"recipient_name"`
	ActorName      string    `json:"actor_name,omitempty"`
	LabName        string    `json:"lab_name,omitempty"`
	ReservationID  string    `json:"reservation_id,omitempty"`
	GroupID        string    `json:"group_id,omitempty"`
	Status         string    `json:"status,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Count          int       `json:"count,omitempty"`
	StartTime      time.Time `json:"start_time,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Stamp fills the id and timestamp when they are missing.
func (e *Event) Stamp(now time.Time) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = now
	}
}

func (e Event) Title() string {
	switch e.Type {
	case EventReservationCreated:
		return "New reservation request"
	case EventStatusChanged:
		return "Reservation " + statusWord(e.Status)
	case EventGroupStatusChanged:
		return "Recurring reservation " + statusWord(e.Status)
	case EventEditProposed:
		return "Reservation change needs your approval"
	case EventEditAutoApplied:
		return "Reservation updated"
	case EventEditApproved:
		return "Reservation change approved"
	case EventEditRejected:
		return "Reservation change rejected"
	default:
		return "Reservation update"
	}
}

func (e Event) Message() string {
	var msg string
	switch e.Type {
	case EventReservationCreated:
		if e.Count > 1 {
			msg = fmt.Sprintf("%s requested %d recurring reservations in %s.", e.ActorName, e.Count, e.LabName)
		} else {
			msg = fmt.Sprintf("%s requested a reservation in %s.", e.ActorName, e.LabName)
		}
	case EventStatusChanged:
		msg = fmt.Sprintf("Your reservation in %s was %s by %s.", e.LabName, statusWord(e.Status), e.ActorName)
	case EventGroupStatusChanged:
		msg = fmt.Sprintf("%d reservations of your recurring booking in %s were %s by %s.",
			e.Count, e.LabName, statusWord(e.Status), e.ActorName)
	case EventEditProposed:
		msg = fmt.Sprintf("%s proposed changes to a reservation in %s.", e.ActorName, e.LabName)
	case EventEditAutoApplied:
		msg = fmt.Sprintf("%s updated a pending reservation in %s.", e.ActorName, e.LabName)
	case EventEditApproved:
		msg = fmt.Sprintf("%s approved your changes to a reservation in %s.", e.ActorName, e.LabName)
	case EventEditRejected:
		msg = fmt.Sprintf("%s rejected your changes to a reservation in %s.", e.ActorName, e.LabName)
	default:
		msg = fmt.Sprintf("A reservation in %s was updated.", e.LabName)
	}
	if e.Count > 1 && (e.Type == EventEditProposed || e.Type == EventEditApproved || e.Type == EventEditRejected) {
		msg += fmt.Sprintf(" (%d reservations)", e.Count)
	}
	if e.Reason != "" {
		msg += " Reason: " + e.Reason
	}
	return msg
}

func statusWord(status string) string {
	switch status {
	case "APPROVED":
		return "approved"
	case "REJECTED":
		return "declined"
	case "PENDING_EDIT_APPROVAL":
		return "awaiting edit approval"
	default:
		return "updated"
	}
}
