package reservation

import (
	"time"

	"labreserve/internal/domain"
)

type CreateReservationRequest struct {
	LabID          int64     `json:"lab_id" binding:"required"`
	StartTime      time.Time `json:"start_time" binding:"required"`
	EndTime        time.Time `json:"end_time" binding:"required"`
	Description    string    `json:"description" binding:"max=2000"`
	WholeLab       bool      `json:"whole_lab"`
	WorkstationIDs []int64   `json:"workstation_ids"`
}

type CreateRecurringRequest struct {
	CreateReservationRequest
	Pattern     string `json:"pattern"`
	Occurrences *int   `json:"occurrences"`
}

// EditReservationRequest carries the full proposed field set. A missing
// whole_lab means false and missing workstation ids mean none.
type EditReservationRequest struct {
	StartTime      time.Time `json:"start_time" binding:"required"`
	EndTime        time.Time `json:"end_time" binding:"required"`
	Description    string    `json:"description" binding:"max=2000"`
	WholeLab       *bool     `json:"whole_lab"`
	WorkstationIDs []int64   `json:"workstation_ids"`
}

func (r EditReservationRequest) snapshot() domain.FieldSnapshot {
	wholeLab := r.WholeLab != nil && *r.WholeLab
	return domain.NewFieldSnapshot(r.StartTime, r.EndTime, r.Description, wholeLab, r.WorkstationIDs)
}

type DecisionRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// EditOutcome reports what an edit did: either the fields were applied
// directly (Proposal is nil) or a proposal now awaits the other side.
type EditOutcome struct {
	Reservation *domain.Reservation             `json:"reservation"`
	Proposal    *domain.ReservationEditProposal `json:"proposal,omitempty"`
	Applied     bool                            `json:"applied"`
}

type SkippedMember struct {
	ReservationID string `json:"reservation_id"`
	Reason        string `json:"reason"`
}

type GroupResult struct {
	GroupID      string               `json:"group_id"`
	Affected     int                  `json:"affected"`
	Skipped      []SkippedMember      `json:"skipped"`
	Reservations []domain.Reservation `json:"reservations"`
}
