package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProposalResolution string

const (
	ProposalPending  ProposalResolution = "PENDING"
	ProposalApproved ProposalResolution = "APPROVED"
	ProposalRejected ProposalResolution = "REJECTED"
)

// FieldSnapshot holds the editable fields of a reservation. The same type
// carries both the original and the proposed values of an edit proposal.
type FieldSnapshot struct {
	StartTime      time.Time                  `json:"start_time"`
	EndTime        time.Time                  `json:"end_time"`
	Description    string                     `json:"description" gorm:"type:text"`
	WholeLab       bool                       `json:"whole_lab"`
	WorkstationIDs datatypes.JSONSlice[int64] `json:"workstation_ids"`
}

// NewFieldSnapshot normalizes workstation ids: nil becomes empty, a whole-lab
// snapshot carries none, duplicates are removed and the rest is sorted.
func NewFieldSnapshot(start, end time.Time, description string, wholeLab bool, workstationIDs []int64) FieldSnapshot {
	return FieldSnapshot{
		StartTime:      start,
		EndTime:        end,
		Description:    description,
		WholeLab:       wholeLab,
		WorkstationIDs: datatypes.JSONSlice[int64](normalizeIDs(wholeLab, workstationIDs)),
	}
}

func SnapshotOf(r *Reservation) FieldSnapshot {
	return NewFieldSnapshot(r.StartTime, r.EndTime, r.Description, r.WholeLab, r.WorkstationIDs)
}

// ApplyTo writes the snapshot onto the reservation. Status is left alone.
func (s FieldSnapshot) ApplyTo(r *Reservation) {
	r.StartTime = s.StartTime
	r.EndTime = s.EndTime
	r.Description = s.Description
	r.WholeLab = s.WholeLab
	r.WorkstationIDs = append([]int64{}, s.WorkstationIDs...)
}

func normalizeIDs(wholeLab bool, ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	if wholeLab {
		return out
	}
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type ReservationEditProposal struct {
	ID               string             `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ReservationID    string             `json:"reservation_id" gorm:"type:varchar(36);index;not null"`
	EditedByID       int64              `json:"edited_by_id" gorm:"not null"`
	OriginalStatus   ReservationStatus  `json:"original_status" gorm:"type:varchar(32)"`
	Original         FieldSnapshot      `json:"original" gorm:"embedded;embeddedPrefix:original_"`
	Proposed         FieldSnapshot      `json:"proposed" gorm:"embedded;embeddedPrefix:proposed_"`
	Resolution       ProposalResolution `json:"resolution" gorm:"type:varchar(16);index"`
	ResolvedByID     *int64             `json:"resolved_by_id,omitempty"`
	ResolvedAt       *time.Time         `json:"resolved_at,omitempty"`
	ResolutionReason string             `json:"resolution_reason,omitempty" gorm:"type:text"`
	CreatedAt        time.Time          `json:"created_at"`

	EditedBy *User `json:"edited_by,omitempty" gorm:"foreignKey:EditedByID"`
}

func (ReservationEditProposal) TableName() string {
	return "reservation_edit_proposals"
}

func (p *ReservationEditProposal) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *ReservationEditProposal) IsPending() bool {
	return p.Resolution == ProposalPending
}
