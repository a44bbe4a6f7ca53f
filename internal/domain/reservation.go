package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationStatus string

const (
	ReservationPending             ReservationStatus = "PENDING"
	ReservationApproved            ReservationStatus = "APPROVED"
	ReservationRejected            ReservationStatus = "REJECTED"
	ReservationPendingEditApproval ReservationStatus = "PENDING_EDIT_APPROVAL"
)

type RecurrencePattern string

const (
	RecurDaily    RecurrencePattern = "DAILY"
	RecurWeekly   RecurrencePattern = "WEEKLY"
	RecurBiweekly RecurrencePattern = "BIWEEKLY"
	RecurMonthly  RecurrencePattern = "MONTHLY"
)

type Reservation struct {
	ID                string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	LabID             int64             `json:"lab_id" gorm:"index;not null"`
	UserID            int64             `json:"user_id" gorm:"index;not null"`
	StartTime         time.Time         `json:"start_time" gorm:"index"`
	EndTime           time.Time         `json:"end_time"`
	Description       string            `json:"description,omitempty" gorm:"type:text"`
	Status            ReservationStatus `json:"status" gorm:"type:varchar(32);index"`
	WholeLab          bool              `json:"whole_lab"`
	RecurringGroupID  *string           `json:"recurring_group_id,omitempty" gorm:"type:varchar(36);index"`
	RecurrencePattern RecurrencePattern `json:"recurrence_pattern,omitempty" gorm:"type:varchar(16)"`
	DecisionReason    string            `json:"decision_reason,omitempty" gorm:"type:text"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`

	// Loaded from reservation_workstations by the repository.
	WorkstationIDs []int64 `json:"workstation_ids" gorm:"-"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Lab  *Lab  `json:"lab,omitempty" gorm:"foreignKey:LabID"`
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r *Reservation) InGroup() bool {
	return r.RecurringGroupID != nil && *r.RecurringGroupID != ""
}

type ReservationWorkstation struct {
	ReservationID string `gorm:"primaryKey;type:varchar(36)"`
	WorkstationID int64  `gorm:"primaryKey"`
}
