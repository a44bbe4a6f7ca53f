package domain

import "time"

// Notification is an in-app inbox entry for one user.
type Notification struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	UserID        int64     `json:"user_id" gorm:"index;not null"`
	Type          string    `json:"type" gorm:"type:varchar(64)"`
	Title         string    `json:"title"`
	Message       string    `json:"message,omitempty" gorm:"type:text"`
	ReservationID string    `json:"reservation_id,omitempty" gorm:"type:varchar(36)"`
	IsRead        bool      `json:"is_read"`
	CreatedAt     time.Time `json:"created_at"`
}
