package domain

import "time"

type Lab struct {
	ID          int64  `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	// "08:00" / "20:00"; both empty means the lab has no default schedule.
	DefaultOpenTime  string    `json:"default_open_time,omitempty"`
	DefaultCloseTime string    `json:"default_close_time,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (l *Lab) HasDefaultHours() bool {
	return l.DefaultOpenTime != "" && l.DefaultCloseTime != ""
}

type Workstation struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	LabID     int64     `json:"lab_id" gorm:"index;not null"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// LabOperatingHours overrides the lab defaults for one weekday.
type LabOperatingHours struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	LabID     int64  `json:"lab_id" gorm:"uniqueIndex:idx_lab_weekday;not null"`
	DayOfWeek int    `json:"day_of_week" gorm:"uniqueIndex:idx_lab_weekday"` // 0=Sunday, ..., 6=Saturday
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
	IsClosed  bool   `json:"is_closed"`
}

func (LabOperatingHours) TableName() string {
	return "lab_operating_hours"
}

// LabClosedDay is either a specific calendar date or a weekday closed every week.
type LabClosedDay struct {
	ID        int64      `json:"id" gorm:"primaryKey"`
	LabID     int64      `json:"lab_id" gorm:"index;not null"`
	Date      *time.Time `json:"date,omitempty"`
	DayOfWeek *int       `json:"day_of_week,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

func (c LabClosedDay) Recurring() bool {
	return c.DayOfWeek != nil
}

type LabManager struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"uniqueIndex:idx_lab_manager;not null"`
	LabID     int64     `json:"lab_id" gorm:"uniqueIndex:idx_lab_manager;not null"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Lab  *Lab  `json:"lab,omitempty" gorm:"foreignKey:LabID"`
}
