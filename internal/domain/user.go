package domain

import "time"

type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleLabManager UserRole = "lab_manager"
	RoleProfessor  UserRole = "professor"
	RoleStudent    UserRole = "student"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName falls back to the e-mail when no name was stored.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
