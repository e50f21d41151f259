package models

import (
	"time"
)

type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email       string    `gorm:"size:254" json:"email"`
	Password    string    `json:"-"` // bcrypt hash, hidden from JSON
	IsSuperuser bool      `gorm:"not null;default:false" json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (u *User) String() string {
	return u.Username
}
