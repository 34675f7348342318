package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// User represents an authenticated account holder.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"` // bcrypt hash, never exposed in JSON
}

// AccountID is the key stores partition data by.
func (u *User) AccountID() string {
	return AccountID(u.ID)
}

// AccountID formats a user id as a store account key.
func AccountID(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}
