package models

import "time"

// User is an API account allowed to manage bookings.
type User struct {
	ID           uint   `gorm:"primary_key"`
	Username     string `gorm:"size:150;unique_index;not null"`
	PasswordHash string `gorm:"not null"`
	IsActive     bool   `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
