package models

import "time"

// User represents a registered board user. Usernames are unique and
// immutable after registration.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null" validate:"required,max=100"`
	Password  string    `gorm:"type:varchar(255);not null" validate:"required,min=6"` // No json tag for security
	CreatedAt time.Time `json:"created_at"`
}
