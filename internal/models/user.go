package models

import (
	"time"
)

// User carries only what the chat core needs. Credentials and profile data
// live with the auth service that issues the access tokens.
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username string `gorm:"size:32;uniqueIndex;not null" json:"username"`
}
