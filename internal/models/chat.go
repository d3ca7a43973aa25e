package models

import (
	"time"
)

type Chat struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name      string `gorm:"size:100;not null" json:"name"`
	CreatorID uint   `gorm:"not null" json:"creator_id"`

	// Denormalized preview of the most recent message, kept in step with the
	// message log by the send path so the chat list needs no join.
	LastMsg     string      `gorm:"type:text" json:"last_msg"`
	LastMsgType MessageType `gorm:"type:varchar(20)" json:"last_msg_type"`
}
