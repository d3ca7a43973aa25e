package models

import (
	"time"
)

type MessageType string

const (
	TextMessage  MessageType = "text"
	ImageMessage MessageType = "image"
	FileMessage  MessageType = "file"
)

// Message is immutable once created, except for ReadUserCnt which only the
// read tracker increments. IDs are assigned at insert time; within one chat
// they are strictly increasing because sends to the same chat serialize on
// the chat row.
type Message struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Client-side tracking
	ClientID string `gorm:"type:varchar(36);uniqueIndex:idx_client_sender;not null" json:"client_id"` // UUID for deduplication

	SenderID uint `gorm:"not null;uniqueIndex:idx_client_sender" json:"sender_id"`
	ChatID   uint `gorm:"not null;index:idx_chat_message,priority:1" json:"chat_id"`
	Chat     Chat `gorm:"foreignKey:ChatID" json:"-"`

	Body    string      `gorm:"type:text;not null" json:"body"`
	MsgType MessageType `gorm:"type:varchar(20);default:'text'" json:"msg_type"`

	// Number of distinct other members who have acknowledged reading this
	// message. Monotonically non-decreasing.
	ReadUserCnt int64 `gorm:"not null;default:0" json:"read_user_cnt"`
}

type MessageResponse struct {
	ID          uint        `json:"id"`
	ClientID    string      `json:"client_id"`
	SenderID    uint        `json:"sender_id"`
	ChatID      uint        `json:"chat_id"`
	Body        string      `json:"body"`
	MsgType     MessageType `json:"msg_type"`
	ReadUserCnt int64       `json:"read_user_cnt"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		ClientID:    m.ClientID,
		SenderID:    m.SenderID,
		ChatID:      m.ChatID,
		Body:        m.Body,
		MsgType:     m.MsgType,
		ReadUserCnt: m.ReadUserCnt,
		CreatedAt:   m.CreatedAt,
	}
}
