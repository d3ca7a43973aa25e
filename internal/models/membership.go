package models

import (
	"time"
)

// Membership tracks one user's read progress in one chat.
// CheckedLastMessageID is monotonic: the highest message ID the user has
// acknowledged, 0 when nothing was acknowledged yet. NotReadMsgCnt is the
// derived unread counter; at any quiescent point it equals the number of
// messages in the chat with id > CheckedLastMessageID not authored by the
// user.
type Membership struct {
	ChatID               uint      `gorm:"primaryKey" json:"chat_id"`
	UserID               uint      `gorm:"primaryKey" json:"user_id"`
	CheckedLastMessageID uint      `gorm:"not null;default:0" json:"checked_last_message_id"`
	NotReadMsgCnt        int64     `gorm:"not null;default:0" json:"not_read_msg_cnt"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	Chat Chat `gorm:"foreignKey:ChatID" json:"-"`
}
