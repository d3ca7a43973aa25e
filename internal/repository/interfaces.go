package repository

import (
	"github.com/pjt3591oo/chat-go/internal/models"
	"gorm.io/gorm"
)

// Methods taking a tx argument participate in a caller-owned transaction.
// Passing nil runs them on the repository's own connection.

// MessageRepositoryInterface is the append-only message log of a chat plus
// the bulk read-count bookkeeping the read tracker needs.
type MessageRepositoryInterface interface {
	Append(tx *gorm.DB, message *models.Message) error
	FindByID(id uint) (*models.Message, error)
	FindByClientID(clientID string, senderID uint) (*models.Message, error)
	ListSince(chatID, sinceID uint, limit int) ([]models.Message, error)
	ListBefore(chatID, beforeID uint, limit int) ([]models.Message, error)
	LatestID(chatID uint) (uint, error)
	// IncrementReadCount bumps read_user_cnt by one for every message in
	// (afterID, uptoID] of the chat not authored by excludingUserID. The
	// range is defined over whatever rows currently exist.
	IncrementReadCount(tx *gorm.DB, chatID, excludingUserID, afterID, uptoID uint) error
	// RemainingUnread counts messages with id > afterID not authored by
	// userID.
	RemainingUnread(tx *gorm.DB, chatID, userID, afterID uint) (int64, error)
}

// MembershipRepositoryInterface tracks which users belong to which chat and
// each member's read cursor + unread counter.
type MembershipRepositoryInterface interface {
	EnsureForMember(tx *gorm.DB, chatID, userID uint) error
	DeleteForMember(tx *gorm.DB, chatID, userID uint) error
	Get(userID, chatID uint) (*models.Membership, error)
	// GetForUpdate locks the membership row for the duration of tx so that
	// concurrent acknowledgements for the same (user, chat) serialize.
	GetForUpdate(tx *gorm.DB, userID, chatID uint) (*models.Membership, error)
	ListForUser(userID uint) ([]ChatListRow, error)
	ListMemberIDs(chatID uint) ([]uint, error)
	// AdvanceCursor is conditional: a newLastID smaller than the stored
	// cursor is a silent no-op, so stale or duplicate acknowledgements
	// cannot regress the cursor.
	AdvanceCursor(tx *gorm.DB, userID, chatID, newLastID uint, newUnreadCnt int64) error
	BumpUnread(tx *gorm.DB, chatID, excludingUserID uint, delta int) error
}

// ChatRepositoryInterface owns the chat rows and their denormalized
// last-message preview.
type ChatRepositoryInterface interface {
	Create(tx *gorm.DB, chat *models.Chat) error
	FindByID(id uint) (*models.Chat, error)
	// LockForUpdate takes the chat row lock that serializes sends to one
	// chat (message id assignment and preview update).
	LockForUpdate(tx *gorm.DB, chatID uint) (*models.Chat, error)
	UpdatePreview(tx *gorm.DB, chatID uint, body string, msgType models.MessageType) error
}

// UserRepositoryInterface defines the contract for user rows.
type UserRepositoryInterface interface {
	Create(user *models.User) error
	FindByID(id uint) (*models.User, error)
	ExistAll(ids []uint) (bool, error)
}
