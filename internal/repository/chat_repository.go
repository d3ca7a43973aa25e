package repository

import (
	"github.com/pjt3591oo/chat-go/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ChatRepository) Create(tx *gorm.DB, chat *models.Chat) error {
	return r.conn(tx).Create(chat).Error
}

func (r *ChatRepository) FindByID(id uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.First(&chat, id).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// LockForUpdate locks the chat row for the duration of tx. This is the
// single serialization point for sends to one chat: message ids assigned
// under the lock commit in order, and the preview update cannot interleave.
func (r *ChatRepository) LockForUpdate(tx *gorm.DB, chatID uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.conn(tx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&chat, chatID).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepository) UpdatePreview(tx *gorm.DB, chatID uint, body string, msgType models.MessageType) error {
	return r.conn(tx).Model(&models.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]interface{}{
			"last_msg":      body,
			"last_msg_type": msgType,
			"updated_at":    gorm.Expr("NOW()"),
		}).Error
}
