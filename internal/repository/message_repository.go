package repository

import (
	"github.com/pjt3591oo/chat-go/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *MessageRepository) Append(tx *gorm.DB, message *models.Message) error {
	return r.conn(tx).Create(message).Error
}

func (r *MessageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) FindByClientID(clientID string, senderID uint) (*models.Message, error) {
	var message models.Message
	err := r.db.Where("client_id = ? AND sender_id = ?", clientID, senderID).
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// ListSince returns messages with id > sinceID in chronological order. The
// page boundary is a cursor, not an offset, so pages stay correct while new
// messages are appended concurrently.
func (r *MessageRepository) ListSince(chatID, sinceID uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("chat_id = ? AND id > ?", chatID, sinceID).
		Order("id ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// ListBefore returns the page of messages older than beforeID (or the newest
// page when beforeID is 0), in chronological order.
func (r *MessageRepository) ListBefore(chatID, beforeID uint, limit int) ([]models.Message, error) {
	q := r.db.Where("chat_id = ?", chatID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}

	var messages []models.Message
	err := q.Order("id DESC").
		Limit(limit).
		Find(&messages).Error

	// Reverse to get chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, err
}

func (r *MessageRepository) LatestID(chatID uint) (uint, error) {
	var maxID uint
	err := r.db.Model(&models.Message{}).
		Where("chat_id = ?", chatID).
		Select("COALESCE(MAX(id), 0)").
		Scan(&maxID).Error
	return maxID, err
}

func (r *MessageRepository) IncrementReadCount(tx *gorm.DB, chatID, excludingUserID, afterID, uptoID uint) error {
	return r.conn(tx).Model(&models.Message{}).
		Where("chat_id = ? AND sender_id <> ? AND id > ? AND id <= ?",
			chatID, excludingUserID, afterID, uptoID).
		Update("read_user_cnt", gorm.Expr("read_user_cnt + 1")).Error
}

func (r *MessageRepository) RemainingUnread(tx *gorm.DB, chatID, userID, afterID uint) (int64, error) {
	var count int64
	err := r.conn(tx).Model(&models.Message{}).
		Where("chat_id = ? AND sender_id <> ? AND id > ?", chatID, userID, afterID).
		Count(&count).Error
	return count, err
}
