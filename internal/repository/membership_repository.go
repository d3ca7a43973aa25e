package repository

import (
	"time"

	"github.com/pjt3591oo/chat-go/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *MembershipRepository) EnsureForMember(tx *gorm.DB, chatID, userID uint) error {
	return r.conn(tx).Exec(`
		INSERT INTO memberships (chat_id, user_id, checked_last_message_id, not_read_msg_cnt, created_at, updated_at)
		VALUES (?, ?, 0, 0, NOW(), NOW())
		ON CONFLICT (chat_id, user_id) DO NOTHING
	`, chatID, userID).Error
}

func (r *MembershipRepository) DeleteForMember(tx *gorm.DB, chatID, userID uint) error {
	return r.conn(tx).Where("chat_id = ? AND user_id = ?", chatID, userID).
		Delete(&models.Membership{}).Error
}

func (r *MembershipRepository) Get(userID, chatID uint) (*models.Membership, error) {
	var membership models.Membership
	err := r.db.Where("chat_id = ? AND user_id = ?", chatID, userID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// GetForUpdate reads the membership row under a row lock. Two transactions
// acknowledging for the same (user, chat) serialize here, so the later one
// sees the advanced cursor instead of racing a lost update.
func (r *MembershipRepository) GetForUpdate(tx *gorm.DB, userID, chatID uint) (*models.Membership, error) {
	var membership models.Membership
	err := r.conn(tx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// ChatListRow is a denormalized chat-list entry: membership read state plus
// the chat's last-message preview.
type ChatListRow struct {
	ChatID               uint               `gorm:"column:chat_id" json:"chat_id" msgpack:"chat_id"`
	Name                 string             `gorm:"column:name" json:"name" msgpack:"name"`
	LastMsg              string             `gorm:"column:last_msg" json:"last_msg" msgpack:"last_msg"`
	LastMsgType          models.MessageType `gorm:"column:last_msg_type" json:"last_msg_type" msgpack:"last_msg_type"`
	CheckedLastMessageID uint               `gorm:"column:checked_last_message_id" json:"checked_last_message_id" msgpack:"checked_last_message_id"`
	NotReadMsgCnt        int64              `gorm:"column:not_read_msg_cnt" json:"not_read_msg_cnt" msgpack:"not_read_msg_cnt"`
	ChatCreatedAt        time.Time          `gorm:"column:chat_created_at" json:"chat_created_at" msgpack:"chat_created_at"`
}

func (r *MembershipRepository) ListForUser(userID uint) ([]ChatListRow, error) {
	var rows []ChatListRow
	err := r.db.Raw(`
		SELECT
			m.chat_id,
			c.name,
			c.last_msg,
			c.last_msg_type,
			m.checked_last_message_id,
			m.not_read_msg_cnt,
			c.created_at AS chat_created_at
		FROM memberships m
		JOIN chats c ON c.id = m.chat_id
		WHERE m.user_id = ?
		ORDER BY c.updated_at DESC
	`, userID).Scan(&rows).Error
	return rows, err
}

func (r *MembershipRepository) ListMemberIDs(chatID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Membership{}).
		Where("chat_id = ?", chatID).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

// AdvanceCursor writes the new cursor and unread count, guarded so a stale
// acknowledgement (smaller newLastID) becomes a no-op rather than a
// regression. The guard matters for multi-replica deployments where the
// row lock of one process does not cover another's read-then-write.
func (r *MembershipRepository) AdvanceCursor(tx *gorm.DB, userID, chatID, newLastID uint, newUnreadCnt int64) error {
	return r.conn(tx).Model(&models.Membership{}).
		Where("chat_id = ? AND user_id = ? AND checked_last_message_id <= ?",
			chatID, userID, newLastID).
		Updates(map[string]interface{}{
			"checked_last_message_id": newLastID,
			"not_read_msg_cnt":        newUnreadCnt,
			"updated_at":              gorm.Expr("NOW()"),
		}).Error
}

func (r *MembershipRepository) BumpUnread(tx *gorm.DB, chatID, excludingUserID uint, delta int) error {
	return r.conn(tx).Model(&models.Membership{}).
		Where("chat_id = ? AND user_id <> ?", chatID, excludingUserID).
		Updates(map[string]interface{}{
			"not_read_msg_cnt": gorm.Expr("not_read_msg_cnt + ?", delta),
			"updated_at":       gorm.Expr("NOW()"),
		}).Error
}
