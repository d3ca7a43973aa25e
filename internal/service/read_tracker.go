package service

import (
	"github.com/pjt3591oo/chat-go/internal/models"
	"github.com/pjt3591oo/chat-go/internal/repository"
	"gorm.io/gorm"
)

// ReadTracker advances read cursors and keeps unread counters and per-message
// read counts in step with the message log. Explicit acknowledgements and the
// auto-acknowledging message list both run through Acknowledge, so there is
// exactly one counting rule.
type ReadTracker struct {
	db             TxRunner
	messageRepo    repository.MessageRepositoryInterface
	membershipRepo repository.MembershipRepositoryInterface
}

func NewReadTracker(
	db TxRunner,
	messageRepo repository.MessageRepositoryInterface,
	membershipRepo repository.MembershipRepositoryInterface,
) *ReadTracker {
	return &ReadTracker{
		db:             db,
		messageRepo:    messageRepo,
		membershipRepo: membershipRepo,
	}
}

// AckResult reports a committed (or no-op) acknowledgement.
type AckResult struct {
	PreviousCursor uint  `json:"previous_cursor"`
	Cursor         uint  `json:"cursor"`
	NotReadMsgCnt  int64 `json:"not_read_msg_cnt"`
}

// Acknowledge records that userID has read every message of chatID up to and
// including uptoID.
//
// Re-acknowledging an already covered id (uptoID <= stored cursor) is an
// idempotent no-op success. Otherwise, in one transaction: the membership
// row is locked, read_user_cnt is incremented for every message in
// (cursor, uptoID] not authored by the user, the unread counter is recomputed
// as the count of newer messages by others, and the cursor advances. A
// partial acknowledgement therefore leaves the remainder unread instead of
// zeroing the counter.
func (t *ReadTracker) Acknowledge(userID, chatID, uptoID uint) (*AckResult, error) {
	if userID == 0 || chatID == 0 {
		return nil, ErrInvalidInput
	}

	membership, err := t.membershipRepo.Get(userID, chatID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if uptoID <= membership.CheckedLastMessageID {
		return &AckResult{
			PreviousCursor: membership.CheckedLastMessageID,
			Cursor:         membership.CheckedLastMessageID,
			NotReadMsgCnt:  membership.NotReadMsgCnt,
		}, nil
	}

	var result *AckResult
	err = runInTx(t.db, func(tx *gorm.DB) error {
		locked, err := t.membershipRepo.GetForUpdate(tx, userID, chatID)
		if err != nil {
			return mapNotFound(err)
		}

		prev := locked.CheckedLastMessageID
		if uptoID <= prev {
			// A concurrent acknowledgement got there first.
			result = &AckResult{
				PreviousCursor: prev,
				Cursor:         prev,
				NotReadMsgCnt:  locked.NotReadMsgCnt,
			}
			return nil
		}

		// uptoID may refer to a purged message; the range covers whatever
		// rows exist.
		if err := t.messageRepo.IncrementReadCount(tx, chatID, userID, prev, uptoID); err != nil {
			return err
		}
		remaining, err := t.messageRepo.RemainingUnread(tx, chatID, userID, uptoID)
		if err != nil {
			return err
		}
		if err := t.membershipRepo.AdvanceCursor(tx, userID, chatID, uptoID, remaining); err != nil {
			return err
		}

		result = &AckResult{
			PreviousCursor: prev,
			Cursor:         uptoID,
			NotReadMsgCnt:  remaining,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListMessages returns the page of messages older than beforeID (newest page
// when beforeID is 0) in chronological order. With autoAck the page is also
// acknowledged up to its newest message, and the returned copies reflect the
// committed read-count increments. With autoAck off the read path is pure.
func (t *ReadTracker) ListMessages(chatID, userID, beforeID uint, limit int, autoAck bool) ([]models.Message, *AckResult, error) {
	if chatID == 0 || userID == 0 {
		return nil, nil, ErrInvalidInput
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	// Non-members get NotFound, not an empty page.
	if _, err := t.membershipRepo.Get(userID, chatID); err != nil {
		return nil, nil, mapNotFound(err)
	}

	messages, err := t.messageRepo.ListBefore(chatID, beforeID, limit)
	if err != nil {
		return nil, nil, err
	}
	if !autoAck || len(messages) == 0 {
		return messages, nil, nil
	}

	ack, err := t.Acknowledge(userID, chatID, messages[len(messages)-1].ID)
	if err != nil {
		return nil, nil, err
	}

	// Fold the viewer's own just-committed increment into the page.
	if ack.Cursor > ack.PreviousCursor {
		for i := range messages {
			if messages[i].ID > ack.PreviousCursor && messages[i].ID <= ack.Cursor && messages[i].SenderID != userID {
				messages[i].ReadUserCnt++
			}
		}
	}

	return messages, ack, nil
}

// ListSince returns messages with id > sinceID, oldest first. Pure sync
// read, no acknowledgement side effect.
func (t *ReadTracker) ListSince(chatID, userID, sinceID uint, limit int) ([]models.Message, error) {
	if chatID == 0 || userID == 0 {
		return nil, ErrInvalidInput
	}
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	if _, err := t.membershipRepo.Get(userID, chatID); err != nil {
		return nil, mapNotFound(err)
	}

	return t.messageRepo.ListSince(chatID, sinceID, limit)
}

// ReadState returns the stored cursor and unread count for one membership.
func (t *ReadTracker) ReadState(userID, chatID uint) (*models.Membership, error) {
	if userID == 0 || chatID == 0 {
		return nil, ErrInvalidInput
	}
	membership, err := t.membershipRepo.Get(userID, chatID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return membership, nil
}
