package service

import (
	"github.com/google/uuid"
	"github.com/pjt3591oo/chat-go/internal/models"
	"github.com/pjt3591oo/chat-go/internal/repository"
	"gorm.io/gorm"
)

// SendCoordinator turns a send request into one atomic unit: append to the
// message log, refresh the chat's last-message preview, and bump the unread
// counter of every member except the sender. The unread bump is a relative
// delta, so a message must never commit without its fan-out (or the other
// way around) -- the whole unit rolls back together.
type SendCoordinator struct {
	db             TxRunner
	chatRepo       repository.ChatRepositoryInterface
	messageRepo    repository.MessageRepositoryInterface
	membershipRepo repository.MembershipRepositoryInterface
}

func NewSendCoordinator(
	db TxRunner,
	chatRepo repository.ChatRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
	membershipRepo repository.MembershipRepositoryInterface,
) *SendCoordinator {
	return &SendCoordinator{
		db:             db,
		chatRepo:       chatRepo,
		messageRepo:    messageRepo,
		membershipRepo: membershipRepo,
	}
}

type SendMessageInput struct {
	Body     string             `json:"body"`
	MsgType  models.MessageType `json:"msg_type"`
	ClientID string             `json:"client_id"`
}

func (s *SendCoordinator) Send(chatID, senderID uint, input SendMessageInput) (*models.Message, error) {
	if chatID == 0 || senderID == 0 || input.Body == "" {
		return nil, ErrInvalidInput
	}
	if input.MsgType == "" {
		input.MsgType = models.TextMessage
	}
	switch input.MsgType {
	case models.TextMessage, models.ImageMessage, models.FileMessage:
	default:
		return nil, ErrInvalidInput
	}
	if input.ClientID == "" {
		input.ClientID = uuid.NewString()
	} else if _, err := uuid.Parse(input.ClientID); err != nil {
		return nil, ErrInvalidInput
	}

	// A retried send with a known client id returns the stored message
	// instead of appending twice.
	if existing, err := s.messageRepo.FindByClientID(input.ClientID, senderID); err == nil {
		return existing, nil
	}

	if _, err := s.membershipRepo.Get(senderID, chatID); err != nil {
		return nil, mapNotFound(err)
	}

	message := &models.Message{
		ClientID: input.ClientID,
		SenderID: senderID,
		ChatID:   chatID,
		Body:     input.Body,
		MsgType:  input.MsgType,
	}

	err := runInTx(s.db, func(tx *gorm.DB) error {
		// A rolled-back attempt leaves the assigned id behind.
		message.ID = 0

		// Chat row lock: the serialization point for this chat's message
		// ordering and preview.
		if _, err := s.chatRepo.LockForUpdate(tx, chatID); err != nil {
			return mapNotFound(err)
		}
		if err := s.messageRepo.Append(tx, message); err != nil {
			return err
		}
		if err := s.chatRepo.UpdatePreview(tx, chatID, message.Body, message.MsgType); err != nil {
			return err
		}
		return s.membershipRepo.BumpUnread(tx, chatID, senderID, 1)
	})
	if err != nil {
		// Two devices racing the same client id: the loser's insert hits
		// the unique index, the winner's row is the answer.
		if existing, ferr := s.messageRepo.FindByClientID(input.ClientID, senderID); ferr == nil {
			return existing, nil
		}
		return nil, err
	}

	return message, nil
}
