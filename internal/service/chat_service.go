package service

import (
	"github.com/pjt3591oo/chat-go/internal/models"
	"github.com/pjt3591oo/chat-go/internal/repository"
	"gorm.io/gorm"
)

// ChatService handles chat lifecycle: creation, membership, and the chat
// list. Read-state bookkeeping starts here: every membership row begins with
// cursor 0 and unread 0.
type ChatService struct {
	db             TxRunner
	chatRepo       repository.ChatRepositoryInterface
	membershipRepo repository.MembershipRepositoryInterface
	userRepo       repository.UserRepositoryInterface
}

func NewChatService(
	db TxRunner,
	chatRepo repository.ChatRepositoryInterface,
	membershipRepo repository.MembershipRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
) *ChatService {
	return &ChatService{
		db:             db,
		chatRepo:       chatRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
	}
}

func (s *ChatService) CreateChat(name string, creatorID uint, memberIDs []uint) (*models.Chat, error) {
	if name == "" || creatorID == 0 {
		return nil, ErrInvalidInput
	}

	// Dedupe and drop the creator; their membership is created regardless.
	seen := map[uint]bool{creatorID: true}
	members := make([]uint, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id == 0 {
			return nil, ErrInvalidInput
		}
		if !seen[id] {
			seen[id] = true
			members = append(members, id)
		}
	}

	if s.userRepo != nil {
		ok, err := s.userRepo.ExistAll(append([]uint{creatorID}, members...))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotFound
		}
	}

	chat := &models.Chat{
		Name:      name,
		CreatorID: creatorID,
	}

	err := runInTx(s.db, func(tx *gorm.DB) error {
		chat.ID = 0
		if err := s.chatRepo.Create(tx, chat); err != nil {
			return err
		}
		if err := s.membershipRepo.EnsureForMember(tx, chat.ID, creatorID); err != nil {
			return err
		}
		for _, id := range members {
			if err := s.membershipRepo.EnsureForMember(tx, chat.ID, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *ChatService) AddMember(chatID, userID uint) error {
	if chatID == 0 || userID == 0 {
		return ErrInvalidInput
	}
	if _, err := s.chatRepo.FindByID(chatID); err != nil {
		return mapNotFound(err)
	}
	if s.userRepo != nil {
		if _, err := s.userRepo.FindByID(userID); err != nil {
			return mapNotFound(err)
		}
	}
	return s.membershipRepo.EnsureForMember(nil, chatID, userID)
}

func (s *ChatService) RemoveMember(chatID, userID uint) error {
	if chatID == 0 || userID == 0 {
		return ErrInvalidInput
	}
	return s.membershipRepo.DeleteForMember(nil, chatID, userID)
}

// ListChats returns the user's chats with last-message preview and unread
// count, most recently active first.
func (s *ChatService) ListChats(userID uint) ([]repository.ChatListRow, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.membershipRepo.ListForUser(userID)
}

func (s *ChatService) MemberIDs(chatID uint) ([]uint, error) {
	if chatID == 0 {
		return nil, ErrInvalidInput
	}
	return s.membershipRepo.ListMemberIDs(chatID)
}
