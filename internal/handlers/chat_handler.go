package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pjt3591oo/chat-go/internal/cache"
	"github.com/pjt3591oo/chat-go/internal/httpx"
	"github.com/pjt3591oo/chat-go/internal/service"
	"github.com/pjt3591oo/chat-go/internal/validation"
)

type ChatHandler struct {
	chatService *service.ChatService
	chatCache   *cache.ChatCache
}

func NewChatHandler(chatService *service.ChatService, chatCache *cache.ChatCache) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		chatCache:   chatCache,
	}
}

type CreateChatRequest struct {
	Name      string `json:"name"`
	MemberIDs []uint `json:"member_ids"`
}

func (h *ChatHandler) CreateChat(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var req CreateChatRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	req.Name = validation.TrimAndLimit(req.Name, validation.MaxChatNameLength())
	if req.Name == "" {
		return httpx.BadRequest(c, "missing_name", "Chat name is required")
	}

	chat, err := h.chatService.CreateChat(req.Name, userID, req.MemberIDs)
	if err != nil {
		return serviceError(c, err, "create_chat_failed")
	}

	// New memberships change every member's chat list.
	_ = h.chatCache.InvalidateChatLists(append(req.MemberIDs, userID))

	return c.Status(fiber.StatusCreated).JSON(chat)
}

func (h *ChatHandler) GetChats(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	if cached, ok := h.chatCache.GetChatList(userID); ok {
		return c.JSON(fiber.Map{"chats": cached, "count": len(cached)})
	}

	chats, err := h.chatService.ListChats(userID)
	if err != nil {
		return serviceError(c, err, "fetch_chats_failed")
	}
	if len(chats) > 0 {
		_ = h.chatCache.SetChatList(userID, chats)
	}

	return c.JSON(fiber.Map{"chats": chats, "count": len(chats)})
}

type AddMemberRequest struct {
	UserID uint `json:"user_id"`
}

func (h *ChatHandler) AddMember(c *fiber.Ctx) error {
	if _, err := httpx.LocalUint(c, "userID"); err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	chatID, ok := validation.ParseID(c.Params("id"))
	if !ok {
		return httpx.BadRequest(c, "invalid_chat_id", "Invalid chat ID")
	}

	var req AddMemberRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return httpx.BadRequest(c, "invalid_request_body", "user_id is required")
	}

	if err := h.chatService.AddMember(chatID, req.UserID); err != nil {
		return serviceError(c, err, "add_member_failed")
	}

	_ = h.chatCache.InvalidateChatList(req.UserID)

	return c.JSON(fiber.Map{"message": "Member added"})
}
