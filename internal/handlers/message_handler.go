package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pjt3591oo/chat-go/internal/cache"
	"github.com/pjt3591oo/chat-go/internal/handlers/ws"
	"github.com/pjt3591oo/chat-go/internal/httpx"
	"github.com/pjt3591oo/chat-go/internal/service"
	"github.com/pjt3591oo/chat-go/internal/validation"
)

type MessageHandler struct {
	sendCoordinator *service.SendCoordinator
	readTracker     *service.ReadTracker
	chatService     *service.ChatService
	chatCache       *cache.ChatCache
	hub             *ws.Hub
}

func NewMessageHandler(
	sendCoordinator *service.SendCoordinator,
	readTracker *service.ReadTracker,
	chatService *service.ChatService,
	chatCache *cache.ChatCache,
	hub *ws.Hub,
) *MessageHandler {
	return &MessageHandler{
		sendCoordinator: sendCoordinator,
		readTracker:     readTracker,
		chatService:     chatService,
		chatCache:       chatCache,
		hub:             hub,
	}
}

func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	chatID, ok := validation.ParseID(c.Params("id"))
	if !ok {
		return httpx.BadRequest(c, "invalid_chat_id", "Invalid chat ID")
	}

	var input service.SendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	input.Body = validation.TrimAndLimit(input.Body, validation.MaxMessageLength())
	if input.Body == "" {
		return httpx.BadRequest(c, "missing_body", "Body is required")
	}

	message, err := h.sendCoordinator.Send(chatID, userID, input)
	if err != nil {
		return serviceError(c, err, "send_message_failed")
	}

	// Unread counters moved for every member; notify live sockets and drop
	// stale chat lists.
	if memberIDs, err := h.chatService.MemberIDs(chatID); err == nil {
		_ = h.chatCache.InvalidateChatLists(memberIDs)
		if h.hub != nil {
			h.hub.NotifyUsers(memberIDs, fiber.Map{
				"type":    "new_message",
				"message": message.ToResponse(),
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(message.ToResponse())
}

// GetMessages returns a chronological page of chat history. Unless ?ack=false
// is passed, viewing the page acknowledges it: the cursor advances to the
// newest returned message and the unread counter shrinks accordingly.
func (h *MessageHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	chatID, ok := validation.ParseID(c.Params("id"))
	if !ok {
		return httpx.BadRequest(c, "invalid_chat_id", "Invalid chat ID")
	}

	beforeID, ok := validation.ParseCursor(c.Query("before_id"))
	if !ok {
		return httpx.BadRequest(c, "invalid_cursor", "Invalid before_id")
	}

	limit := c.QueryInt("limit", 50)
	autoAck := c.Query("ack") != "false"

	messages, ack, err := h.readTracker.ListMessages(chatID, userID, beforeID, limit, autoAck)
	if err != nil {
		return serviceError(c, err, "fetch_messages_failed")
	}

	if ack != nil && ack.Cursor > ack.PreviousCursor {
		_ = h.chatCache.InvalidateChatList(userID)
	}

	responses := make([]interface{}, len(messages))
	for i := range messages {
		responses[i] = messages[i].ToResponse()
	}

	result := fiber.Map{
		"messages": responses,
		"count":    len(messages),
	}
	if len(messages) > 0 {
		// Oldest message in this page is the cursor for loading older ones.
		result["next_cursor"] = messages[0].ID
	}
	if ack != nil {
		result["read_state"] = ack
	}

	return c.JSON(result)
}

// SyncMessages returns messages newer than since_id with no side effects.
func (h *MessageHandler) SyncMessages(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	chatID, ok := validation.ParseID(c.Params("id"))
	if !ok {
		return httpx.BadRequest(c, "invalid_chat_id", "Invalid chat ID")
	}

	sinceID, ok := validation.ParseCursor(c.Query("since_id"))
	if !ok {
		return httpx.BadRequest(c, "invalid_cursor", "Invalid since_id")
	}

	limit := c.QueryInt("limit", 100)

	messages, err := h.readTracker.ListSince(chatID, userID, sinceID, limit)
	if err != nil {
		return serviceError(c, err, "sync_messages_failed")
	}

	responses := make([]interface{}, len(messages))
	for i := range messages {
		responses[i] = messages[i].ToResponse()
	}

	return c.JSON(fiber.Map{
		"messages": responses,
		"count":    len(messages),
	})
}

type MarkReadRequest struct {
	UptoMessageID uint `json:"upto_message_id"`
}

func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	chatID, ok := validation.ParseID(c.Params("id"))
	if !ok {
		return httpx.BadRequest(c, "invalid_chat_id", "Invalid chat ID")
	}

	var req MarkReadRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	ack, err := h.readTracker.Acknowledge(userID, chatID, req.UptoMessageID)
	if err != nil {
		return serviceError(c, err, "mark_read_failed")
	}

	if ack.Cursor > ack.PreviousCursor {
		_ = h.chatCache.InvalidateChatList(userID)
	}

	return c.JSON(ack)
}

func (h *MessageHandler) GetReadState(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	chatID, ok := validation.ParseID(c.Params("id"))
	if !ok {
		return httpx.BadRequest(c, "invalid_chat_id", "Invalid chat ID")
	}

	state, err := h.readTracker.ReadState(userID, chatID)
	if err != nil {
		return serviceError(c, err, "fetch_read_state_failed")
	}

	return c.JSON(state)
}
