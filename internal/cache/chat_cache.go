package cache

import (
	"fmt"
	"time"

	"github.com/pjt3591oo/chat-go/internal/repository"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	ChatListTTL = 2 * time.Minute
)

// ChatCache caches each user's chat list (preview + unread counts). Entries
// are short-lived and invalidated on every send and acknowledgement, so the
// database stays the source of truth for the counters.
type ChatCache struct {
	redis *RedisCache
}

func NewChatCache(redis *RedisCache) *ChatCache {
	return &ChatCache{redis: redis}
}

func chatListKey(userID uint) string {
	return fmt.Sprintf("chatlist:%d", userID)
}

// GetChatList retrieves a cached chat list. A nil cache or miss returns
// (nil, false) and the caller falls through to the database.
func (cc *ChatCache) GetChatList(userID uint) ([]repository.ChatListRow, bool) {
	if cc == nil || cc.redis == nil {
		return nil, false
	}
	data, err := cc.redis.Get(chatListKey(userID))
	if err != nil || data == nil {
		return nil, false
	}

	var rows []repository.ChatListRow
	if err := msgpack.Unmarshal(data, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (cc *ChatCache) SetChatList(userID uint, rows []repository.ChatListRow) error {
	if cc == nil || cc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(rows)
	if err != nil {
		return err
	}
	return cc.redis.Set(chatListKey(userID), data, ChatListTTL)
}

func (cc *ChatCache) InvalidateChatList(userID uint) error {
	if cc == nil || cc.redis == nil {
		return nil
	}
	return cc.redis.Delete(chatListKey(userID))
}

// InvalidateChatLists drops the cached list of every given user, e.g. all
// members of a chat after a send moved their unread counters.
func (cc *ChatCache) InvalidateChatLists(userIDs []uint) error {
	if cc == nil || cc.redis == nil || len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = chatListKey(id)
	}
	return cc.redis.Delete(keys...)
}
