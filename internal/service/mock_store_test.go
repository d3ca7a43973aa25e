package service

import (
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/pjt3591oo/chat-go/internal/models"
	"github.com/pjt3591oo/chat-go/internal/repository"
	"gorm.io/gorm"
)

// mockStore is the shared in-memory state behind the repository mocks, so
// that services composed over the same store see each other's writes the way
// they would through one database.
type memberKey struct {
	chatID uint
	userID uint
}

type mockStore struct {
	chats       map[uint]*models.Chat
	memberships map[memberKey]*models.Membership
	messages    map[uint]*models.Message
	users       map[uint]*models.User
	nextChatID  uint
	nextMsgID   uint
}

func newMockStore() *mockStore {
	return &mockStore{
		chats:       make(map[uint]*models.Chat),
		memberships: make(map[memberKey]*models.Membership),
		messages:    make(map[uint]*models.Message),
		users:       make(map[uint]*models.User),
		nextChatID:  1,
		nextMsgID:   1,
	}
}

func (s *mockStore) snapshot() *mockStore {
	snap := newMockStore()
	snap.nextChatID = s.nextChatID
	snap.nextMsgID = s.nextMsgID
	for id, c := range s.chats {
		cc := *c
		snap.chats[id] = &cc
	}
	for k, m := range s.memberships {
		mm := *m
		snap.memberships[k] = &mm
	}
	for id, m := range s.messages {
		mm := *m
		snap.messages[id] = &mm
	}
	for id, u := range s.users {
		uu := *u
		snap.users[id] = &uu
	}
	return snap
}

func (s *mockStore) restore(snap *mockStore) {
	s.chats = snap.chats
	s.memberships = snap.memberships
	s.messages = snap.messages
	s.users = snap.users
	s.nextChatID = snap.nextChatID
	s.nextMsgID = snap.nextMsgID
}

// mockTxRunner gives the services real rollback semantics: the store is
// snapshotted before the unit of work and restored when it fails.
type mockTxRunner struct {
	store *mockStore
}

func (m *mockTxRunner) Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
	snap := m.store.snapshot()
	if err := fc(nil); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// MockMessageRepository implements repository.MessageRepositoryInterface.
type MockMessageRepository struct {
	store         *mockStore
	failAppend    error
	failIncrement error
}

func (m *MockMessageRepository) sortedByID(filter func(*models.Message) bool) []models.Message {
	var result []models.Message
	for _, msg := range m.store.messages {
		if filter(msg) {
			result = append(result, *msg)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *MockMessageRepository) Append(tx *gorm.DB, message *models.Message) error {
	if m.failAppend != nil {
		return m.failAppend
	}
	for _, existing := range m.store.messages {
		if existing.ClientID == message.ClientID && existing.SenderID == message.SenderID {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	if message.ID == 0 {
		message.ID = m.store.nextMsgID
		m.store.nextMsgID++
	}
	message.CreatedAt = time.Now()
	stored := *message
	m.store.messages[message.ID] = &stored
	return nil
}

func (m *MockMessageRepository) FindByID(id uint) (*models.Message, error) {
	if msg, ok := m.store.messages[id]; ok {
		copied := *msg
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMessageRepository) FindByClientID(clientID string, senderID uint) (*models.Message, error) {
	for _, msg := range m.store.messages {
		if msg.ClientID == clientID && msg.SenderID == senderID {
			copied := *msg
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMessageRepository) ListSince(chatID, sinceID uint, limit int) ([]models.Message, error) {
	result := m.sortedByID(func(msg *models.Message) bool {
		return msg.ChatID == chatID && msg.ID > sinceID
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockMessageRepository) ListBefore(chatID, beforeID uint, limit int) ([]models.Message, error) {
	result := m.sortedByID(func(msg *models.Message) bool {
		return msg.ChatID == chatID && (beforeID == 0 || msg.ID < beforeID)
	})
	if len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

func (m *MockMessageRepository) LatestID(chatID uint) (uint, error) {
	var maxID uint
	for _, msg := range m.store.messages {
		if msg.ChatID == chatID && msg.ID > maxID {
			maxID = msg.ID
		}
	}
	return maxID, nil
}

func (m *MockMessageRepository) IncrementReadCount(tx *gorm.DB, chatID, excludingUserID, afterID, uptoID uint) error {
	if m.failIncrement != nil {
		return m.failIncrement
	}
	for _, msg := range m.store.messages {
		if msg.ChatID == chatID && msg.SenderID != excludingUserID && msg.ID > afterID && msg.ID <= uptoID {
			msg.ReadUserCnt++
		}
	}
	return nil
}

func (m *MockMessageRepository) RemainingUnread(tx *gorm.DB, chatID, userID, afterID uint) (int64, error) {
	var count int64
	for _, msg := range m.store.messages {
		if msg.ChatID == chatID && msg.SenderID != userID && msg.ID > afterID {
			count++
		}
	}
	return count, nil
}

// MockMembershipRepository implements repository.MembershipRepositoryInterface.
type MockMembershipRepository struct {
	store          *mockStore
	failBumpUnread error
}

func (m *MockMembershipRepository) EnsureForMember(tx *gorm.DB, chatID, userID uint) error {
	key := memberKey{chatID: chatID, userID: userID}
	if _, exists := m.store.memberships[key]; exists {
		return nil
	}
	m.store.memberships[key] = &models.Membership{
		ChatID: chatID,
		UserID: userID,
	}
	return nil
}

func (m *MockMembershipRepository) DeleteForMember(tx *gorm.DB, chatID, userID uint) error {
	delete(m.store.memberships, memberKey{chatID: chatID, userID: userID})
	return nil
}

func (m *MockMembershipRepository) Get(userID, chatID uint) (*models.Membership, error) {
	if membership, ok := m.store.memberships[memberKey{chatID: chatID, userID: userID}]; ok {
		copied := *membership
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMembershipRepository) GetForUpdate(tx *gorm.DB, userID, chatID uint) (*models.Membership, error) {
	return m.Get(userID, chatID)
}

func (m *MockMembershipRepository) ListForUser(userID uint) ([]repository.ChatListRow, error) {
	var rows []repository.ChatListRow
	for key, membership := range m.store.memberships {
		if key.userID != userID {
			continue
		}
		chat, ok := m.store.chats[key.chatID]
		if !ok {
			continue
		}
		rows = append(rows, repository.ChatListRow{
			ChatID:               chat.ID,
			Name:                 chat.Name,
			LastMsg:              chat.LastMsg,
			LastMsgType:          chat.LastMsgType,
			CheckedLastMessageID: membership.CheckedLastMessageID,
			NotReadMsgCnt:        membership.NotReadMsgCnt,
			ChatCreatedAt:        chat.CreatedAt,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ChatID < rows[j].ChatID })
	return rows, nil
}

func (m *MockMembershipRepository) ListMemberIDs(chatID uint) ([]uint, error) {
	var ids []uint
	for key := range m.store.memberships {
		if key.chatID == chatID {
			ids = append(ids, key.userID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *MockMembershipRepository) AdvanceCursor(tx *gorm.DB, userID, chatID, newLastID uint, newUnreadCnt int64) error {
	membership, ok := m.store.memberships[memberKey{chatID: chatID, userID: userID}]
	if !ok {
		return nil
	}
	// Stale advance is a silent no-op.
	if membership.CheckedLastMessageID > newLastID {
		return nil
	}
	membership.CheckedLastMessageID = newLastID
	membership.NotReadMsgCnt = newUnreadCnt
	return nil
}

func (m *MockMembershipRepository) BumpUnread(tx *gorm.DB, chatID, excludingUserID uint, delta int) error {
	if m.failBumpUnread != nil {
		return m.failBumpUnread
	}
	for key, membership := range m.store.memberships {
		if key.chatID == chatID && key.userID != excludingUserID {
			membership.NotReadMsgCnt += int64(delta)
		}
	}
	return nil
}

// MockChatRepository implements repository.ChatRepositoryInterface.
type MockChatRepository struct {
	store             *mockStore
	failUpdatePreview error
}

func (m *MockChatRepository) Create(tx *gorm.DB, chat *models.Chat) error {
	if chat.ID == 0 {
		chat.ID = m.store.nextChatID
		m.store.nextChatID++
	}
	chat.CreatedAt = time.Now()
	stored := *chat
	m.store.chats[chat.ID] = &stored
	return nil
}

func (m *MockChatRepository) FindByID(id uint) (*models.Chat, error) {
	if chat, ok := m.store.chats[id]; ok {
		copied := *chat
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockChatRepository) LockForUpdate(tx *gorm.DB, chatID uint) (*models.Chat, error) {
	return m.FindByID(chatID)
}

func (m *MockChatRepository) UpdatePreview(tx *gorm.DB, chatID uint, body string, msgType models.MessageType) error {
	if m.failUpdatePreview != nil {
		return m.failUpdatePreview
	}
	chat, ok := m.store.chats[chatID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	chat.LastMsg = body
	chat.LastMsgType = msgType
	return nil
}

// MockUserRepository implements repository.UserRepositoryInterface.
type MockUserRepository struct {
	store *mockStore
}

func (m *MockUserRepository) Create(user *models.User) error {
	m.store.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) FindByID(id uint) (*models.User, error) {
	if user, ok := m.store.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepository) ExistAll(ids []uint) (bool, error) {
	for _, id := range ids {
		if _, ok := m.store.users[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// fixture bundles the services and mocks wired over one shared store.
type fixture struct {
	store          *mockStore
	tx             *mockTxRunner
	messageRepo    *MockMessageRepository
	membershipRepo *MockMembershipRepository
	chatRepo       *MockChatRepository
	userRepo       *MockUserRepository

	chats       *ChatService
	coordinator *SendCoordinator
	tracker     *ReadTracker
}

func newFixture() *fixture {
	store := newMockStore()
	f := &fixture{
		store:          store,
		tx:             &mockTxRunner{store: store},
		messageRepo:    &MockMessageRepository{store: store},
		membershipRepo: &MockMembershipRepository{store: store},
		chatRepo:       &MockChatRepository{store: store},
		userRepo:       &MockUserRepository{store: store},
	}
	f.chats = NewChatService(f.tx, f.chatRepo, f.membershipRepo, f.userRepo)
	f.coordinator = NewSendCoordinator(f.tx, f.chatRepo, f.messageRepo, f.membershipRepo)
	f.tracker = NewReadTracker(f.tx, f.messageRepo, f.membershipRepo)
	return f
}

func (f *fixture) addUsers(ids ...uint) {
	for _, id := range ids {
		f.store.users[id] = &models.User{ID: id}
	}
}

// newChatFixture creates one chat with the given members, creator first.
func (f *fixture) newChat(members ...uint) *models.Chat {
	f.addUsers(members...)
	chat, err := f.chats.CreateChat("test chat", members[0], members[1:])
	if err != nil {
		panic(err)
	}
	return chat
}

// send appends a message through the coordinator and fails the test setup
// loudly if it cannot.
func (f *fixture) send(chatID, senderID uint, body string) *models.Message {
	msg, err := f.coordinator.Send(chatID, senderID, SendMessageInput{Body: body})
	if err != nil {
		panic(err)
	}
	return msg
}

func (f *fixture) membership(chatID, userID uint) *models.Membership {
	return f.store.memberships[memberKey{chatID: chatID, userID: userID}]
}

func (f *fixture) message(id uint) *models.Message {
	return f.store.messages[id]
}
