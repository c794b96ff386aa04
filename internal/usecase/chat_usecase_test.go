package usecase

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homexa/internal/domain/entity"
	apperrors "homexa/pkg/errors"
)

// fakeChatRepo is an in-memory ChatRepository with the same visibility and
// ordering semantics as the MySQL implementation.
type fakeChatRepo struct {
	chats       map[string]*entity.Chat
	messages    map[string]*entity.Message
	attachments map[string][]entity.MessageAttachment
	seq         int
	base        time.Time

	// conflictOnCreate simulates a rival request winning the unique index
	// race: Create commits the rival's chat and reports a conflict.
	conflictOnCreate bool
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		chats:       make(map[string]*entity.Chat),
		messages:    make(map[string]*entity.Message),
		attachments: make(map[string][]entity.MessageAttachment),
		base:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (r *fakeChatRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *fakeChatRepo) nextTime() time.Time {
	r.seq++
	return r.base.Add(time.Duration(r.seq) * time.Second)
}

func (r *fakeChatRepo) Create(ctx context.Context, chat *entity.Chat) error {
	if r.conflictOnCreate {
		r.conflictOnCreate = false
		rival := &entity.Chat{
			ID:         r.nextID("chat"),
			ProductID:  chat.ProductID,
			CustomerID: chat.CustomerID,
			SellerID:   chat.SellerID,
			CreatedAt:  r.nextTime(),
		}
		rival.UpdatedAt = rival.CreatedAt
		r.chats[rival.ID] = rival
		return apperrors.Conflict("Chat already exists for this product and customer", nil)
	}

	chat.ID = r.nextID("chat")
	chat.CreatedAt = r.nextTime()
	chat.UpdatedAt = chat.CreatedAt
	r.chats[chat.ID] = chat
	return nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, chatID string) (*entity.Chat, error) {
	chat, ok := r.chats[chatID]
	if !ok {
		return nil, apperrors.NotFound("Chat", nil)
	}
	return chat, nil
}

func (r *fakeChatRepo) GetByProductAndUser(ctx context.Context, productID, userID string) (*entity.Chat, error) {
	for _, chat := range r.chats {
		if chat.ProductID == productID && chat.IsParticipant(userID) {
			return chat, nil
		}
	}
	return nil, apperrors.NotFound("Chat", nil)
}

func (r *fakeChatRepo) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	var chats []*entity.Chat
	for _, chat := range r.chats {
		if chat.IsParticipant(userID) {
			chats = append(chats, chat)
		}
	}
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	return chats, nil
}

func (r *fakeChatRepo) SoftDeleteChat(ctx context.Context, chatID, userID string) error {
	chat, ok := r.chats[chatID]
	if !ok {
		return apperrors.NotFound("Chat", nil)
	}
	chat.DeletedFor = chat.DeletedFor.Append(userID)
	return nil
}

func (r *fakeChatRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	message.ID = r.nextID("msg")
	message.CreatedAt = r.nextTime()
	r.messages[message.ID] = message
	if chat, ok := r.chats[message.ChatID]; ok {
		chat.UpdatedAt = message.CreatedAt
	}
	return nil
}

func (r *fakeChatRepo) visibleMessages(chatID, viewerID string) []*entity.Message {
	var messages []*entity.Message
	for _, m := range r.messages {
		if m.ChatID == chatID && !m.DeletedForUser(viewerID) {
			messages = append(messages, m)
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
	return messages
}

func (r *fakeChatRepo) ListMessages(ctx context.Context, chatID, viewerID string) ([]*entity.Message, error) {
	messages := r.visibleMessages(chatID, viewerID)
	for _, m := range messages {
		m.Attachments = r.attachments[m.ID]
	}
	return messages, nil
}

func (r *fakeChatRepo) LatestMessage(ctx context.Context, chatID, viewerID string) (*entity.Message, error) {
	messages := r.visibleMessages(chatID, viewerID)
	if len(messages) == 0 {
		return nil, nil
	}
	return messages[0], nil
}

func (r *fakeChatRepo) UnreadCount(ctx context.Context, chatID, userID string) (int64, error) {
	var count int64
	for _, m := range r.visibleMessages(chatID, userID) {
		if m.SenderID != userID && !m.IsRead() {
			count++
		}
	}
	return count, nil
}

func (r *fakeChatRepo) MarkMessagesAsRead(ctx context.Context, chatID, readerID string) error {
	now := r.nextTime()
	for _, m := range r.messages {
		if m.ChatID == chatID && m.SenderID != readerID && !m.IsRead() {
			readAt := now
			m.ReadAt = &readAt
		}
	}
	return nil
}

func (r *fakeChatRepo) DeleteMessage(ctx context.Context, messageID, requesterID string, deleteForAll bool) (*entity.Message, error) {
	message, ok := r.messages[messageID]
	if !ok {
		return nil, apperrors.NotFound("Message", nil)
	}

	if deleteForAll {
		if message.SenderID != requesterID {
			return nil, apperrors.Forbidden("Only the sender can delete a message for everyone", nil)
		}
		delete(r.attachments, messageID)
		delete(r.messages, messageID)
		return message, nil
	}

	message.DeletedFor = message.DeletedFor.Append(requesterID)
	return message, nil
}

func (r *fakeChatRepo) AddAttachments(ctx context.Context, messageID string, attachments []entity.MessageAttachment) error {
	for i := range attachments {
		attachments[i].ID = r.nextID("att")
		attachments[i].MessageID = messageID
	}
	r.attachments[messageID] = append(r.attachments[messageID], attachments...)
	return nil
}

func (r *fakeChatRepo) GetAttachmentsByMessageID(ctx context.Context, messageID string) ([]entity.MessageAttachment, error) {
	return r.attachments[messageID], nil
}

type fakeUserRepo struct {
	users map[string]*entity.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("User", nil)
	}
	return user, nil
}

type fakeProductRepo struct {
	products map[string]*entity.Product
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	product, ok := r.products[id]
	if !ok {
		return nil, apperrors.NotFound("Product", nil)
	}
	return product, nil
}

type emittedEvent struct {
	UserID  string
	Event   string
	Payload interface{}
}

type recordingEmitter struct {
	events []emittedEvent
}

func (e *recordingEmitter) EmitToUser(userID, event string, payload interface{}) {
	e.events = append(e.events, emittedEvent{UserID: userID, Event: event, Payload: payload})
}

func (e *recordingEmitter) eventsFor(userID, event string) []emittedEvent {
	var matched []emittedEvent
	for _, ev := range e.events {
		if ev.UserID == userID && ev.Event == event {
			matched = append(matched, ev)
		}
	}
	return matched
}

type stubFileStore struct {
	removed []string
}

func (s *stubFileStore) Remove(fileURL string) error {
	s.removed = append(s.removed, fileURL)
	return nil
}

type chatTestEnv struct {
	uc       *ChatUseCase
	chatRepo *fakeChatRepo
	emitter  *recordingEmitter
	files    *stubFileStore
}

const (
	buyerID  = "user-buyer"
	sellerID = "user-seller"
	otherID  = "user-other"
	prodID   = "product-1"
)

func newChatTestEnv() *chatTestEnv {
	chatRepo := newFakeChatRepo()
	userRepo := &fakeUserRepo{users: map[string]*entity.User{
		buyerID:  {ID: buyerID, Email: "bima@example.com", FirstName: "Bima", LastName: "Putra"},
		sellerID: {ID: sellerID, Email: "sari@example.com", FirstName: "Sari", LastName: "Dewi"},
		otherID:  {ID: otherID, Email: "eka@example.com", FirstName: "Eka", LastName: "Wijaya"},
	}}
	productRepo := &fakeProductRepo{products: map[string]*entity.Product{
		prodID: {
			ID:       prodID,
			SellerID: sellerID,
			Name:     "Rattan Chair",
			Price:    450000,
			Slug:     "rattan-chair",
			Images:   entity.StringList{"/uploads/products/chair.jpg"},
		},
	}}
	emitter := &recordingEmitter{}
	files := &stubFileStore{}

	return &chatTestEnv{
		uc:       NewChatUseCase(chatRepo, userRepo, productRepo, emitter, files),
		chatRepo: chatRepo,
		emitter:  emitter,
		files:    files,
	}
}

func (env *chatTestEnv) sendText(t *testing.T, senderID, content string) *SentMessage {
	t.Helper()
	sent, err := env.uc.SendMessage(context.Background(), SendMessageInput{
		ProductID: prodID,
		SenderID:  senderID,
		Content:   content,
	})
	require.NoError(t, err)
	return sent
}

func TestSendMessageFirstContactCreatesChat(t *testing.T) {
	env := newChatTestEnv()

	sent := env.sendText(t, buyerID, "Is this still available?")

	assert.NotEmpty(t, sent.ID)
	assert.NotEmpty(t, sent.ChatID)
	assert.Equal(t, buyerID, sent.SenderID)
	assert.Equal(t, "Is this still available?", sent.Content)

	chat, err := env.chatRepo.GetByID(context.Background(), sent.ChatID)
	require.NoError(t, err)
	assert.Equal(t, buyerID, chat.CustomerID)
	assert.Equal(t, sellerID, chat.SellerID)
	assert.Equal(t, prodID, chat.ProductID)

	newMessages := env.emitter.eventsFor(sellerID, "new_message")
	require.Len(t, newMessages, 1)
	payload := newMessages[0].Payload.(map[string]interface{})
	assert.Equal(t, sent.ChatID, payload["chatId"])
	messagePayload := payload["message"].(map[string]interface{})
	assert.Equal(t, "Bima Putra", messagePayload["senderName"])
	assert.Equal(t, false, messagePayload["isRead"])
	summaryPayload := payload["chatSummary"].(map[string]interface{})
	assert.Equal(t, int64(1), summaryPayload["unreadCount"])

	newChats := env.emitter.eventsFor(sellerID, "new_chat")
	require.Len(t, newChats, 1)
	chatPayload := newChats[0].Payload.(map[string]interface{})
	assert.Equal(t, buyerID, chatPayload["customerId"])
	assert.Equal(t, sellerID, chatPayload["sellerId"])

	senderUpdates := env.emitter.eventsFor(buyerID, "chat_list_update")
	require.Len(t, senderUpdates, 1)
	senderPayload := senderUpdates[0].Payload.(map[string]interface{})
	assert.Equal(t, 0, senderPayload["unreadCount"])
}

func TestSendMessageReusesExistingChat(t *testing.T) {
	env := newChatTestEnv()

	first := env.sendText(t, buyerID, "Hello")
	second := env.sendText(t, buyerID, "Still there?")

	assert.Equal(t, first.ChatID, second.ChatID)
	// Only the very first message announces a new chat.
	assert.Len(t, env.emitter.eventsFor(sellerID, "new_chat"), 1)
}

func TestSendMessageSellerCannotColdStart(t *testing.T) {
	env := newChatTestEnv()

	_, err := env.uc.SendMessage(context.Background(), SendMessageInput{
		ProductID: prodID,
		SenderID:  sellerID,
		Content:   "Buy my chair",
	})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "OPERATION_NOT_ALLOWED"))
	assert.Empty(t, env.chatRepo.chats)
}

func TestSendMessageSellerCanReplyInExistingChat(t *testing.T) {
	env := newChatTestEnv()

	sent := env.sendText(t, buyerID, "Hello")

	reply, err := env.uc.SendMessage(context.Background(), SendMessageInput{
		ChatID:   sent.ChatID,
		SenderID: sellerID,
		Content:  "Yes, it is available",
	})
	require.NoError(t, err)
	assert.Equal(t, sent.ChatID, reply.ChatID)
}

func TestSendMessageRequiresIdentifier(t *testing.T) {
	env := newChatTestEnv()

	_, err := env.uc.SendMessage(context.Background(), SendMessageInput{
		SenderID: buyerID,
		Content:  "Hello",
	})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "BAD_REQUEST"))
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	env := newChatTestEnv()
	sent := env.sendText(t, buyerID, "Hello")

	_, err := env.uc.SendMessage(context.Background(), SendMessageInput{
		ChatID:   sent.ChatID,
		SenderID: otherID,
		Content:  "Let me in",
	})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "FORBIDDEN"))
}

func TestSendMessageUnknownProduct(t *testing.T) {
	env := newChatTestEnv()

	_, err := env.uc.SendMessage(context.Background(), SendMessageInput{
		ProductID: "product-missing",
		SenderID:  buyerID,
		Content:   "Hello",
	})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
}

func TestSendMessageChatCreationRace(t *testing.T) {
	env := newChatTestEnv()
	env.chatRepo.conflictOnCreate = true

	sent := env.sendText(t, buyerID, "First!")

	// The rival's chat won; the message must land there and no second chat
	// may exist.
	assert.Len(t, env.chatRepo.chats, 1)
	chat, err := env.chatRepo.GetByID(context.Background(), sent.ChatID)
	require.NoError(t, err)
	assert.Equal(t, buyerID, chat.CustomerID)
	assert.Empty(t, env.emitter.eventsFor(sellerID, "new_chat"))
}

func TestSendMessageWithAttachments(t *testing.T) {
	env := newChatTestEnv()

	sent, err := env.uc.SendMessage(context.Background(), SendMessageInput{
		ProductID: prodID,
		SenderID:  buyerID,
		Content:   "Photo attached",
		Attachments: []AttachmentInput{
			{URL: "/uploads/attachments/123_chair.jpg", Type: "image/jpeg"},
		},
	})
	require.NoError(t, err)

	require.Len(t, sent.Attachments, 1)
	assert.Equal(t, "/uploads/attachments/123_chair.jpg", sent.Attachments[0].FileURL)
	assert.Equal(t, "image/jpeg", sent.Attachments[0].FileType)

	newMessages := env.emitter.eventsFor(sellerID, "new_message")
	require.Len(t, newMessages, 1)
	messagePayload := newMessages[0].Payload.(map[string]interface{})["message"].(map[string]interface{})
	attachments := messagePayload["attachments"].([]AttachmentView)
	require.Len(t, attachments, 1)
	assert.Equal(t, "image/jpeg", attachments[0].FileType)
}

func TestAttachmentsRoundTripThroughChatDetail(t *testing.T) {
	env := newChatTestEnv()

	sent, err := env.uc.SendMessage(context.Background(), SendMessageInput{
		ProductID: prodID,
		SenderID:  buyerID,
		Content:   "Two photos",
		Attachments: []AttachmentInput{
			{URL: "/uploads/attachments/1_front.jpg", Type: "image/jpeg"},
			{URL: "/uploads/attachments/2_back.png", Type: "image/png"},
		},
	})
	require.NoError(t, err)

	detail, err := env.uc.GetChatByID(context.Background(), GetChatInput{ChatID: sent.ChatID}, sellerID)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 1)

	attachments := detail.Messages[0].Attachments
	require.Len(t, attachments, 2)
	urls := map[string]string{}
	for _, att := range attachments {
		assert.Equal(t, sent.ID, att.MessageID)
		urls[att.FileURL] = att.FileType
	}
	assert.Equal(t, "image/jpeg", urls["/uploads/attachments/1_front.jpg"])
	assert.Equal(t, "image/png", urls["/uploads/attachments/2_back.png"])
}

func TestGetChatByIDMarksMessagesRead(t *testing.T) {
	env := newChatTestEnv()
	sent := env.sendText(t, buyerID, "Hello")

	detail, err := env.uc.GetChatByID(context.Background(), GetChatInput{ChatID: sent.ChatID}, sellerID)
	require.NoError(t, err)

	assert.Equal(t, int64(0), detail.UnreadCount)
	require.Len(t, detail.Messages, 1)
	assert.Equal(t, "Bima Putra", detail.Messages[0].SenderName)
	assert.True(t, detail.Messages[0].IsRead)
	assert.Equal(t, prodID, detail.Messages[0].ProductID)

	reads := env.emitter.eventsFor(buyerID, "messages_read")
	require.Len(t, reads, 1)
	payload := reads[0].Payload.(map[string]interface{})
	assert.Equal(t, sent.ChatID, payload["chatId"])
	assert.Equal(t, sellerID, payload["readerId"])
}

func TestGetChatByIDResolvesByProduct(t *testing.T) {
	env := newChatTestEnv()
	sent := env.sendText(t, buyerID, "Hello")

	detail, err := env.uc.GetChatByID(context.Background(), GetChatInput{ProductID: prodID}, buyerID)
	require.NoError(t, err)
	assert.Equal(t, sent.ChatID, detail.ID)
	// The buyer sees their own message labelled as theirs.
	require.Len(t, detail.Messages, 1)
	assert.Equal(t, "You", detail.Messages[0].SenderName)
}

func TestGetChatByIDRequiresExactlyOneIdentifier(t *testing.T) {
	env := newChatTestEnv()

	_, err := env.uc.GetChatByID(context.Background(), GetChatInput{}, buyerID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "BAD_REQUEST"))

	_, err = env.uc.GetChatByID(context.Background(), GetChatInput{ChatID: "chat-1", ProductID: prodID}, buyerID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "BAD_REQUEST"))
}

func TestGetChatByIDRejectsNonParticipant(t *testing.T) {
	env := newChatTestEnv()
	sent := env.sendText(t, buyerID, "Hello")

	_, err := env.uc.GetChatByID(context.Background(), GetChatInput{ChatID: sent.ChatID}, otherID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "FORBIDDEN"))
}

func TestGetUserChatsSummaries(t *testing.T) {
	env := newChatTestEnv()
	sent := env.sendText(t, buyerID, "Hello")

	// Receiver sees one unread, sender none.
	sellerChats, err := env.uc.GetUserChats(context.Background(), sellerID)
	require.NoError(t, err)
	require.Len(t, sellerChats, 1)
	assert.Equal(t, sent.ChatID, sellerChats[0].ID)
	assert.Equal(t, int64(1), sellerChats[0].UnreadCount)
	assert.Equal(t, buyerID, sellerChats[0].ParticipantID)
	assert.Equal(t, entity.RoleBuyer, sellerChats[0].ParticipantRole)
	assert.Equal(t, "Bima Putra", sellerChats[0].ParticipantName)
	assert.Contains(t, sellerChats[0].ParticipantAvatar, "seed=Bima")
	require.NotNil(t, sellerChats[0].LastMessage)
	assert.Equal(t, "Hello", *sellerChats[0].LastMessage)

	buyerChats, err := env.uc.GetUserChats(context.Background(), buyerID)
	require.NoError(t, err)
	require.Len(t, buyerChats, 1)
	assert.Equal(t, int64(0), buyerChats[0].UnreadCount)
	assert.Equal(t, entity.RoleSeller, buyerChats[0].ParticipantRole)
}

func TestGetMessagesIncludesSenderAvatars(t *testing.T) {
	env := newChatTestEnv()
	sent := env.sendText(t, buyerID, "Hello")

	views, err := env.uc.GetMessages(context.Background(), sent.ChatID, sellerID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].SenderAvatar)
	assert.Contains(t, *views[0].SenderAvatar, "dicebear.com")
}

func TestMarkMessagesAsReadNotifiesEveryCall(t *testing.T) {
	env := newChatTestEnv()
	sent := env.sendText(t, buyerID, "Hello")

	require.NoError(t, env.uc.MarkMessagesAsRead(context.Background(), sent.ChatID, sellerID))
	require.NoError(t, env.uc.MarkMessagesAsRead(context.Background(), sent.ChatID, sellerID))

	// Data converged after the first call but both calls notify.
	assert.Len(t, env.emitter.eventsFor(buyerID, "messages_read"), 2)
	count, err := env.chatRepo.UnreadCount(context.Background(), sent.ChatID, sellerID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestMarkMessagesAsReadRejectsNonParticipant(t *testing.T) {
	env := newChatTestEnv()
	sent := env.sendText(t, buyerID, "Hello")

	err := env.uc.MarkMessagesAsRead(context.Background(), sent.ChatID, otherID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "FORBIDDEN"))
}

func TestDeleteMessageForMeHidesFromCallerOnly(t *testing.T) {
	env := newChatTestEnv()
	sent := env.sendText(t, buyerID, "Hello")

	result, err := env.uc.DeleteMessage(context.Background(), sent.ID, sellerID, false)
	require.NoError(t, err)
	assert.False(t, result.DeleteForAll)

	sellerView, err := env.chatRepo.ListMessages(context.Background(), sent.ChatID, sellerID)
	require.NoError(t, err)
	assert.Empty(t, sellerView)

	buyerView, err := env.chatRepo.ListMessages(context.Background(), sent.ChatID, buyerID)
	require.NoError(t, err)
	assert.Len(t, buyerView, 1)

	assert.Len(t, env.emitter.eventsFor(sellerID, "message_deleted_for_me"), 1)
	assert.Empty(t, env.emitter.eventsFor(buyerID, "message_deleted_for_me"))
}

func TestDeleteMessageForAllSenderOnly(t *testing.T) {
	env := newChatTestEnv()
	sent := env.sendText(t, buyerID, "Hello")

	_, err := env.uc.DeleteMessage(context.Background(), sent.ID, sellerID, true)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "FORBIDDEN"))
}

func TestDeleteMessageForAllRemovesFilesAndNotifiesBoth(t *testing.T) {
	env := newChatTestEnv()

	sent, err := env.uc.SendMessage(context.Background(), SendMessageInput{
		ProductID: prodID,
		SenderID:  buyerID,
		Content:   "Photos",
		Attachments: []AttachmentInput{
			{URL: "/uploads/attachments/1_chair.jpg", Type: "image/jpeg"},
			{URL: "https://cdn.example.com/external.jpg", Type: "image/jpeg"},
		},
	})
	require.NoError(t, err)

	result, err := env.uc.DeleteMessage(context.Background(), sent.ID, buyerID, true)
	require.NoError(t, err)
	assert.True(t, result.DeleteForAll)

	// Only locally stored files are unlinked.
	assert.Equal(t, []string{"/uploads/attachments/1_chair.jpg"}, env.files.removed)

	for _, userID := range []string{buyerID, sellerID} {
		events := env.emitter.eventsFor(userID, "message_deleted_for_all")
		require.Len(t, events, 1, "expected delete event for %s", userID)
		payload := events[0].Payload.(map[string]interface{})
		assert.Equal(t, sent.ID, payload["messageId"])
	}

	remaining, err := env.chatRepo.ListMessages(context.Background(), sent.ChatID, buyerID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestDeleteMessageNotFound(t *testing.T) {
	env := newChatTestEnv()

	_, err := env.uc.DeleteMessage(context.Background(), "msg-missing", buyerID, false)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
}

func TestSoftDeleteChatHidesForCallerOnly(t *testing.T) {
	env := newChatTestEnv()
	sent := env.sendText(t, buyerID, "Hello")

	require.NoError(t, env.uc.SoftDeleteChat(context.Background(), sent.ChatID, buyerID))

	chat, err := env.chatRepo.GetByID(context.Background(), sent.ChatID)
	require.NoError(t, err)
	assert.True(t, chat.DeletedFor.Contains(buyerID))
	assert.False(t, chat.DeletedFor.Contains(sellerID))

	assert.Len(t, env.emitter.eventsFor(buyerID, "chat_deleted"), 1)
	assert.Empty(t, env.emitter.eventsFor(sellerID, "chat_deleted"))
}

func TestSoftDeleteChatRejectsNonParticipant(t *testing.T) {
	env := newChatTestEnv()
	sent := env.sendText(t, buyerID, "Hello")

	err := env.uc.SoftDeleteChat(context.Background(), sent.ChatID, otherID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "FORBIDDEN"))
}

func TestGetChatByIDEmptyConversationPlaceholder(t *testing.T) {
	env := newChatTestEnv()
	sent := env.sendText(t, buyerID, "Hello")

	// Sender hides the only message; their detail view falls back to the
	// placeholder preview.
	_, err := env.uc.DeleteMessage(context.Background(), sent.ID, buyerID, false)
	require.NoError(t, err)

	detail, err := env.uc.GetChatByID(context.Background(), GetChatInput{ChatID: sent.ChatID}, buyerID)
	require.NoError(t, err)
	assert.Empty(t, detail.Messages)
	require.NotNil(t, detail.LastMessage)
	assert.Equal(t, "Start a conversation", *detail.LastMessage)
}

func TestGetUserChatsOrdersByActivity(t *testing.T) {
	env := newChatTestEnv()
	env.chatRepo.chats["chat-old"] = &entity.Chat{
		ID:         "chat-old",
		ProductID:  "product-2",
		CustomerID: buyerID,
		SellerID:   otherID,
		CreatedAt:  env.chatRepo.base.Add(-time.Hour),
		UpdatedAt:  env.chatRepo.base.Add(-time.Hour),
	}

	sent := env.sendText(t, buyerID, "Hello")

	chats, err := env.uc.GetUserChats(context.Background(), buyerID)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, sent.ChatID, chats[0].ID)
	assert.Equal(t, "chat-old", chats[1].ID)
}
