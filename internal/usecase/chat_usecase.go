package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"homexa/internal/domain/entity"
	"homexa/internal/domain/repository"
	ws "homexa/internal/infrastructure/websocket"
	"homexa/pkg/errors"
)

// NotificationEmitter pushes an event into a user's room. Delivery is
// fire-and-forget; the chat flows never wait on it.
type NotificationEmitter interface {
	EmitToUser(userID, event string, payload interface{})
}

// AttachmentStore removes the file behind an attachment URL.
type AttachmentStore interface {
	Remove(fileURL string) error
}

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	emitter     NotificationEmitter
	fileStore   AttachmentStore
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	emitter NotificationEmitter,
	fileStore AttachmentStore,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		productRepo: productRepo,
		emitter:     emitter,
		fileStore:   fileStore,
	}
}

type GetChatInput struct {
	ChatID    string
	ProductID string
}

type AttachmentInput struct {
	URL  string
	Type string
}

type SendMessageInput struct {
	ChatID      string
	ProductID   string
	SenderID    string
	Content     string
	Attachments []AttachmentInput
}

type ChatSummary struct {
	ID                string    `json:"id"`
	ParticipantID     string    `json:"participantId"`
	ParticipantName   string    `json:"participantName"`
	ParticipantRole   string    `json:"participantRole"`
	ParticipantAvatar string    `json:"participantAvatar"`
	LastMessage       *string   `json:"lastMessage"`
	LastMessageTime   time.Time `json:"lastMessageTime"`
	UnreadCount       int64     `json:"unreadCount"`
	ProductID         string    `json:"productId"`
	ProductName       string    `json:"productName"`
	ProductImage      *string   `json:"productImage"`
	ProductPrice      float64   `json:"productPrice"`
	ProductSlug       string    `json:"productSlug"`
}

type ChatDetail struct {
	ChatSummary
	Messages  []*MessageView `json:"messages"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type MessageView struct {
	ID           string           `json:"id"`
	SenderID     string           `json:"senderId"`
	SenderName   string           `json:"senderName"`
	SenderAvatar *string          `json:"senderAvatar,omitempty"`
	Message      string           `json:"message"`
	Timestamp    time.Time        `json:"timestamp"`
	IsRead       bool             `json:"isRead"`
	ProductID    string           `json:"productId,omitempty"`
	Attachments  []AttachmentView `json:"attachments"`
}

type AttachmentView struct {
	ID        string `json:"id"`
	MessageID string `json:"messageId"`
	FileURL   string `json:"fileUrl"`
	FileType  string `json:"fileType"`
}

type SentMessage struct {
	ID          string           `json:"id"`
	ChatID      string           `json:"chatId"`
	SenderID    string           `json:"senderId"`
	Content     string           `json:"content"`
	CreatedAt   time.Time        `json:"createdAt"`
	Attachments []AttachmentView `json:"attachments"`
}

type DeleteMessageResult struct {
	MessageID    string `json:"messageId"`
	DeleteForAll bool   `json:"deleteForAll"`
}

// GetUserChats returns every chat the user takes part in, newest activity
// first, each with counterpart info, unread count and a message preview.
// No side effects.
func (uc *ChatUseCase) GetUserChats(ctx context.Context, userID string) ([]*ChatSummary, error) {
	chats, err := uc.chatRepo.ListByUserID(ctx, userID)
	if err != nil {
		log.Printf("GetUserChats Error: Failed to list chats for user %s: %v", userID, err)
		return nil, err
	}

	summaries := make([]*ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summary, err := uc.buildSummary(ctx, chat, userID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// GetChatByID resolves a chat by its id or by product for the caller, marks
// the caller's unread messages as read (emitting the read notifications),
// and returns the full conversation newest first.
func (uc *ChatUseCase) GetChatByID(ctx context.Context, input GetChatInput, userID string) (*ChatDetail, error) {
	chat, err := uc.resolveChat(ctx, input, userID)
	if err != nil {
		return nil, err
	}

	if !chat.IsParticipant(userID) {
		log.Printf("GetChatByID Error: User %s is not a participant in chat %s", userID, chat.ID)
		return nil, errors.Forbidden("You are not a participant of this chat", nil)
	}

	if err := uc.MarkMessagesAsRead(ctx, chat.ID, userID); err != nil {
		return nil, err
	}

	messages, err := uc.chatRepo.ListMessages(ctx, chat.ID, userID)
	if err != nil {
		log.Printf("GetChatByID Error: Failed to list messages for chat %s: %v", chat.ID, err)
		return nil, err
	}

	summary, err := uc.buildSummary(ctx, chat, userID)
	if err != nil {
		return nil, err
	}
	// The caller just read everything.
	summary.UnreadCount = 0
	if summary.LastMessage == nil {
		starter := "Start a conversation"
		summary.LastMessage = &starter
	}

	views := make([]*MessageView, 0, len(messages))
	for _, message := range messages {
		view := uc.buildMessageView(ctx, chat, message, userID, false)
		view.ProductID = chat.ProductID
		views = append(views, view)
	}

	return &ChatDetail{
		ChatSummary: *summary,
		Messages:    views,
		CreatedAt:   chat.CreatedAt,
		UpdatedAt:   chat.UpdatedAt,
	}, nil
}

// SendMessage persists a message (creating the chat lazily on a customer's
// first contact about a product) and fans out notifications.
func (uc *ChatUseCase) SendMessage(ctx context.Context, input SendMessageInput) (*SentMessage, error) {
	chat, isNewChat, err := uc.resolveOrCreateChat(ctx, input)
	if err != nil {
		return nil, err
	}

	message := &entity.Message{
		ChatID:   chat.ID,
		SenderID: input.SenderID,
		Content:  input.Content,
	}
	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		log.Printf("SendMessage Error: Failed to create message for chat %s: %v", chat.ID, err)
		return nil, err
	}
	if message.ID == "" {
		return nil, errors.Internal("Failed to create message", nil)
	}

	if len(input.Attachments) > 0 {
		attachments := make([]entity.MessageAttachment, 0, len(input.Attachments))
		for _, a := range input.Attachments {
			attachments = append(attachments, entity.MessageAttachment{FileURL: a.URL, FileType: a.Type})
		}
		if err := uc.chatRepo.AddAttachments(ctx, message.ID, attachments); err != nil {
			log.Printf("SendMessage Error: Failed to add attachments for message %s: %v", message.ID, err)
			return nil, err
		}
	}

	attachments, err := uc.chatRepo.GetAttachmentsByMessageID(ctx, message.ID)
	if err != nil {
		log.Printf("SendMessage Error: Failed to load attachments for message %s: %v", message.ID, err)
		return nil, err
	}
	attachmentViews := toAttachmentViews(attachments)

	senderName := ""
	if sender, err := uc.userRepo.GetByID(ctx, input.SenderID); err == nil {
		senderName = sender.FullName()
	} else {
		log.Printf("SendMessage Warning: Sender %s not found: %v", input.SenderID, err)
	}

	receiverID := chat.CounterpartID(input.SenderID)

	receiverUnread, err := uc.chatRepo.UnreadCount(ctx, chat.ID, receiverID)
	if err != nil {
		log.Printf("SendMessage Warning: Failed to count unread for receiver %s: %v", receiverID, err)
		receiverUnread = 1
	}

	uc.emitter.EmitToUser(receiverID, ws.EventNewMessage, map[string]interface{}{
		"chatId": chat.ID,
		"message": map[string]interface{}{
			"id":          message.ID,
			"senderId":    input.SenderID,
			"senderName":  senderName,
			"message":     message.Content,
			"timestamp":   message.CreatedAt,
			"isRead":      false,
			"attachments": attachmentViews,
		},
		"chatSummary": map[string]interface{}{
			"chatId":          chat.ID,
			"lastMessage":     message.Content,
			"lastMessageTime": message.CreatedAt,
			"unreadCount":     receiverUnread,
			"productId":       chat.ProductID,
		},
	})

	uc.emitter.EmitToUser(input.SenderID, ws.EventChatListUpdate, map[string]interface{}{
		"chatId":          chat.ID,
		"lastMessage":     message.Content,
		"lastMessageTime": message.CreatedAt,
		"unreadCount":     0,
	})

	if isNewChat {
		uc.emitter.EmitToUser(receiverID, ws.EventNewChat, map[string]interface{}{
			"chatId":     chat.ID,
			"productId":  chat.ProductID,
			"customerId": chat.CustomerID,
			"sellerId":   chat.SellerID,
		})
	}

	return &SentMessage{
		ID:          message.ID,
		ChatID:      chat.ID,
		SenderID:    message.SenderID,
		Content:     message.Content,
		CreatedAt:   message.CreatedAt,
		Attachments: attachmentViews,
	}, nil
}

// GetMessages returns the caller's view of a conversation, newest first,
// marking unread messages as read on the way.
func (uc *ChatUseCase) GetMessages(ctx context.Context, chatID, userID string) ([]*MessageView, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		log.Printf("GetMessages Error: Chat %s not found: %v", chatID, err)
		return nil, err
	}

	if !chat.IsParticipant(userID) {
		log.Printf("GetMessages Error: User %s is not a participant in chat %s", userID, chatID)
		return nil, errors.Forbidden("You are not a participant of this chat", nil)
	}

	if err := uc.MarkMessagesAsRead(ctx, chatID, userID); err != nil {
		return nil, err
	}

	messages, err := uc.chatRepo.ListMessages(ctx, chatID, userID)
	if err != nil {
		log.Printf("GetMessages Error: Failed to list messages for chat %s: %v", chatID, err)
		return nil, err
	}

	views := make([]*MessageView, 0, len(messages))
	for _, message := range messages {
		views = append(views, uc.buildMessageView(ctx, chat, message, userID, true))
	}

	return views, nil
}

// MarkMessagesAsRead sets readAt on every unread message the caller did not
// send and notifies both sides. Idempotent on data: a second call changes no
// rows, but the notifications still go out.
func (uc *ChatUseCase) MarkMessagesAsRead(ctx context.Context, chatID, userID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		log.Printf("MarkMessagesAsRead Error: Chat %s not found: %v", chatID, err)
		return err
	}

	if !chat.IsParticipant(userID) {
		log.Printf("MarkMessagesAsRead Error: User %s is not a participant in chat %s", userID, chatID)
		return errors.Forbidden("You are not a participant of this chat", nil)
	}

	if err := uc.chatRepo.MarkMessagesAsRead(ctx, chatID, userID); err != nil {
		log.Printf("MarkMessagesAsRead Error: Failed to mark messages read in chat %s: %v", chatID, err)
		return err
	}

	otherID := chat.CounterpartID(userID)

	uc.emitter.EmitToUser(otherID, ws.EventMessagesRead, map[string]interface{}{
		"chatId":   chatID,
		"readerId": userID,
	})
	uc.emitter.EmitToUser(otherID, ws.EventChatListUpdate, map[string]interface{}{
		"chatId":      chatID,
		"unreadCount": 0,
	})
	uc.emitter.EmitToUser(userID, ws.EventChatListUpdate, map[string]interface{}{
		"chatId":      chatID,
		"unreadCount": 0,
	})

	return nil
}

// DeleteMessage removes a message for the caller only, or - sender only -
// for everyone. Hard delete cascades to attachments and unlinks their files
// best-effort.
func (uc *ChatUseCase) DeleteMessage(ctx context.Context, messageID, userID string, deleteForAll bool) (*DeleteMessageResult, error) {
	// Attachments must be read before the delete cascades them away.
	attachments, err := uc.chatRepo.GetAttachmentsByMessageID(ctx, messageID)
	if err != nil {
		log.Printf("DeleteMessage Error: Failed to load attachments for message %s: %v", messageID, err)
		return nil, err
	}

	deleted, err := uc.chatRepo.DeleteMessage(ctx, messageID, userID, deleteForAll)
	if err != nil {
		return nil, err
	}

	if deleteForAll {
		for _, att := range attachments {
			if !strings.HasPrefix(att.FileURL, "/uploads/") {
				continue
			}
			if err := uc.fileStore.Remove(att.FileURL); err != nil {
				log.Printf("DeleteMessage Warning: Failed to delete attachment file %s: %v", att.FileURL, err)
			}
		}

		chat, err := uc.chatRepo.GetByID(ctx, deleted.ChatID)
		if err != nil {
			log.Printf("DeleteMessage Warning: Chat %s not found for delete notification: %v", deleted.ChatID, err)
		} else {
			payload := map[string]interface{}{
				"messageId": messageID,
				"chatId":    deleted.ChatID,
			}
			uc.emitter.EmitToUser(chat.CustomerID, ws.EventMessageDeletedForAll, payload)
			uc.emitter.EmitToUser(chat.SellerID, ws.EventMessageDeletedForAll, payload)
		}
	} else {
		uc.emitter.EmitToUser(userID, ws.EventMessageDeletedForMe, map[string]interface{}{
			"messageId": messageID,
			"chatId":    deleted.ChatID,
		})
	}

	return &DeleteMessageResult{MessageID: messageID, DeleteForAll: deleteForAll}, nil
}

// SoftDeleteChat hides the chat from the caller's own view. The other
// participant keeps seeing it, and no messages are touched.
func (uc *ChatUseCase) SoftDeleteChat(ctx context.Context, chatID, userID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		log.Printf("SoftDeleteChat Error: Chat %s not found: %v", chatID, err)
		return err
	}

	if !chat.IsParticipant(userID) {
		log.Printf("SoftDeleteChat Error: User %s is not a participant in chat %s", userID, chatID)
		return errors.Forbidden("You are not a participant of this chat", nil)
	}

	if err := uc.chatRepo.SoftDeleteChat(ctx, chatID, userID); err != nil {
		log.Printf("SoftDeleteChat Error: Failed to soft delete chat %s: %v", chatID, err)
		return err
	}

	uc.emitter.EmitToUser(userID, ws.EventChatDeleted, map[string]interface{}{
		"chatId": chatID,
	})

	return nil
}

func (uc *ChatUseCase) resolveChat(ctx context.Context, input GetChatInput, userID string) (*entity.Chat, error) {
	if (input.ChatID == "") == (input.ProductID == "") {
		return nil, errors.BadRequest("Either chatId or productId is required", nil)
	}

	if input.ChatID != "" {
		return uc.chatRepo.GetByID(ctx, input.ChatID)
	}
	return uc.chatRepo.GetByProductAndUser(ctx, input.ProductID, userID)
}

// resolveOrCreateChat finds the chat a message belongs to, creating it on a
// customer's first contact about a product. A duplicate-key conflict from a
// racing first message re-fetches the winner instead of failing.
func (uc *ChatUseCase) resolveOrCreateChat(ctx context.Context, input SendMessageInput) (*entity.Chat, bool, error) {
	if input.ChatID != "" {
		chat, err := uc.chatRepo.GetByID(ctx, input.ChatID)
		if err != nil {
			log.Printf("SendMessage Error: Chat %s not found: %v", input.ChatID, err)
			return nil, false, err
		}
		if !chat.IsParticipant(input.SenderID) {
			log.Printf("SendMessage Error: User %s is not a participant in chat %s", input.SenderID, input.ChatID)
			return nil, false, errors.Forbidden("You are not a participant of this chat", nil)
		}
		return chat, false, nil
	}

	if input.ProductID == "" {
		return nil, false, errors.BadRequest("Either chatId or productId is required", nil)
	}

	existing, err := uc.chatRepo.GetByProductAndUser(ctx, input.ProductID, input.SenderID)
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		log.Printf("SendMessage Error: Product %s not found: %v", input.ProductID, err)
		return nil, false, err
	}

	if input.SenderID == product.SellerID {
		log.Printf("SendMessage Error: Seller %s attempted to cold-start chat for product %s", input.SenderID, input.ProductID)
		return nil, false, errors.OperationNotAllowed("Seller cannot initiate chat. Customer must message first.", nil)
	}

	chat := &entity.Chat{
		ProductID:  input.ProductID,
		CustomerID: input.SenderID,
		SellerID:   product.SellerID,
	}
	if err := uc.chatRepo.Create(ctx, chat); err != nil {
		if errors.Is(err, "CONFLICT") {
			log.Printf("SendMessage: Chat creation raced for product %s and user %s, reusing winner", input.ProductID, input.SenderID)
			winner, err := uc.chatRepo.GetByProductAndUser(ctx, input.ProductID, input.SenderID)
			if err != nil {
				return nil, false, err
			}
			return winner, false, nil
		}
		log.Printf("SendMessage Error: Failed to create chat for product %s: %v", input.ProductID, err)
		return nil, false, err
	}

	return chat, true, nil
}

func (uc *ChatUseCase) buildSummary(ctx context.Context, chat *entity.Chat, userID string) (*ChatSummary, error) {
	participant := uc.resolveUser(ctx, chat.CounterpartUser(userID), chat.CounterpartID(userID))

	latest, err := uc.chatRepo.LatestMessage(ctx, chat.ID, userID)
	if err != nil {
		log.Printf("Chat Error: Failed to load latest message for chat %s: %v", chat.ID, err)
		return nil, err
	}

	unread, err := uc.chatRepo.UnreadCount(ctx, chat.ID, userID)
	if err != nil {
		log.Printf("Chat Error: Failed to count unread for chat %s: %v", chat.ID, err)
		return nil, err
	}

	summary := &ChatSummary{
		ID:              chat.ID,
		ParticipantID:   chat.CounterpartID(userID),
		ParticipantRole: chat.CounterpartRole(userID),
		LastMessageTime: chat.CreatedAt,
		UnreadCount:     unread,
		ProductID:       chat.ProductID,
	}

	if participant != nil {
		summary.ParticipantName = participant.FullName()
		summary.ParticipantAvatar = avatarURL(participant.FirstName)
	}

	if latest != nil {
		content := latest.Content
		summary.LastMessage = &content
		summary.LastMessageTime = latest.CreatedAt
	}

	if chat.Product != nil {
		summary.ProductName = chat.Product.Name
		summary.ProductImage = chat.Product.FirstImage()
		summary.ProductPrice = chat.Product.Price
		summary.ProductSlug = chat.Product.Slug
	}

	return summary, nil
}

func (uc *ChatUseCase) buildMessageView(ctx context.Context, chat *entity.Chat, message *entity.Message, userID string, withAvatar bool) *MessageView {
	view := &MessageView{
		ID:          message.ID,
		SenderID:    message.SenderID,
		Message:     message.Content,
		Timestamp:   message.CreatedAt,
		IsRead:      message.IsRead(),
		Attachments: toAttachmentViews(message.Attachments),
	}

	if message.SenderID == userID {
		view.SenderName = "You"
		return view
	}

	var sender *entity.User
	if message.SenderID == chat.SellerID {
		sender = uc.resolveUser(ctx, chat.Seller, chat.SellerID)
	} else {
		sender = uc.resolveUser(ctx, chat.Customer, chat.CustomerID)
	}
	if sender != nil {
		view.SenderName = sender.FullName()
		if withAvatar {
			avatar := avatarURL(sender.FirstName)
			view.SenderAvatar = &avatar
		}
	}

	return view
}

// resolveUser prefers the preloaded association and falls back to a lookup.
func (uc *ChatUseCase) resolveUser(ctx context.Context, preloaded *entity.User, userID string) *entity.User {
	if preloaded != nil {
		return preloaded
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Printf("Chat Warning: User %s not found: %v", userID, err)
		return nil
	}
	return user
}

func toAttachmentViews(attachments []entity.MessageAttachment) []AttachmentView {
	views := make([]AttachmentView, 0, len(attachments))
	for _, att := range attachments {
		views = append(views, AttachmentView{
			ID:        att.ID,
			MessageID: att.MessageID,
			FileURL:   att.FileURL,
			FileType:  att.FileType,
		})
	}
	return views
}

func avatarURL(seed string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", seed)
}
