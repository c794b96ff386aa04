package repository

import (
	"context"

	"homexa/internal/domain/entity"
)

type ChatRepository interface {
	// Create inserts a new chat. A duplicate (product, customer) pair
	// surfaces as a CONFLICT error so callers can re-fetch and proceed.
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, chatID string) (*entity.Chat, error)
	GetByProductAndUser(ctx context.Context, productID, userID string) (*entity.Chat, error)
	ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error)
	SoftDeleteChat(ctx context.Context, chatID, userID string) error

	// Message methods
	CreateMessage(ctx context.Context, message *entity.Message) error
	ListMessages(ctx context.Context, chatID, viewerID string) ([]*entity.Message, error)
	LatestMessage(ctx context.Context, chatID, viewerID string) (*entity.Message, error)
	UnreadCount(ctx context.Context, chatID, userID string) (int64, error)
	MarkMessagesAsRead(ctx context.Context, chatID, readerID string) error
	// DeleteMessage enforces the sender-only rule when deleteForAll is set
	// and returns the affected message (chat and sender ids populated).
	DeleteMessage(ctx context.Context, messageID, requesterID string, deleteForAll bool) (*entity.Message, error)

	// Attachment methods
	AddAttachments(ctx context.Context, messageID string, attachments []entity.MessageAttachment) error
	GetAttachmentsByMessageID(ctx context.Context, messageID string) ([]entity.MessageAttachment, error)
}
