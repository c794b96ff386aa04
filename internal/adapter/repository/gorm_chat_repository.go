package repository

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"homexa/internal/domain/entity"
	"homexa/internal/domain/repository"
	apperrors "homexa/pkg/errors"
)

// notDeletedFor filters out rows the given user has soft-deleted. The
// deleted_for column holds a JSON array of user ids.
const notDeletedFor = "(deleted_for IS NULL OR NOT JSON_CONTAINS(deleted_for, JSON_QUOTE(?)))"

const mysqlDuplicateEntry = 1062

type gormChatRepository struct {
	db *gorm.DB
}

func NewGormChatRepository(db *gorm.DB) repository.ChatRepository {
	return &gormChatRepository{db: db}
}

func (r *gormChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}

	if err := r.db.WithContext(ctx).Create(chat).Error; err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return apperrors.Conflict("Chat already exists for this product and customer", err)
		}
		return apperrors.Internal("Failed to create chat", err)
	}

	return nil
}

func (r *gormChatRepository) GetByID(ctx context.Context, chatID string) (*entity.Chat, error) {
	var chat entity.Chat
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Customer").
		Preload("Seller").
		First(&chat, "id = ?", chatID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Chat", err)
		}
		return nil, apperrors.Internal("Failed to get chat", err)
	}
	return &chat, nil
}

func (r *gormChatRepository) GetByProductAndUser(ctx context.Context, productID, userID string) (*entity.Chat, error) {
	var chat entity.Chat
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Customer").
		Preload("Seller").
		Where("product_id = ? AND (customer_id = ? OR seller_id = ?)", productID, userID, userID).
		First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Chat", err)
		}
		return nil, apperrors.Internal("Failed to get chat by product", err)
	}
	return &chat, nil
}

func (r *gormChatRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	var chats []*entity.Chat
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Customer").
		Preload("Seller").
		Where("customer_id = ? OR seller_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, apperrors.Internal("Failed to list chats", err)
	}
	return chats, nil
}

func (r *gormChatRepository) SoftDeleteChat(ctx context.Context, chatID, userID string) error {
	var chat entity.Chat
	if err := r.db.WithContext(ctx).First(&chat, "id = ?", chatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Chat", err)
		}
		return apperrors.Internal("Failed to get chat", err)
	}

	chat.DeletedFor = chat.DeletedFor.Append(userID)
	err := r.db.WithContext(ctx).Model(&chat).Update("deleted_for", chat.DeletedFor).Error
	if err != nil {
		return apperrors.Internal("Failed to soft delete chat", err)
	}
	return nil
}

func (r *gormChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return apperrors.Internal("Failed to create message", err)
	}

	// Bump the chat so the conversation sorts first in the owner lists.
	err := r.db.WithContext(ctx).Model(&entity.Chat{}).
		Where("id = ?", message.ChatID).
		Update("updated_at", time.Now()).Error
	if err != nil {
		return apperrors.Internal("Failed to touch chat", err)
	}
	return nil
}

func (r *gormChatRepository) ListMessages(ctx context.Context, chatID, viewerID string) ([]*entity.Message, error) {
	var messages []*entity.Message
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("chat_id = ?", chatID).
		Where(notDeletedFor, viewerID).
		Order("created_at DESC").
		Find(&messages).Error
	if err != nil {
		return nil, apperrors.Internal("Failed to list messages", err)
	}
	return messages, nil
}

func (r *gormChatRepository) LatestMessage(ctx context.Context, chatID, viewerID string) (*entity.Message, error) {
	var message entity.Message
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("chat_id = ?", chatID).
		Where(notDeletedFor, viewerID).
		Order("created_at DESC").
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Internal("Failed to get latest message", err)
	}
	return &message, nil
}

func (r *gormChatRepository) UnreadCount(ctx context.Context, chatID, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Message{}).
		Where("chat_id = ? AND sender_id <> ? AND read_at IS NULL", chatID, userID).
		Where(notDeletedFor, userID).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Internal("Failed to count unread messages", err)
	}
	return count, nil
}

func (r *gormChatRepository) MarkMessagesAsRead(ctx context.Context, chatID, readerID string) error {
	err := r.db.WithContext(ctx).Model(&entity.Message{}).
		Where("chat_id = ? AND sender_id <> ? AND read_at IS NULL", chatID, readerID).
		Update("read_at", time.Now()).Error
	if err != nil {
		return apperrors.Internal("Failed to mark messages as read", err)
	}
	return nil
}

func (r *gormChatRepository) DeleteMessage(ctx context.Context, messageID, requesterID string, deleteForAll bool) (*entity.Message, error) {
	var message entity.Message
	err := r.db.WithContext(ctx).First(&message, "id = ?", messageID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Message", err)
		}
		return nil, apperrors.Internal("Failed to get message", err)
	}

	if deleteForAll {
		if message.SenderID != requesterID {
			return nil, apperrors.Forbidden("Only the sender can delete a message for everyone", nil)
		}

		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("message_id = ?", messageID).Delete(&entity.MessageAttachment{}).Error; err != nil {
				return err
			}
			return tx.Delete(&entity.Message{}, "id = ?", messageID).Error
		})
		if err != nil {
			return nil, apperrors.Internal("Failed to delete message", err)
		}
		return &message, nil
	}

	message.DeletedFor = message.DeletedFor.Append(requesterID)
	err = r.db.WithContext(ctx).Model(&message).Update("deleted_for", message.DeletedFor).Error
	if err != nil {
		return nil, apperrors.Internal("Failed to soft delete message", err)
	}
	return &message, nil
}

func (r *gormChatRepository) AddAttachments(ctx context.Context, messageID string, attachments []entity.MessageAttachment) error {
	if len(attachments) == 0 {
		return nil
	}

	for i := range attachments {
		if attachments[i].ID == "" {
			attachments[i].ID = uuid.New().String()
		}
		attachments[i].MessageID = messageID
	}

	if err := r.db.WithContext(ctx).Create(&attachments).Error; err != nil {
		return apperrors.Internal("Failed to add attachments", err)
	}
	return nil
}

func (r *gormChatRepository) GetAttachmentsByMessageID(ctx context.Context, messageID string) ([]entity.MessageAttachment, error) {
	var attachments []entity.MessageAttachment
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Find(&attachments).Error
	if err != nil {
		return nil, apperrors.Internal("Failed to get attachments", err)
	}
	return attachments, nil
}
