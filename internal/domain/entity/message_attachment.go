package entity

import "time"

// MessageAttachment is owned by its message: hard-deleting the message
// cascades to its attachments, and the backing file is unlinked best-effort.
type MessageAttachment struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	MessageID string    `json:"message_id" gorm:"size:36;not null;index"`
	FileURL   string    `json:"file_url" gorm:"size:512;not null"`
	FileType  string    `json:"file_type" gorm:"size:128"`
	CreatedAt time.Time `json:"created_at"`
}
