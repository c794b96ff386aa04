package entity

import "time"

type Message struct {
	ID         string     `json:"id" gorm:"primaryKey;size:36"`
	ChatID     string     `json:"chat_id" gorm:"size:36;not null;index"`
	SenderID   string     `json:"sender_id" gorm:"size:36;not null;index"`
	Content    string     `json:"content" gorm:"type:text"`
	ReadAt     *time.Time `json:"read_at"`
	DeletedFor StringList `json:"deleted_for" gorm:"serializer:json"`
	CreatedAt  time.Time  `json:"created_at"`

	Attachments []MessageAttachment `json:"attachments,omitempty" gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE"`
}

func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}

func (m *Message) DeletedForUser(userID string) bool {
	return m.DeletedFor.Contains(userID)
}
