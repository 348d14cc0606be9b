package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage — одно сообщение чата консультации.
// После записи не изменяется; SenderID приходит от клиента
// (стабильный ID пользователя либо временный для анонимов).
type ChatMessage struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RoomID     string    `gorm:"index:idx_chat_messages_room_time,priority:1;not null"`
	SenderID   string    `gorm:"not null"`
	SenderName string    `gorm:"not null"`
	Content    string    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"index:idx_chat_messages_room_time,priority:2"`
}
