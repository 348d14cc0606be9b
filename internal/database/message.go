package database

import (
	"github.com/thereayou/telemed-lite/internal/models"
)

func (d *Database) SaveMessage(message *models.ChatMessage) error {
	return d.db.Create(message).Error
}

// GetRoomMessages получает до limit последних сообщений комнаты,
// отсортированных по времени создания по возрастанию
func (d *Database) GetRoomMessages(roomID string, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage

	err := d.db.
		Where("room_id = ?", roomID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error

	if err != nil {
		return nil, err
	}

	// Разворачиваем порядок, чтобы старые сообщения были первыми
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
