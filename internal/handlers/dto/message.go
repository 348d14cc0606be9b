package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SDPPayload — входящий offer/answer. SDP не разбирается и не меняется.
type SDPPayload struct {
	SDP json.RawMessage `json:"sdp"`
}

// SDPRelay — offer/answer, пересылаемый остальным участникам комнаты
type SDPRelay struct {
	SDP      json.RawMessage `json:"sdp"`
	CallerID string          `json:"callerId"`
}

// CandidatePayload — входящий ICE-кандидат
type CandidatePayload struct {
	Candidate json.RawMessage `json:"candidate"`
}

// CandidateRelay — ICE-кандидат, пересылаемый остальным участникам
type CandidateRelay struct {
	Candidate json.RawMessage `json:"candidate"`
	SenderID  string          `json:"senderId"`
}

// UserConnected — уведомление существующих участников о новом соединении
type UserConnected struct {
	ConnectionID string `json:"connectionId"`
}

// SendMessagePayload — входящее сообщение чата
type SendMessagePayload struct {
	Message    string `json:"message"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
}

// ChatMessageResponse — сообщение чата для receive-message и chat-history
type ChatMessageResponse struct {
	ID         uuid.UUID `json:"id"`
	RoomID     string    `json:"roomId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}
