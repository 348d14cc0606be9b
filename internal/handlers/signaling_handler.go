package handlers

import (
	"encoding/json"
	"log"

	"github.com/thereayou/telemed-lite/internal/handlers/dto"
	"github.com/thereayou/telemed-lite/internal/websocket"
)

// SignalingHandler пересылает WebRTC-сообщения (offer/answer/ICE) участникам
// комнаты отправителя. Ничего не хранит и не заглядывает в SDP/кандидаты:
// переговоры и повторные попытки — ответственность клиентского WebRTC-стека.
type SignalingHandler struct {
	hub *websocket.Hub
}

func NewSignalingHandler(hub *websocket.Hub) *SignalingHandler {
	return &SignalingHandler{hub: hub}
}

func (h *SignalingHandler) HandleMessage(client *websocket.Client, msg *websocket.Message) error {
	if msg.RoomID == "" {
		return websocket.ErrMissingRoomID
	}

	switch msg.Event {
	case websocket.EventJoinRoom:
		return h.handleJoinRoom(client, msg.RoomID)

	case websocket.EventOffer, websocket.EventAnswer:
		return h.handleSDP(client, msg)

	case websocket.EventICECandidate:
		return h.handleICECandidate(client, msg)

	default:
		log.Printf("Unknown signaling event: %s", msg.Event)
		return nil
	}
}

// handleJoinRoom добавляет соединение в комнату и уведомляет остальных.
// Порядок важен: сначала членство, потом user-connected, чтобы ответный
// offer не обогнал регистрацию новичка в комнате.
//
// Уведомляются только уже присутствующие — новичок списка участников
// не получает, это осознанно сохраненное поведение исходного протокола.
func (h *SignalingHandler) handleJoinRoom(client *websocket.Client, roomID string) error {
	h.hub.Join(roomID, client)

	data, err := websocket.MarshalEvent(websocket.EventUserConnected, roomID, dto.UserConnected{
		ConnectionID: client.ID,
	})
	if err != nil {
		return err
	}

	h.hub.BroadcastToRoom(roomID, data, client.ID)
	return nil
}

func (h *SignalingHandler) handleSDP(client *websocket.Client, msg *websocket.Message) error {
	if !client.IsInRoom(msg.RoomID) {
		return websocket.ErrNotInRoom
	}

	var payload dto.SDPPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return websocket.ErrInvalidMessage
	}
	if len(payload.SDP) == 0 {
		return websocket.ErrInvalidMessage
	}

	data, err := websocket.MarshalEvent(msg.Event, msg.RoomID, dto.SDPRelay{
		SDP:      payload.SDP,
		CallerID: client.ID,
	})
	if err != nil {
		return err
	}

	h.hub.BroadcastToRoom(msg.RoomID, data, client.ID)
	return nil
}

func (h *SignalingHandler) handleICECandidate(client *websocket.Client, msg *websocket.Message) error {
	if !client.IsInRoom(msg.RoomID) {
		return websocket.ErrNotInRoom
	}

	var payload dto.CandidatePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return websocket.ErrInvalidMessage
	}
	if len(payload.Candidate) == 0 {
		return websocket.ErrInvalidMessage
	}

	data, err := websocket.MarshalEvent(websocket.EventICECandidate, msg.RoomID, dto.CandidateRelay{
		Candidate: payload.Candidate,
		SenderID:  client.ID,
	})
	if err != nil {
		return err
	}

	h.hub.BroadcastToRoom(msg.RoomID, data, client.ID)
	return nil
}
