package handlers

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"time"

	"github.com/thereayou/telemed-lite/internal/cache"
	"github.com/thereayou/telemed-lite/internal/handlers/dto"
	"github.com/thereayou/telemed-lite/internal/models"
	"github.com/thereayou/telemed-lite/internal/websocket"
)

// MessageStore — долговременное хранилище сообщений чата
type MessageStore interface {
	SaveMessage(message *models.ChatMessage) error
	GetRoomMessages(roomID string, limit int) ([]models.ChatMessage, error)
}

// HistoryCache — горячий кеш последних сообщений комнаты
type HistoryCache interface {
	Append(ctx context.Context, roomID string, message []byte) error
	Recent(ctx context.Context, roomID string) ([][]byte, error)
	Seed(ctx context.Context, roomID string, messages [][]byte) error
}

// ChatHandler принимает сообщения чата, сохраняет их и рассылает всей
// комнате, включая отправителя — клиент показывает сохраненную копию
// с серверным timestamp вместо своего черновика.
type ChatHandler struct {
	hub   *websocket.Hub
	store MessageStore
	hot   HistoryCache
}

func NewChatHandler(hub *websocket.Hub, store MessageStore, hot HistoryCache) *ChatHandler {
	return &ChatHandler{hub: hub, store: store, hot: hot}
}

func (h *ChatHandler) HandleMessage(client *websocket.Client, msg *websocket.Message) error {
	if msg.RoomID == "" {
		return websocket.ErrMissingRoomID
	}

	switch msg.Event {
	case websocket.EventJoinChat:
		return h.handleJoinChat(client, msg.RoomID)

	case websocket.EventSendMessage:
		return h.handleSendMessage(client, msg)

	default:
		log.Printf("Unknown chat event: %s", msg.Event)
		return nil
	}
}

// handleJoinChat добавляет соединение в комнату (идемпотентно, общий каталог
// с сигналингом) и отвечает историей — до 50 последних сообщений по
// возрастанию времени. Ошибка чтения истории не блокирует участие:
// отдаем пустую историю.
func (h *ChatHandler) handleJoinChat(client *websocket.Client, roomID string) error {
	h.hub.Join(roomID, client)

	history, err := h.loadHistory(roomID)
	if err != nil {
		log.Printf("Failed to load history for room %s: %v", roomID, err)
		history = []json.RawMessage{}
	}

	return client.SendEvent(websocket.EventChatHistory, roomID, history)
}

// handleSendMessage сохраняет сообщение и рассылает его всей комнате.
// Если запись в базу не удалась, рассылки нет: клиенты никогда не видят
// сообщение, которого нет в истории.
func (h *ChatHandler) handleSendMessage(client *websocket.Client, msg *websocket.Message) error {
	if !client.IsInRoom(msg.RoomID) {
		return websocket.ErrNotInRoom
	}

	var payload dto.SendMessagePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return websocket.ErrInvalidMessage
	}
	if payload.Message == "" || payload.SenderID == "" {
		return websocket.ErrInvalidMessage
	}

	message := &models.ChatMessage{
		RoomID:     msg.RoomID,
		SenderID:   payload.SenderID,
		SenderName: payload.SenderName,
		Content:    payload.Message,
		CreatedAt:  time.Now(),
	}

	if err := h.store.SaveMessage(message); err != nil {
		// Отправитель не получает отдельной ошибки, только лог
		log.Printf("Failed to save message in room %s: %v", msg.RoomID, err)
		return nil
	}

	response := dto.ChatMessageResponse{
		ID:         message.ID,
		RoomID:     message.RoomID,
		SenderID:   message.SenderID,
		SenderName: message.SenderName,
		Message:    message.Content,
		CreatedAt:  message.CreatedAt,
	}

	responseData, err := json.Marshal(response)
	if err != nil {
		return err
	}

	if h.hot != nil {
		if err := h.hot.Append(context.Background(), msg.RoomID, responseData); err != nil {
			log.Printf("Failed to cache message in room %s: %v", msg.RoomID, err)
		}
	}

	data, err := websocket.MarshalEvent(websocket.EventReceiveMessage, msg.RoomID, response)
	if err != nil {
		return err
	}

	h.hub.BroadcastToRoom(msg.RoomID, data, "")
	return nil
}

// loadHistory читает историю из кеша, при промахе — из базы с прогревом кеша
func (h *ChatHandler) loadHistory(roomID string) ([]json.RawMessage, error) {
	if h.hot != nil {
		cached, err := h.hot.Recent(context.Background(), roomID)
		if err != nil {
			log.Printf("History cache read failed for room %s: %v", roomID, err)
		} else if len(cached) > 0 {
			history := make([]json.RawMessage, 0, len(cached))
			for _, m := range cached {
				history = append(history, json.RawMessage(m))
			}
			// Конкурентные append'ы могли попасть в список не по порядку
			// серверных timestamp'ов — каноничен timestamp, не очередность
			sortHistory(history)
			return history, nil
		}
	}

	messages, err := h.store.GetRoomMessages(roomID, cache.HistoryLimit)
	if err != nil {
		return nil, err
	}

	history := make([]json.RawMessage, 0, len(messages))
	for _, m := range messages {
		data, err := json.Marshal(dto.ChatMessageResponse{
			ID:         m.ID,
			RoomID:     m.RoomID,
			SenderID:   m.SenderID,
			SenderName: m.SenderName,
			Message:    m.Content,
			CreatedAt:  m.CreatedAt,
		})
		if err != nil {
			return nil, err
		}
		history = append(history, data)
	}

	if h.hot != nil && len(history) > 0 {
		raw := make([][]byte, 0, len(history))
		for _, m := range history {
			raw = append(raw, m)
		}
		if err := h.hot.Seed(context.Background(), roomID, raw); err != nil {
			log.Printf("History cache seed failed for room %s: %v", roomID, err)
		}
	}

	return history, nil
}

// sortHistory упорядочивает сериализованные сообщения по createdAt
// по возрастанию; нечитаемые элементы уходят в начало как есть
func sortHistory(history []json.RawMessage) {
	createdAt := func(m json.RawMessage) time.Time {
		var stamped struct {
			CreatedAt time.Time `json:"createdAt"`
		}
		if err := json.Unmarshal(m, &stamped); err != nil {
			return time.Time{}
		}
		return stamped.CreatedAt
	}

	sort.SliceStable(history, func(i, j int) bool {
		return createdAt(history[i]).Before(createdAt(history[j]))
	})
}
