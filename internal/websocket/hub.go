package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// EventType определяет типы событий консультации
type EventType string

const (
	// События сигналинга (клиент -> сервер)
	EventJoinRoom     EventType = "join-room"
	EventOffer        EventType = "offer"
	EventAnswer       EventType = "answer"
	EventICECandidate EventType = "ice-candidate"

	// События чата (клиент -> сервер)
	EventJoinChat    EventType = "join-chat"
	EventSendMessage EventType = "send-message"

	// События сервера (сервер -> клиент)
	EventUserConnected  EventType = "user-connected"
	EventChatHistory    EventType = "chat-history"
	EventReceiveMessage EventType = "receive-message"
	EventError          EventType = "error"
)

// Message — конверт для всех сообщений по WebSocket
type Message struct {
	Event     EventType       `json:"event"`
	RoomID    string          `json:"roomId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
}

// MarshalEvent собирает конверт события для отправки клиенту
func MarshalEvent(event EventType, roomID string, data interface{}) ([]byte, error) {
	msg := Message{
		Event:     event,
		RoomID:    roomID,
		Timestamp: time.Now(),
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = jsonData
	}

	return json.Marshal(msg)
}

// room — одна комната консультации со своим мьютексом,
// чтобы join/leave в разных комнатах не блокировали друг друга
type room struct {
	mu      sync.Mutex
	members map[string]*Client
}

type Hub struct {
	// Активные соединения: connectionID -> Client
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// Комнаты: roomID (токен консультации) -> room.
	// Мьютекс защищает только саму map, членство защищает мьютекс комнаты.
	rooms   map[string]*room
	roomsMu sync.RWMutex

	// Каналы для регистрации/отмены регистрации
	register   chan *Client
	unregister chan *Client

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый Hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]*room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run запускает hub
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// Stop останавливает hub и закрывает все соединения
func (h *Hub) Stop() {
	h.cancel()

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for _, client := range h.clients {
		client.closeSend()
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
	h.clients = make(map[string]*Client)
}

// Register регистрирует новое соединение.
// После Stop цикл Run уже не читает канал — не блокируемся.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister отключает соединение
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[client.ID] = client
	log.Printf("Client registered: %s", client.ID)
}

// unregisterClient убирает соединение из всех комнат и из реестра.
// Повторный вызов — no-op.
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client.ID]; !ok {
		h.clientsMu.Unlock()
		return
	}
	delete(h.clients, client.ID)
	h.clientsMu.Unlock()

	// Сначала выходим из всех комнат, чтобы после teardown
	// соединение не могло попасть ни в одну рассылку
	for _, roomID := range client.JoinedRooms() {
		h.Leave(roomID, client)
	}

	client.closeSend()
	if client.Conn != nil {
		client.Conn.Close()
	}

	log.Printf("Client unregistered: %s", client.ID)
}

// getOrCreateRoom возвращает комнату, создавая её при первом join
func (h *Hub) getOrCreateRoom(roomID string) *room {
	h.roomsMu.RLock()
	r, ok := h.rooms[roomID]
	h.roomsMu.RUnlock()
	if ok {
		return r
	}

	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	if r, ok = h.rooms[roomID]; ok {
		return r
	}
	r = &room{members: make(map[string]*Client)}
	h.rooms[roomID] = r
	return r
}

// Join добавляет соединение в комнату. Идемпотентно.
func (h *Hub) Join(roomID string, client *Client) {
	r := h.getOrCreateRoom(roomID)

	r.mu.Lock()
	r.members[client.ID] = client
	r.mu.Unlock()

	client.addRoom(roomID)
}

// Leave убирает соединение из комнаты. Идемпотентно,
// последний участник удаляет комнату из каталога.
func (h *Hub) Leave(roomID string, client *Client) {
	h.roomsMu.RLock()
	r, ok := h.rooms[roomID]
	h.roomsMu.RUnlock()

	client.removeRoom(roomID)

	if !ok {
		return
	}

	r.mu.Lock()
	delete(r.members, client.ID)
	empty := len(r.members) == 0
	r.mu.Unlock()

	if empty {
		h.roomsMu.Lock()
		// Перепроверяем под write-lock: кто-то мог успеть зайти снова
		if r, ok := h.rooms[roomID]; ok {
			r.mu.Lock()
			if len(r.members) == 0 {
				delete(h.rooms, roomID)
			}
			r.mu.Unlock()
		}
		h.roomsMu.Unlock()
	}
}

// Members возвращает снимок всех участников комнаты
func (h *Hub) Members(roomID string) []*Client {
	return h.MembersExcept(roomID, "")
}

// MembersExcept возвращает снимок участников комнаты без excludeID.
// Снимок не отслеживает последующие join/leave.
func (h *Hub) MembersExcept(roomID string, excludeID string) []*Client {
	h.roomsMu.RLock()
	r, ok := h.rooms[roomID]
	h.roomsMu.RUnlock()
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members := make([]*Client, 0, len(r.members))
	for id, client := range r.members {
		if id != excludeID {
			members = append(members, client)
		}
	}
	return members
}

// BroadcastToRoom отправляет сообщение участникам комнаты,
// кроме excludeID (пустой excludeID — всем). Снимок участников может
// пережить teardown соединения — enqueue это переживает без паники.
func (h *Hub) BroadcastToRoom(roomID string, message []byte, excludeID string) {
	for _, client := range h.MembersExcept(roomID, excludeID) {
		if err := client.enqueue(message); err != nil {
			log.Printf("Client %s dropped message: %v", client.ID, err)
		}
	}
}
