package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер сообщения (SDP бывает объемным)
	maxMessageSize = 512 * 1024 // 512KB
)

// Client — одно живое соединение участника консультации.
// ID непрозрачный, уникален на всё время жизни процесса и не переиспользуется.
type Client struct {
	ID    string
	Conn  *websocket.Conn
	Send  chan []byte
	Rooms map[string]bool
	Hub   *Hub

	mu sync.RWMutex
	// closed выставляется hub'ом перед close(Send); после этого
	// enqueue отказывает вместо паники на закрытом канале
	closed bool
}

type ClientMessageHandler interface {
	HandleMessage(client *Client, msg *Message) error
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:    uuid.New().String(),
		Conn:  conn,
		Send:  make(chan []byte, 256),
		Rooms: make(map[string]bool),
		Hub:   hub,
	}
}

// ReadPump читает события от клиента строго в порядке получения
func (c *Client) ReadPump(handler ClientMessageHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		err := c.Conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if handler != nil {
			if err := handler.HandleMessage(c, &msg); err != nil {
				log.Printf("Error handling %s from %s: %v", msg.Event, c.ID, err)
				c.SendError(err.Error())
			}
		}
	}
}

// WritePump отправляет сообщения клиенту
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.Conn.WriteMessage(websocket.TextMessage, message)

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendEvent кладет событие в очередь отправки клиенту
func (c *Client) SendEvent(event EventType, roomID string, data interface{}) error {
	msgData, err := MarshalEvent(event, roomID, data)
	if err != nil {
		return err
	}

	return c.enqueue(msgData)
}

// enqueue кладет готовый кадр в очередь отправки.
// Отправка и закрытие канала разведены через closed: кадр, пришедший
// после teardown соединения, молча отбрасывается с ошибкой.
func (c *Client) enqueue(message []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.Send <- message:
		return nil
	default:
		return ErrClientQueueFull
	}
}

// closeSend помечает соединение закрытым и закрывает очередь отправки.
// Повторный вызов — no-op.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

func (c *Client) SendError(errorMsg string) {
	c.SendEvent(EventError, "", map[string]string{
		"error": errorMsg,
	})
}

func (c *Client) IsInRoom(roomID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Rooms[roomID]
}

// JoinedRooms возвращает снимок комнат соединения
func (c *Client) JoinedRooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]string, 0, len(c.Rooms))
	for roomID := range c.Rooms {
		rooms = append(rooms, roomID)
	}
	return rooms
}

func (c *Client) addRoom(roomID string) {
	c.mu.Lock()
	c.Rooms[roomID] = true
	c.mu.Unlock()
}

func (c *Client) removeRoom(roomID string) {
	c.mu.Lock()
	delete(c.Rooms, roomID)
	c.mu.Unlock()
}
