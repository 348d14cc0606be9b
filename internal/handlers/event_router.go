package handlers

import (
	"log"

	"github.com/thereayou/telemed-lite/internal/websocket"
)

// EventRouter раздает события соединения двум независимым сервисам:
// сигналингу и чату. Оба работают с одним каталогом комнат, но друг о
// друге не знают.
type EventRouter struct {
	signaling *SignalingHandler
	chat      *ChatHandler
}

func NewEventRouter(signaling *SignalingHandler, chat *ChatHandler) *EventRouter {
	return &EventRouter{signaling: signaling, chat: chat}
}

func (r *EventRouter) HandleMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Event {
	case websocket.EventJoinRoom,
		websocket.EventOffer,
		websocket.EventAnswer,
		websocket.EventICECandidate:
		return r.signaling.HandleMessage(client, msg)

	case websocket.EventJoinChat,
		websocket.EventSendMessage:
		return r.chat.HandleMessage(client, msg)

	default:
		log.Printf("Unknown event type: %s", msg.Event)
		return nil
	}
}
