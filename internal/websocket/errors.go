package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrClientClosed    = errors.New("client connection is closed")
	ErrInvalidMessage  = errors.New("invalid message format")
	ErrMissingRoomID   = errors.New("room id is required")
	ErrNotInRoom       = errors.New("connection is not in room")
)
