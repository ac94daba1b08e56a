package push

import (
	"encoding/json"
	"fmt"
)

// Outbound event names.
const (
	EventJoinChats = "join-chats"
	EventJoinChat  = "join-chat"
	EventMessage   = "message"
	EventTyping    = "typing"
	EventRead      = "read"
)

// Inbound event names.
const (
	EventConnected     = "connected"
	EventNewMessage    = "new-message"
	EventMessageStatus = "message-status"
	EventError         = "error"
	EventAck           = "ack"
)

// Rejection codes carried by acks and error frames.
const (
	CodeNotInChat    = "NOT_IN_CHAT"
	CodeSaveFailed   = "SAVE_FAILED"
	CodeChatNotFound = "CHAT_NOT_FOUND"
	CodeUnknown      = "UNKNOWN_ERROR"
)

// frame is one JSON text frame on the channel.
type frame struct {
	Event string        `json:"event"`
	Data  any           `json:"data,omitempty"`
	Ack   int64         `json:"ack,omitempty"`
	Error *ChannelError `json:"error,omitempty"`
}

// ChannelError is a server-side rejection of a channel event.
type ChannelError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

func (e *ChannelError) Error() string {
	if e.Message == "" {
		return "push channel: " + e.Code
	}
	return fmt.Sprintf("push channel: %s: %s", e.Code, e.Message)
}

// normalizeCode maps anything outside the known set to CodeUnknown.
func normalizeCode(code string) string {
	switch code {
	case CodeNotInChat, CodeSaveFailed, CodeChatNotFound:
		return code
	default:
		return CodeUnknown
	}
}

// MessageStatusUpdate is the payload of an inbound message-status event.
type MessageStatusUpdate struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
	UserID    string `json:"userId"`
}

// TypingUpdate is the payload of an inbound typing event.
type TypingUpdate struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

func encode(f frame) ([]byte, error) {
	return json.Marshal(f)
}
