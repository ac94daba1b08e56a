package domain

import (
	"slices"
	"time"
)

// Identity is the authenticated user as issued by the backend.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Credential is an opaque bearer token pair. The client never inspects it.
type Credential struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Session pairs an identity with the credential it was issued with.
type Session struct {
	Identity   Identity
	Credential Credential
}

// Valid reports whether both halves of the session are populated.
func (s Session) Valid() bool {
	return s.Identity.ID != "" && s.Credential.AccessToken != ""
}

type ChatType string

const (
	ChatPrivate ChatType = "private"
	ChatGroup   ChatType = "group"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// LastMessage is the denormalized preview kept on a chat for list ordering.
type LastMessage struct {
	Content   string    `json:"content"`
	SenderID  string    `json:"senderId"`
	Timestamp time.Time `json:"timestamp"`
}

// Chat is a private or group conversation.
type Chat struct {
	ID           string       `json:"id"`
	Type         ChatType     `json:"type"`
	Name         string       `json:"name,omitempty"`
	Participants []string     `json:"participants"`
	LastMessage  *LastMessage `json:"lastMessage,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Title returns the label shown for the chat from the viewer's perspective.
func (c Chat) Title(selfID string) string {
	if c.Type == ChatGroup {
		return c.Name
	}
	for _, p := range c.Participants {
		if p != selfID {
			return "Chat with " + p
		}
	}
	return "Chat with User"
}

// Has reports whether id is a participant of the chat.
func (c Chat) Has(id string) bool {
	return slices.Contains(c.Participants, id)
}

// Clone returns a deep copy safe to hand out of a locked region.
func (c Chat) Clone() Chat {
	out := c
	out.Participants = slices.Clone(c.Participants)
	if c.LastMessage != nil {
		lm := *c.LastMessage
		out.LastMessage = &lm
	}
	return out
}

// Message is a single chat message in canonical form.
type Message struct {
	ID        string        `json:"id"`
	WireID    string        `json:"_id,omitempty"` // raw "_id" alias when the wire carried one
	ChatID    string        `json:"chatId"`
	SenderID  string        `json:"senderId"`
	Content   string        `json:"content"`
	Type      MessageType   `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Status    MessageStatus `json:"status"`
	ReadBy    []string      `json:"readBy"`
}

// SameAs reports whether m and o denote the same logical message, matching
// on the canonical id and on any wire alias either side carries.
func (m Message) SameAs(o Message) bool {
	for _, a := range []string{m.ID, m.WireID} {
		if a == "" {
			continue
		}
		if a == o.ID || a == o.WireID {
			return true
		}
	}
	return false
}

// Summary builds the chat-list preview for this message.
func (m Message) Summary() *LastMessage {
	return &LastMessage{Content: m.Content, SenderID: m.SenderID, Timestamp: m.Timestamp}
}

// Clone returns a deep copy.
func (m Message) Clone() Message {
	out := m
	out.ReadBy = slices.Clone(m.ReadBy)
	return out
}
