package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var (
	ErrInvalidMessage  = errors.New("invalid message payload")
	ErrInvalidChat     = errors.New("invalid chat payload")
	ErrInvalidIdentity = errors.New("invalid user payload")
)

// ParseMessage normalizes a wire message into its canonical form. It is the
// only place optional message fields are defaulted; both the gateway and the
// push channel go through it.
func ParseMessage(raw []byte, now time.Time) (Message, error) {
	if !gjson.ValidBytes(raw) {
		return Message{}, fmt.Errorf("%w: not json", ErrInvalidMessage)
	}
	r := gjson.ParseBytes(raw)

	m := Message{
		WireID:   r.Get("_id").String(),
		ChatID:   r.Get("chatId").String(),
		SenderID: r.Get("senderId").String(),
		Content:  r.Get("content").String(),
		Type:     MessageType(r.Get("type").String()),
		Status:   MessageStatus(r.Get("status").String()),
	}
	m.ID = firstNonEmpty(r.Get("id").String(), m.WireID)

	var missing []string
	for _, f := range []struct{ name, val string }{
		{"id", m.ID}, {"chatId", m.ChatID}, {"senderId", m.SenderID}, {"content", m.Content},
	} {
		if f.val == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return Message{}, fmt.Errorf("%w: missing %s", ErrInvalidMessage, strings.Join(missing, ", "))
	}

	if m.Type == "" {
		m.Type = MessageText
	}
	if m.Status == "" {
		m.Status = StatusSent
	}
	m.Timestamp = parseTime(r.Get("timestamp"), now)
	m.ReadBy = idList(r.Get("readBy"))
	return m, nil
}

// ParseChat normalizes a wire chat.
func ParseChat(raw []byte) (Chat, error) {
	if !gjson.ValidBytes(raw) {
		return Chat{}, fmt.Errorf("%w: not json", ErrInvalidChat)
	}
	r := gjson.ParseBytes(raw)

	c := Chat{
		ID:           firstNonEmpty(r.Get("id").String(), r.Get("_id").String()),
		Type:         ChatType(r.Get("type").String()),
		Name:         r.Get("name").String(),
		Participants: idList(r.Get("participants")),
		CreatedAt:    parseTime(r.Get("createdAt"), time.Time{}),
	}
	if c.ID == "" {
		return Chat{}, fmt.Errorf("%w: missing id", ErrInvalidChat)
	}
	if c.Type == "" {
		c.Type = ChatPrivate
		if c.Name != "" {
			c.Type = ChatGroup
		}
	}
	if lm := r.Get("lastMessage"); lm.IsObject() {
		c.LastMessage = &LastMessage{
			Content:   lm.Get("content").String(),
			SenderID:  lm.Get("senderId").String(),
			Timestamp: parseTime(lm.Get("timestamp"), time.Time{}),
		}
	}
	return c, nil
}

// ParseIdentity normalizes the backend's user object.
func ParseIdentity(raw []byte) (Identity, error) {
	if !gjson.ValidBytes(raw) {
		return Identity{}, fmt.Errorf("%w: not json", ErrInvalidIdentity)
	}
	r := gjson.ParseBytes(raw)
	id := Identity{
		ID:       firstNonEmpty(r.Get("id").String(), r.Get("_id").String()),
		Username: r.Get("username").String(),
		Email:    r.Get("email").String(),
		Phone:    r.Get("phone").String(),
	}
	if id.ID == "" {
		return Identity{}, fmt.Errorf("%w: missing id", ErrInvalidIdentity)
	}
	return id, nil
}

// ParseParticipants splits comma-separated free text into participant ids.
// Entries are trimmed but empty entries are kept.
func ParseParticipants(input string) []string {
	parts := strings.Split(input, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func parseTime(v gjson.Result, fallback time.Time) time.Time {
	switch v.Type {
	case gjson.Number:
		return time.UnixMilli(v.Int()).UTC()
	case gjson.String:
		if t, err := time.Parse(time.RFC3339Nano, v.String()); err == nil {
			return t
		}
	}
	return fallback
}

// idList accepts either an array of id strings or an array of objects
// carrying id/_id.
func idList(v gjson.Result) []string {
	out := []string{}
	if !v.IsArray() {
		return out
	}
	for _, e := range v.Array() {
		if e.IsObject() {
			if id := firstNonEmpty(e.Get("id").String(), e.Get("_id").String()); id != "" {
				out = append(out, id)
			}
			continue
		}
		if s := e.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
