package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/matheus3301/chatwire/internal/domain"
)

// ListChats returns every chat the user participates in, in backend order.
func (c *Client) ListChats(ctx context.Context) ([]domain.Chat, error) {
	data, err := c.call(ctx, "list chats", http.MethodGet, "/chat/user-chats", nil)
	if err != nil {
		return nil, err
	}
	out := []domain.Chat{}
	for _, raw := range data.Get("chats").Array() {
		chat, err := domain.ParseChat([]byte(raw.Raw))
		if err != nil {
			c.logger.Warn("skipping chat", zap.Error(err))
			continue
		}
		out = append(out, chat)
	}
	return out, nil
}

// ListMessages returns one page of a chat's history, newest first as the
// backend sends it.
func (c *Client) ListMessages(ctx context.Context, chatID string, page, limit int) ([]domain.Message, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	path := "/chat/messages/" + url.PathEscape(chatID) + "?" + q.Encode()

	data, err := c.call(ctx, "list messages", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	now := c.now()
	out := []domain.Message{}
	for _, raw := range data.Get("messages").Array() {
		m, err := domain.ParseMessage([]byte(raw.Raw), now)
		if err != nil {
			c.logger.Warn("skipping message", zap.String("chat_id", chatID), zap.Error(err))
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// CreatePrivateChat opens (or returns the existing) one-to-one chat with peerID.
func (c *Client) CreatePrivateChat(ctx context.Context, peerID string) (domain.Chat, error) {
	return c.chatCall(ctx, "create private chat", http.MethodPost, "/chat/private",
		map[string]string{"userId": peerID})
}

// CreateGroupChat creates a named group with the given participants.
func (c *Client) CreateGroupChat(ctx context.Context, name string, participants []string) (domain.Chat, error) {
	return c.chatCall(ctx, "create group chat", http.MethodPost, "/chat/group",
		map[string]any{"name": name, "participants": participants})
}

// AddParticipant adds participantID to a group and returns the updated chat.
func (c *Client) AddParticipant(ctx context.Context, chatID, participantID string) (domain.Chat, error) {
	return c.chatCall(ctx, "add participant", http.MethodPost,
		"/chat/"+url.PathEscape(chatID)+"/participants",
		map[string]string{"participantId": participantID})
}

// RemoveParticipant removes participantID from a group and returns the updated chat.
func (c *Client) RemoveParticipant(ctx context.Context, chatID, participantID string) (domain.Chat, error) {
	return c.chatCall(ctx, "remove participant", http.MethodDelete,
		"/chat/"+url.PathEscape(chatID)+"/participants/"+url.PathEscape(participantID), nil)
}

// SendMessage posts a message. An empty msgType means text.
func (c *Client) SendMessage(ctx context.Context, chatID, content string, msgType domain.MessageType) (domain.Message, error) {
	if msgType == "" {
		msgType = domain.MessageText
	}
	body := map[string]string{"chatId": chatID, "content": content, "type": string(msgType)}
	data, err := c.call(ctx, "send message", http.MethodPost, "/chat/message", body)
	if err != nil {
		return domain.Message{}, err
	}
	raw := entity(data, "message")
	m, err := domain.ParseMessage([]byte(raw.Raw), c.now())
	if err != nil {
		return domain.Message{}, &BackendError{Status: http.StatusOK, Message: err.Error()}
	}
	return m, nil
}

func (c *Client) chatCall(ctx context.Context, op, method, path string, body any) (domain.Chat, error) {
	data, err := c.call(ctx, op, method, path, body)
	if err != nil {
		return domain.Chat{}, err
	}
	chat, err := domain.ParseChat([]byte(entity(data, "chat").Raw))
	if err != nil {
		return domain.Chat{}, &BackendError{Status: http.StatusOK, Message: fmt.Sprintf("%s: %v", op, err)}
	}
	return chat, nil
}

// entity returns data.<key>, or data itself when the backend did not nest.
func entity(data gjson.Result, key string) gjson.Result {
	if v := data.Get(key); v.Exists() {
		return v
	}
	return data
}
