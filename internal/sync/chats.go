package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/matheus3301/chatwire/internal/bus"
	"github.com/matheus3301/chatwire/internal/domain"
)

// LoadChats replaces the chat list from the gateway. On failure the list is
// left as it was.
func (e *Engine) LoadChats(ctx context.Context) error {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return ErrNotAuthenticated
	}
	gen := e.generation
	e.loading = true
	e.mu.Unlock()

	chats, err := e.gw.ListChats(ctx)

	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return nil
	}
	e.loading = false
	if err != nil {
		e.mu.Unlock()
		return e.fail("Could not load chats", err)
	}
	e.chats = cloneChats(chats)
	if e.current != nil {
		if i := e.chatIndexLocked(e.current.ID); i >= 0 {
			c := e.chats[i].Clone()
			e.current = &c
		}
	}
	e.mu.Unlock()

	e.logger.Info("chats loaded", zap.Int("count", len(chats)))
	e.publish(bus.KindChatsLoaded, len(chats))
	return nil
}

// RefreshChats reloads the chat list.
func (e *Engine) RefreshChats(ctx context.Context) error {
	return e.LoadChats(ctx)
}

// CreatePrivateChat opens a one-to-one chat, puts it first and selects it.
func (e *Engine) CreatePrivateChat(ctx context.Context, peerID string) (domain.Chat, error) {
	if !e.isActive() {
		return domain.Chat{}, ErrNotAuthenticated
	}
	chat, err := e.gw.CreatePrivateChat(ctx, peerID)
	if err != nil {
		return domain.Chat{}, e.fail("Could not create chat", err)
	}
	return chat, e.adopt(ctx, chat)
}

// CreateGroupChat creates a group from comma-separated participant ids,
// puts it first and selects it.
func (e *Engine) CreateGroupChat(ctx context.Context, name, rawParticipants string) (domain.Chat, error) {
	if !e.isActive() {
		return domain.Chat{}, ErrNotAuthenticated
	}
	chat, err := e.gw.CreateGroupChat(ctx, name, domain.ParseParticipants(rawParticipants))
	if err != nil {
		return domain.Chat{}, e.fail("Could not create group", err)
	}
	return chat, e.adopt(ctx, chat)
}

// adopt prepends chat, replacing any entry with the same id, then selects it.
func (e *Engine) adopt(ctx context.Context, chat domain.Chat) error {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return nil
	}
	if i := e.chatIndexLocked(chat.ID); i >= 0 {
		e.chats = append(e.chats[:i], e.chats[i+1:]...)
	}
	e.chats = append([]domain.Chat{chat.Clone()}, e.chats...)
	e.mu.Unlock()

	e.publish(bus.KindChatUpdated, chat.ID)
	return e.SelectChat(ctx, chat)
}

// AddParticipant adds participantID to a group chat.
func (e *Engine) AddParticipant(ctx context.Context, chatID, participantID string) (domain.Chat, error) {
	if !e.isActive() {
		return domain.Chat{}, ErrNotAuthenticated
	}
	chat, err := e.gw.AddParticipant(ctx, chatID, participantID)
	if err != nil {
		return domain.Chat{}, e.fail("Could not add participant", err)
	}
	e.replaceChat(chat)
	return chat, nil
}

// RemoveParticipant removes participantID from a group chat.
func (e *Engine) RemoveParticipant(ctx context.Context, chatID, participantID string) (domain.Chat, error) {
	if !e.isActive() {
		return domain.Chat{}, ErrNotAuthenticated
	}
	chat, err := e.gw.RemoveParticipant(ctx, chatID, participantID)
	if err != nil {
		return domain.Chat{}, e.fail("Could not remove participant", err)
	}
	e.replaceChat(chat)
	return chat, nil
}

// replaceChat swaps the whole entity in the list and in the current chat.
func (e *Engine) replaceChat(chat domain.Chat) {
	e.mu.Lock()
	if i := e.chatIndexLocked(chat.ID); i >= 0 {
		e.chats[i] = chat.Clone()
	}
	if e.current != nil && e.current.ID == chat.ID {
		c := chat.Clone()
		e.current = &c
	}
	e.mu.Unlock()
	e.publish(bus.KindChatUpdated, chat.ID)
}

func (e *Engine) isActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}
