package sync

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/matheus3301/chatwire/internal/bus"
	"github.com/matheus3301/chatwire/internal/domain"
	"github.com/matheus3301/chatwire/internal/push"
)

// SelectChat makes chat the current one. A chat whose history is cached is
// served from the cache with no network access. Otherwise exactly one
// history load is started; a load already in flight for it is reused.
func (e *Engine) SelectChat(ctx context.Context, chat domain.Chat) error {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return ErrNotAuthenticated
	}
	e.selectedID = chat.ID
	cur := chat.Clone()
	if i := e.chatIndexLocked(chat.ID); i >= 0 {
		cur = e.chats[i].Clone()
	}
	e.current = &cur
	e.visible = cloneMessages(e.messages[chat.ID])

	fetch := !e.loaded[chat.ID] && e.inflight[chat.ID] == 0
	var gen uint64
	if fetch {
		e.inflight[chat.ID]++
		gen = e.generation
	}
	unread := e.unreadLocked()
	e.mu.Unlock()

	e.publish(bus.KindSelectionChanged, chat.ID)
	e.ch.JoinChat(chat.ID)
	e.markRead(unread)

	if !fetch {
		return nil
	}
	return e.fetchHistory(ctx, chat.ID, gen)
}

// LoadMessages fetches the newest history page of chatID and merges it into
// the cache. The visible list is only touched if chatID is still selected
// when the response arrives.
func (e *Engine) LoadMessages(ctx context.Context, chatID string) error {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return ErrNotAuthenticated
	}
	e.inflight[chatID]++
	gen := e.generation
	e.mu.Unlock()

	return e.fetchHistory(ctx, chatID, gen)
}

// fetchHistory runs one page request. The caller has already counted it in
// inflight under generation gen.
func (e *Engine) fetchHistory(ctx context.Context, chatID string, gen uint64) error {
	page, err := e.gw.ListMessages(ctx, chatID, 1, e.pageSize)

	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return nil
	}
	if e.inflight[chatID]--; e.inflight[chatID] <= 0 {
		delete(e.inflight, chatID)
	}
	if err != nil {
		e.mu.Unlock()
		return e.fail("Could not load messages", err)
	}

	// Page order wins; an id already cached keeps its cached copy.
	slices.Reverse(page)
	cached := e.messages[chatID]
	merged := make([]domain.Message, 0, len(page)+len(cached))
	for _, m := range page {
		if i := slices.IndexFunc(cached, m.SameAs); i >= 0 {
			m = cached[i]
		}
		merged = append(merged, m.Clone())
	}
	for _, m := range cached {
		if !containsMessage(merged, m) {
			merged = append(merged, m)
		}
	}
	e.messages[chatID] = merged
	e.loaded[chatID] = true
	visible := e.selectedID == chatID
	var unread readBatch
	if visible {
		e.visible = cloneMessages(merged)
		unread = e.unreadLocked()
	}
	e.mu.Unlock()

	e.markRead(unread)

	e.logger.Debug("history loaded",
		zap.String("chat_id", chatID),
		zap.Int("page", len(page)),
		zap.Bool("visible", visible),
	)
	e.publish(bus.KindMessagesLoaded, chatID)
	return nil
}

// ObserveIncoming merges a pushed message. Redelivery of a known id is a
// no-op.
func (e *Engine) ObserveIncoming(msg domain.Message) {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}
	applied, known := e.applyLocked(msg)
	var unread readBatch
	if applied && msg.ChatID == e.selectedID {
		unread = e.unreadLocked()
	}
	e.mu.Unlock()

	if !applied {
		return
	}
	if !known {
		e.logger.Warn("message for chat not in list", zap.String("chat_id", msg.ChatID), zap.String("msg_id", msg.ID))
	}
	e.publish(bus.KindMessageUpserted, msg.ChatID)
	e.markRead(unread)
}

// Send persists a message through the gateway, merges the stored copy and
// then signals the push channel. On gateway failure nothing changes and no
// signal is sent.
func (e *Engine) Send(ctx context.Context, chatID, content string, msgType domain.MessageType) (domain.Message, error) {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return domain.Message{}, ErrNotAuthenticated
	}
	gen := e.generation
	e.mu.Unlock()

	msg, err := e.gw.SendMessage(ctx, chatID, content, msgType)
	if err != nil {
		return domain.Message{}, e.fail("Could not send message", err)
	}

	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return msg, nil
	}
	e.applyLocked(msg)
	chatType := domain.ChatPrivate
	if i := e.chatIndexLocked(chatID); i >= 0 {
		chatType = e.chats[i].Type
	}
	e.mu.Unlock()
	e.publish(bus.KindMessageUpserted, chatID)

	onError := func(cerr *push.ChannelError) {
		e.logger.Warn("push signal rejected", zap.String("chat_id", chatID), zap.String("code", cerr.Code))
	}
	if err := e.ch.SendMessage(chatID, content, chatType, onError); err != nil {
		e.logger.Debug("push signal skipped", zap.String("chat_id", chatID), zap.Error(err))
	}
	return msg, nil
}

// applyLocked appends msg to its chat unless an entry with the same id
// exists, mirrors it into the visible list, refreshes the chat's last
// message and moves the chat to the front. It reports whether msg was new
// and whether its chat is in the list.
func (e *Engine) applyLocked(msg domain.Message) (applied, known bool) {
	list := e.messages[msg.ChatID]
	if containsMessage(list, msg) {
		return false, true
	}
	e.messages[msg.ChatID] = append(list, msg.Clone())
	if e.selectedID == msg.ChatID {
		e.visible = append(e.visible, msg.Clone())
	}

	i := e.chatIndexLocked(msg.ChatID)
	if i < 0 {
		return true, false
	}
	chat := e.chats[i]
	chat.LastMessage = msg.Summary()
	e.chats = append(e.chats[:i], e.chats[i+1:]...)
	e.chats = append([]domain.Chat{chat}, e.chats...)
	if e.current != nil && e.current.ID == msg.ChatID {
		c := chat.Clone()
		e.current = &c
	}
	return true, true
}

// ApplyStatus records a delivery or read receipt on a cached message.
func (e *Engine) ApplyStatus(u push.MessageStatusUpdate) {
	e.mu.Lock()
	chatID := ""
	for id, list := range e.messages {
		for i := range list {
			if list[i].ID != u.MessageID && list[i].WireID != u.MessageID {
				continue
			}
			if u.Status != "" {
				list[i].Status = domain.MessageStatus(u.Status)
			}
			if u.UserID != "" && !slices.Contains(list[i].ReadBy, u.UserID) {
				list[i].ReadBy = append(list[i].ReadBy, u.UserID)
			}
			chatID = id
		}
	}
	if chatID != "" && chatID == e.selectedID {
		e.visible = cloneMessages(e.messages[chatID])
	}
	e.mu.Unlock()

	if chatID != "" {
		e.publish(bus.KindMessageUpserted, chatID)
	}
}

// readBatch is a set of peer messages in one chat awaiting a read receipt.
type readBatch struct {
	chatID   string
	chatType domain.ChatType
	ids      []string
}

// unreadLocked collects peer messages of the selected chat that the user
// has not read yet and records them as reported.
func (e *Engine) unreadLocked() readBatch {
	if e.selectedID == "" {
		return readBatch{}
	}
	b := readBatch{chatID: e.selectedID, chatType: domain.ChatPrivate}
	if e.current != nil && e.current.Type != "" {
		b.chatType = e.current.Type
	}
	for _, m := range e.messages[e.selectedID] {
		if m.SenderID == e.self.ID || slices.Contains(m.ReadBy, e.self.ID) || e.reported[m.ID] {
			continue
		}
		e.reported[m.ID] = true
		b.ids = append(b.ids, m.ID)
	}
	return b
}

// markRead sends one read receipt per message. Ids the channel could not
// take are forgotten so the next selection retries them.
func (e *Engine) markRead(b readBatch) {
	for _, id := range b.ids {
		err := e.ch.MarkRead(id, b.chatID, b.chatType)
		if err == nil {
			continue
		}
		e.logger.Debug("read receipt skipped", zap.String("chat_id", b.chatID), zap.String("msg_id", id), zap.Error(err))
		e.mu.Lock()
		delete(e.reported, id)
		e.mu.Unlock()
	}
}

func containsMessage(list []domain.Message, m domain.Message) bool {
	return slices.ContainsFunc(list, m.SameAs)
}
