package sync

import (
	"context"
	"errors"
	"slices"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatwire/internal/bus"
	"github.com/matheus3301/chatwire/internal/domain"
	"github.com/matheus3301/chatwire/internal/gateway"
	"github.com/matheus3301/chatwire/internal/push"
)

// DefaultPageSize is the number of messages fetched per history page.
const DefaultPageSize = 50

// ErrNotAuthenticated is returned by operations issued before Activate or
// after Reset.
var ErrNotAuthenticated = errors.New("not authenticated")

// Gateway is the request/response surface the engine reads and writes through.
type Gateway interface {
	ListChats(ctx context.Context) ([]domain.Chat, error)
	ListMessages(ctx context.Context, chatID string, page, limit int) ([]domain.Message, error)
	SendMessage(ctx context.Context, chatID, content string, msgType domain.MessageType) (domain.Message, error)
	CreatePrivateChat(ctx context.Context, peerID string) (domain.Chat, error)
	CreateGroupChat(ctx context.Context, name string, participants []string) (domain.Chat, error)
	AddParticipant(ctx context.Context, chatID, participantID string) (domain.Chat, error)
	RemoveParticipant(ctx context.Context, chatID, participantID string) (domain.Chat, error)
}

// Channel is the push side: an inbound message stream plus best-effort
// outbound signals.
type Channel interface {
	OnMessage(handler func(domain.Message)) (unsubscribe func())
	JoinChat(chatID string)
	SendMessage(chatID, content string, chatType domain.ChatType, onError func(*push.ChannelError)) error
	MarkRead(messageID, chatID string, chatType domain.ChatType) error
}

// Snapshot is a deep copy of the engine's view, safe to hand to renderers.
type Snapshot struct {
	Self            domain.Identity
	Authenticated   bool
	Chats           []domain.Chat
	SelectedChatID  string
	CurrentChat     *domain.Chat
	Visible         []domain.Message
	Loading         bool
	MessagesLoading bool
}

// Engine is the client-side source of truth for chats and messages. It
// merges gateway responses with pushed messages. Every mutation runs under
// mu; no network call is made while mu is held.
type Engine struct {
	gw       Gateway
	ch       Channel
	bus      *bus.Bus
	logger   *zap.Logger
	pageSize int

	mu         gosync.Mutex
	self       domain.Identity
	active     bool
	generation uint64
	chats      []domain.Chat
	messages   map[string][]domain.Message
	loaded     map[string]bool
	inflight   map[string]int
	reported   map[string]bool // ids already sent as read
	selectedID string
	current    *domain.Chat
	visible    []domain.Message
	loading    bool

	cancel context.CancelFunc
	unsub  func()
}

// NewEngine creates an engine bound to no identity.
func NewEngine(gw Gateway, ch Channel, b *bus.Bus, logger *zap.Logger, pageSize int) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	e := &Engine{
		gw:       gw,
		ch:       ch,
		bus:      b,
		logger:   logger,
		pageSize: pageSize,
	}
	e.resetLocked()
	return e
}

// Start subscribes to pushed messages and delivery-status updates.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.unsub = e.ch.OnMessage(e.ObserveIncoming)

	if e.bus == nil {
		return
	}
	sub := e.bus.Subscribe(func(evt bus.Event) bool { return evt.Kind == bus.KindPushMessageStatus }, 256)
	go func() {
		defer sub.Close()
		for {
			select {
			case evt, ok := <-sub.C:
				if !ok {
					return
				}
				if u, ok := evt.Payload.(push.MessageStatusUpdate); ok {
					e.ApplyStatus(u)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.unsub != nil {
		e.unsub()
		e.unsub = nil
	}
	if e.cancel != nil {
		e.cancel()
	}
}

// Activate binds the engine to a freshly authenticated identity. Any state
// from a previous identity is dropped.
func (e *Engine) Activate(self domain.Identity) {
	e.mu.Lock()
	e.resetLocked()
	e.self = self
	e.active = true
	e.mu.Unlock()
	e.logger.Info("sync engine activated", zap.String("user_id", self.ID))
}

// Reset drops every cache so a later login never sees this session's data.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.resetLocked()
	e.mu.Unlock()
	e.publish(bus.KindChatsLoaded, 0)
}

func (e *Engine) resetLocked() {
	e.generation++
	e.self = domain.Identity{}
	e.active = false
	e.chats = nil
	e.messages = make(map[string][]domain.Message)
	e.loaded = make(map[string]bool)
	e.inflight = make(map[string]int)
	e.reported = make(map[string]bool)
	e.selectedID = ""
	e.current = nil
	e.visible = nil
	e.loading = false
}

// Snapshot returns a deep copy of the current view.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		Self:            e.self,
		Authenticated:   e.active,
		Chats:           cloneChats(e.chats),
		SelectedChatID:  e.selectedID,
		Visible:         cloneMessages(e.visible),
		Loading:         e.loading,
		MessagesLoading: e.selectedID != "" && e.inflight[e.selectedID] > 0,
	}
	if e.current != nil {
		c := e.current.Clone()
		s.CurrentChat = &c
	}
	return s
}

// Messages returns a copy of the cached messages for chatID, oldest first.
func (e *Engine) Messages(chatID string) []domain.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneMessages(e.messages[chatID])
}

// HasHistory reports whether chatID's history page has been loaded.
func (e *Engine) HasHistory(chatID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded[chatID]
}

func (e *Engine) publish(kind string, payload any) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
}

// fail reports a failed operation once as a user-visible notice and returns err.
func (e *Engine) fail(title string, err error) error {
	e.logger.Warn(title, zap.Error(err))
	e.publish(bus.KindNoticeError, bus.Notice{Title: title, Text: gateway.UserMessage(err)})
	return err
}

func cloneChats(in []domain.Chat) []domain.Chat {
	if in == nil {
		return nil
	}
	out := make([]domain.Chat, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

func cloneMessages(in []domain.Message) []domain.Message {
	out := make([]domain.Message, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}

func (e *Engine) chatIndexLocked(id string) int {
	return slices.IndexFunc(e.chats, func(c domain.Chat) bool { return c.ID == id })
}
