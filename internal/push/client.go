package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/matheus3301/chatwire/internal/bus"
	"github.com/matheus3301/chatwire/internal/domain"
	"github.com/matheus3301/chatwire/internal/status"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
	readLimit        = 1 << 20
	subscriberBuffer = 1024
)

// ErrNotConnected is returned by outbound calls made while the channel is down.
var ErrNotConnected = errors.New("push channel not connected")

// Conn abstracts the websocket so the client can be driven without a real
// server. *websocket.Conn satisfies it.
type Conn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// Dialer opens a Conn.
type Dialer func(ctx context.Context, url string, header http.Header) (Conn, error)

// Config locates the push endpoint and bounds reconnection.
type Config struct {
	URL               string
	ReconnectDelay    time.Duration
	ReconnectAttempts int
}

// Client owns the single long-lived push connection of a session.
type Client struct {
	cfg     Config
	bus     *bus.Bus
	machine *status.Machine
	logger  *zap.Logger
	dial    Dialer
	now     func() time.Time

	mu       sync.Mutex
	conn     Conn
	cancel   context.CancelFunc
	interest map[string]struct{}
	acks     map[int64]func(*ChannelError)
	nextAck  int64
}

// New creates a disconnected Client. A nil dial uses websocket.Dial.
func New(cfg Config, b *bus.Bus, logger *zap.Logger, dial Dialer) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dial == nil {
		dial = dialWebsocket
	}
	return &Client{
		cfg:      cfg,
		bus:      b,
		machine:  status.NewChannelMachine(b),
		logger:   logger,
		dial:     dial,
		now:      time.Now,
		interest: make(map[string]struct{}),
		acks:     make(map[int64]func(*ChannelError)),
	}
}

func dialWebsocket(ctx context.Context, u string, header http.Header) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, u, &websocket.DialOptions{HTTPHeader: header}) //nolint:bodyclose // websocket.Dial closes the response body internally
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(readLimit)
	return conn, nil
}

// State returns the connection state.
func (c *Client) State() status.State {
	return c.machine.Current()
}

// Connect authenticates the channel with cred and, once the server
// acknowledges, joins every chat of the identity plus any chats joined while
// disconnected. It is a no-op unless the channel is Disconnected. When the
// first attempt fails the client keeps retrying in the background and the
// error is returned.
func (c *Client) Connect(ctx context.Context, cred domain.Credential) error {
	c.mu.Lock()
	if !c.machine.TransitionFrom(status.Connecting, status.Disconnected) {
		c.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	conn, err := c.establish(ctx, cred)
	if err != nil {
		c.logger.Warn("push connect failed", zap.Error(err))
		go c.retry(runCtx, cred)
		return fmt.Errorf("connect push channel: %w", err)
	}
	if !c.install(runCtx, conn) {
		return nil
	}
	go c.run(runCtx, cred, conn)
	return nil
}

// Disconnect closes the channel, stops reconnecting and forgets every
// joined chat and pending ack. Safe in any state.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	conn := c.conn
	c.conn = nil
	clear(c.interest)
	clear(c.acks)
	c.machine.TransitionFrom(status.Disconnected, status.Connecting, status.Connected, status.Reconnecting)
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "logout")
	}
}

// establish dials and waits for the server's connected frame.
func (c *Client) establish(ctx context.Context, cred domain.Credential) (Conn, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("push url: %w", err)
	}
	q := u.Query()
	q.Set("token", cred.AccessToken)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cred.AccessToken)

	hsCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	conn, err := c.dial(hsCtx, u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	if err := c.handshake(hsCtx, conn); err != nil {
		_ = conn.Close(websocket.StatusPolicyViolation, "handshake failed")
		return nil, err
	}
	return conn, nil
}

func (c *Client) handshake(ctx context.Context, conn Conn) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("await connected: %w", err)
		}
		switch ev := gjson.GetBytes(data, "event").String(); ev {
		case EventConnected:
			return nil
		case EventError:
			return channelError(gjson.GetBytes(data, "error"))
		default:
			c.logger.Debug("frame before connected", zap.String("event", ev))
		}
	}
}

// install makes conn the live connection and replays joins. It reports
// false when Disconnect won the race, in which case conn is closed.
func (c *Client) install(runCtx context.Context, conn Conn) bool {
	c.mu.Lock()
	if runCtx.Err() != nil {
		c.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "disconnected")
		return false
	}
	c.conn = conn
	if err := c.machine.Transition(status.Connected); err != nil {
		c.logger.Warn("unexpected push state", zap.Error(err))
	}
	chats := make([]string, 0, len(c.interest))
	for id := range c.interest {
		chats = append(chats, id)
	}
	c.mu.Unlock()

	c.logger.Info("push channel connected", zap.Int("replayed_joins", len(chats)))
	_ = c.write(runCtx, conn, frame{Event: EventJoinChats})
	for _, id := range chats {
		_ = c.write(runCtx, conn, frame{Event: EventJoinChat, Data: map[string]string{"chatId": id}})
	}
	return true
}

// run reads frames until the connection drops, then reconnects.
func (c *Client) run(runCtx context.Context, cred domain.Credential, conn Conn) {
	for {
		_, data, err := conn.Read(runCtx)
		if err == nil {
			c.handleFrame(data)
			continue
		}
		if runCtx.Err() != nil {
			return
		}
		c.logger.Warn("push channel dropped", zap.Error(err))

		c.mu.Lock()
		if runCtx.Err() != nil {
			c.mu.Unlock()
			return
		}
		c.conn = nil
		clear(c.acks)
		c.machine.TransitionFrom(status.Reconnecting, status.Connected)
		c.mu.Unlock()

		next, ok := c.reconnect(runCtx, cred)
		if !ok {
			return
		}
		conn = next
	}
}

// retry runs the reconnect policy after a failed first attempt.
func (c *Client) retry(runCtx context.Context, cred domain.Credential) {
	c.mu.Lock()
	if runCtx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.machine.TransitionFrom(status.Reconnecting, status.Connecting)
	c.mu.Unlock()

	if conn, ok := c.reconnect(runCtx, cred); ok {
		c.run(runCtx, cred, conn)
	}
}

// reconnect retries with a fixed delay, at most ReconnectAttempts times.
// Giving up leaves the channel Disconnected and publishes push.gave_up.
func (c *Client) reconnect(runCtx context.Context, cred domain.Credential) (Conn, bool) {
	for attempt := 1; attempt <= c.cfg.ReconnectAttempts; attempt++ {
		timer := time.NewTimer(c.cfg.ReconnectDelay)
		select {
		case <-runCtx.Done():
			timer.Stop()
			return nil, false
		case <-timer.C:
		}

		c.mu.Lock()
		if runCtx.Err() != nil {
			c.mu.Unlock()
			return nil, false
		}
		c.machine.TransitionFrom(status.Connecting, status.Reconnecting)
		c.mu.Unlock()

		conn, err := c.establish(runCtx, cred)
		if err == nil && c.install(runCtx, conn) {
			c.logger.Info("push channel reconnected", zap.Int("attempt", attempt))
			return conn, true
		}
		if runCtx.Err() != nil {
			return nil, false
		}
		c.logger.Warn("push reconnect failed", zap.Int("attempt", attempt), zap.Error(err))

		c.mu.Lock()
		c.machine.TransitionFrom(status.Reconnecting, status.Connecting)
		c.mu.Unlock()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if runCtx.Err() != nil {
		return nil, false
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.machine.TransitionFrom(status.Disconnected, status.Reconnecting)
	c.logger.Error("push channel gave up", zap.Int("attempts", c.cfg.ReconnectAttempts))
	c.publish(bus.KindPushGaveUp, c.cfg.ReconnectAttempts)
	return nil, false
}

func (c *Client) handleFrame(data []byte) {
	if !gjson.ValidBytes(data) {
		c.logger.Warn("dropping non-json frame")
		return
	}
	ev := gjson.GetBytes(data, "event").String()
	payload := gjson.GetBytes(data, "data")

	switch ev {
	case EventNewMessage:
		msg, err := domain.ParseMessage([]byte(payload.Raw), c.now())
		if err != nil {
			c.logger.Warn("dropping push message", zap.Error(err))
			return
		}
		c.publish(bus.KindPushMessage, msg)
	case EventMessageStatus:
		var u MessageStatusUpdate
		if err := json.Unmarshal([]byte(payload.Raw), &u); err != nil {
			c.logger.Warn("dropping message-status", zap.Error(err))
			return
		}
		c.publish(bus.KindPushMessageStatus, u)
	case EventTyping:
		var u TypingUpdate
		if err := json.Unmarshal([]byte(payload.Raw), &u); err != nil {
			c.logger.Warn("dropping typing", zap.Error(err))
			return
		}
		c.publish(bus.KindPushTyping, u)
	case EventAck:
		c.resolveAck(gjson.GetBytes(data, "ack").Int(), gjson.GetBytes(data, "error"))
	case EventError:
		cerr := channelError(gjson.GetBytes(data, "error"))
		c.logger.Warn("push channel error", zap.String("code", cerr.Code), zap.String("message", cerr.Message))
		c.publish(bus.KindPushError, cerr)
	case EventConnected:
	default:
		c.logger.Debug("ignoring frame", zap.String("event", ev))
	}
}

func (c *Client) resolveAck(id int64, errVal gjson.Result) {
	c.mu.Lock()
	cb, ok := c.acks[id]
	delete(c.acks, id)
	c.mu.Unlock()

	if !errVal.Exists() || errVal.Type == gjson.Null {
		return
	}
	cerr := channelError(errVal)
	c.logger.Warn("push message rejected", zap.Int64("ack", id), zap.String("code", cerr.Code))
	c.publish(bus.KindPushError, cerr)
	if ok && cb != nil {
		cb(cerr)
	}
}

func channelError(v gjson.Result) *ChannelError {
	if v.Type == gjson.String {
		return &ChannelError{Code: normalizeCode(v.String())}
	}
	return &ChannelError{
		Code:    normalizeCode(v.Get("code").String()),
		Message: v.Get("message").String(),
		Details: v.Get("details").String(),
	}
}

func (c *Client) publish(kind string, payload any) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(bus.Event{Kind: kind, Timestamp: c.now(), Payload: payload})
}

// OnMessage registers handler for every normalized inbound message. Each
// subscriber receives messages in arrival order on its own goroutine. The
// returned func unsubscribes.
func (c *Client) OnMessage(handler func(domain.Message)) (unsubscribe func()) {
	sub := c.bus.Subscribe(func(e bus.Event) bool { return e.Kind == bus.KindPushMessage }, subscriberBuffer)
	go func() {
		for evt := range sub.C {
			if msg, ok := evt.Payload.(domain.Message); ok {
				handler(msg)
			}
		}
	}()
	return sub.Close
}

// JoinChat marks interest in a chat. While disconnected the interest is
// kept and replayed on the next connect.
func (c *Client) JoinChat(chatID string) {
	c.mu.Lock()
	c.interest[chatID] = struct{}{}
	conn := c.liveConn()
	c.mu.Unlock()

	if conn == nil {
		c.logger.Debug("join queued until connected", zap.String("chat_id", chatID))
		return
	}
	_ = c.write(context.Background(), conn, frame{Event: EventJoinChat, Data: map[string]string{"chatId": chatID}})
}

// SendMessage emits a best-effort message event. onError, if set, is called
// when the server rejects it.
func (c *Client) SendMessage(chatID, content string, chatType domain.ChatType, onError func(*ChannelError)) error {
	c.mu.Lock()
	conn := c.liveConn()
	if conn == nil {
		c.mu.Unlock()
		c.logger.Warn("push send skipped, channel not connected", zap.String("chat_id", chatID))
		return ErrNotConnected
	}
	c.nextAck++
	id := c.nextAck
	c.acks[id] = onError
	c.mu.Unlock()

	return c.write(context.Background(), conn, frame{
		Event: EventMessage,
		Ack:   id,
		Data: map[string]string{
			"chatId":   chatID,
			"content":  content,
			"type":     string(domain.MessageText),
			"chatType": string(chatType),
		},
	})
}

// SendTyping tells peers the user is typing in chatID.
func (c *Client) SendTyping(chatID string, chatType domain.ChatType, typing bool) error {
	return c.emit(frame{Event: EventTyping, Data: map[string]any{
		"chatId": chatID, "chatType": string(chatType), "isTyping": typing,
	}})
}

// MarkRead reports messageID as read.
func (c *Client) MarkRead(messageID, chatID string, chatType domain.ChatType) error {
	return c.emit(frame{Event: EventRead, Data: map[string]string{
		"messageId": messageID, "chatId": chatID, "chatType": string(chatType),
	}})
}

func (c *Client) emit(f frame) error {
	c.mu.Lock()
	conn := c.liveConn()
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return c.write(context.Background(), conn, f)
}

// liveConn returns the connection if Connected. Caller holds c.mu.
func (c *Client) liveConn() Conn {
	if c.conn == nil || c.machine.Current() != status.Connected {
		return nil
	}
	return c.conn
}

func (c *Client) write(ctx context.Context, conn Conn, f frame) error {
	data, err := encode(f)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		c.logger.Warn("push write failed", zap.String("event", f.Event), zap.Error(err))
		return err
	}
	return nil
}
