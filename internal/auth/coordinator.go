package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatwire/internal/bus"
	"github.com/matheus3301/chatwire/internal/domain"
	"github.com/matheus3301/chatwire/internal/gateway"
	"github.com/matheus3301/chatwire/internal/status"
	"github.com/matheus3301/chatwire/internal/store"
)

// SessionStore persists the session between runs.
type SessionStore interface {
	SaveSession(s domain.Session) error
	LoadSession() (*domain.Session, error)
	ClearSession() error
}

// Authenticator exchanges credentials and carries the bearer token.
type Authenticator interface {
	Login(ctx context.Context, identifier, secret string) (domain.Session, error)
	SetCredential(cred domain.Credential)
	ClearCredential()
}

// Core is the chat state gated on authentication.
type Core interface {
	Activate(self domain.Identity)
	Reset()
	LoadChats(ctx context.Context) error
}

// Channel is the push connection opened per authenticated session.
type Channel interface {
	Connect(ctx context.Context, cred domain.Credential) error
	Disconnect()
}

// State is what consumers read to gate their UI.
type State struct {
	Identity        domain.Identity
	Credential      domain.Credential
	IsAuthenticated bool
	Loading         bool
}

// Coordinator owns the authenticated/unauthenticated transition and
// switches the dependents on and off with it.
type Coordinator struct {
	store   SessionStore
	auth    Authenticator
	core    Core
	channel Channel
	bus     *bus.Bus
	logger  *zap.Logger
	machine *status.Machine

	mu      sync.Mutex
	session *domain.Session
	loading bool
}

// NewCoordinator creates a coordinator in the BOOTING state.
func NewCoordinator(st SessionStore, a Authenticator, core Core, ch Channel, b *bus.Bus, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:   st,
		auth:    a,
		core:    core,
		channel: ch,
		bus:     b,
		logger:  logger,
		machine: status.NewSessionMachine(b),
	}
}

// Init restores a persisted session. A malformed one is cleared and the
// coordinator stays unauthenticated.
func (c *Coordinator) Init(ctx context.Context) error {
	c.setLoading(true)
	defer c.setLoading(false)

	s, err := c.store.LoadSession()
	switch {
	case errors.Is(err, store.ErrMalformedSession):
		c.logger.Warn("discarding malformed stored session", zap.Error(err))
		if err := c.store.ClearSession(); err != nil {
			c.logger.Error("failed to clear stored session", zap.Error(err))
		}
		s = nil
	case err != nil:
		c.toUnauthenticated()
		return fmt.Errorf("load session: %w", err)
	}

	if s == nil {
		c.toUnauthenticated()
		c.logger.Info("no stored session")
		return nil
	}

	c.mu.Lock()
	c.session = s
	c.machine.TransitionFrom(status.Authenticated, status.Booting, status.Unauthenticated)
	c.mu.Unlock()

	c.logger.Info("session restored", zap.String("user_id", s.Identity.ID))
	c.activate(ctx, *s)
	return nil
}

// Login authenticates and, on success, persists the session before
// swapping it in and activating the dependents. A failure leaves the
// current state untouched.
func (c *Coordinator) Login(ctx context.Context, identifier, secret string) (domain.Identity, error) {
	c.setLoading(true)
	defer c.setLoading(false)

	s, err := c.auth.Login(ctx, identifier, secret)
	if err != nil {
		return domain.Identity{}, c.fail("Login failed", err)
	}
	if err := c.store.SaveSession(s); err != nil {
		return domain.Identity{}, c.fail("Could not save session", err)
	}

	c.mu.Lock()
	prev := c.session
	c.session = &s
	c.machine.TransitionFrom(status.Authenticated, status.Booting, status.Unauthenticated)
	c.mu.Unlock()

	// The channel and the core are still bound to the previous identity.
	if prev != nil {
		c.core.Reset()
		c.channel.Disconnect()
	}

	c.logger.Info("logged in", zap.String("user_id", s.Identity.ID), zap.String("username", s.Identity.Username))
	c.publish(bus.KindSessionLoggedIn, s.Identity)
	c.activate(ctx, s)
	return s.Identity, nil
}

// Logout clears the session and switches every dependent off. Safe with no
// session.
func (c *Coordinator) Logout() {
	c.mu.Lock()
	had := c.session != nil
	c.session = nil
	c.machine.TransitionFrom(status.Unauthenticated, status.Booting, status.Authenticated)
	c.mu.Unlock()

	if err := c.store.ClearSession(); err != nil {
		c.logger.Error("failed to clear stored session", zap.Error(err))
	}
	c.core.Reset()
	c.channel.Disconnect()
	c.auth.ClearCredential()

	if had {
		c.logger.Info("logged out")
		c.publish(bus.KindSessionLogout, nil)
	}
}

// State returns the current authentication state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{Loading: c.loading}
	if c.session != nil {
		st.Identity = c.session.Identity
		st.Credential = c.session.Credential
		st.IsAuthenticated = true
	}
	return st
}

// Status returns the state machine's current state.
func (c *Coordinator) Status() status.State {
	return c.machine.Current()
}

// activate hands the credential to the gateway, binds the core to the
// identity and loads its chats, then opens the push channel. Failures
// here are reported but do not undo the login.
func (c *Coordinator) activate(ctx context.Context, s domain.Session) {
	c.auth.SetCredential(s.Credential)
	c.core.Activate(s.Identity)
	if err := c.core.LoadChats(ctx); err != nil {
		c.logger.Warn("initial chat load failed", zap.Error(err))
	}
	if err := c.channel.Connect(ctx, s.Credential); err != nil {
		c.logger.Warn("push channel unavailable", zap.Error(err))
	}
}

func (c *Coordinator) toUnauthenticated() {
	c.mu.Lock()
	c.session = nil
	c.machine.TransitionFrom(status.Unauthenticated, status.Booting, status.Authenticated)
	c.mu.Unlock()
}

func (c *Coordinator) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

func (c *Coordinator) fail(title string, err error) error {
	c.logger.Warn(title, zap.Error(err))
	c.publish(bus.KindNoticeError, bus.Notice{Title: title, Text: gateway.UserMessage(err)})
	return err
}

func (c *Coordinator) publish(kind string, payload any) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
}
