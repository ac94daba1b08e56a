package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/matheus3301/chatwire/internal/app"
	"github.com/matheus3301/chatwire/internal/bus"
	"github.com/matheus3301/chatwire/internal/domain"
	"github.com/matheus3301/chatwire/internal/gateway"
	"github.com/matheus3301/chatwire/internal/push"
	"github.com/matheus3301/chatwire/internal/status"
	"github.com/matheus3301/chatwire/internal/tui/keys"
	"github.com/matheus3301/chatwire/internal/tui/model"
	"github.com/matheus3301/chatwire/internal/tui/ui"
	"github.com/matheus3301/chatwire/internal/tui/views"
)

// Page names.
const (
	pageLogin = "login"
	pageChats = "chats"
	pageChat  = "chat"
)

// App is the terminal UI over one running profile.
type App struct {
	app     *tview.Application
	svc     *app.App
	server  string
	logger  *zap.Logger
	theme   *ui.Theme
	keys    *keys.Registry
	notices *model.Notices

	root        *tview.Flex
	pages       *tview.Pages
	login       *views.LoginView
	chatList    *views.ChatList
	messageView *views.MessageView
	composer    *views.Composer
	statusBar   *views.StatusBar
	noticeBar   *ui.NoticeBar
	menu        *ui.Menu
	prompt      *ui.Prompt

	page         string
	promptActive bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp builds the UI for svc. server is shown on the login form.
func NewApp(svc *app.App, server string) *App {
	theme := ui.DefaultTheme()
	a := &App{
		app:     tview.NewApplication(),
		svc:     svc,
		server:  server,
		logger:  svc.Logger.Named("tui"),
		theme:   theme,
		keys:    keys.NewRegistry(),
		notices: model.NewNotices(),
	}

	a.login = views.NewLoginView(theme, server)
	a.chatList = views.NewChatList(theme)
	a.messageView = views.NewMessageView(theme)
	a.composer = views.NewComposer(theme)
	a.statusBar = views.NewStatusBar(theme, svc.Profile)
	a.noticeBar = ui.NewNoticeBar(theme)
	a.menu = ui.NewMenu(theme)
	a.prompt = ui.NewPrompt(theme)

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupBindings() {
	a.keys.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: ':', Description: "Command", Visible: true, Handler: func() {
		a.showPrompt(ui.PromptCommand, "")
	}})
	a.keys.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: 'r', Description: "Refresh", Visible: true, Handler: a.refresh})
	a.keys.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: 'q', Description: "Quit", Visible: true, Handler: a.app.Stop})

	a.keys.AddView(pageChats, &keys.Action{Key: tcell.KeyEnter, Label: "Enter", Description: "Open", Visible: true, Handler: func() {
		if id := a.chatList.SelectedID(); id != "" {
			a.openChat(id)
		}
	}})
	a.keys.AddView(pageChats, &keys.Action{Key: tcell.KeyRune, Rune: '/', Description: "Filter", Visible: true, Handler: func() {
		a.showPrompt(ui.PromptFilter, "")
	}})
	a.keys.AddView(pageChats, &keys.Action{Key: tcell.KeyRune, Rune: 'p', Description: "Private chat", Visible: true, Handler: func() {
		a.showPrompt(ui.PromptCommand, CmdPrivate+" ")
	}})
	a.keys.AddView(pageChats, &keys.Action{Key: tcell.KeyRune, Rune: 'g', Description: "Group chat", Visible: true, Handler: func() {
		a.showPrompt(ui.PromptCommand, CmdGroup+" ")
	}})

	a.keys.AddView(pageChat, &keys.Action{Key: tcell.KeyEscape, Label: "Esc", Description: "Back", Visible: true, Handler: a.showChats})
	a.keys.AddView(pageChat, &keys.Action{Key: tcell.KeyRune, Rune: 'i', Description: "Compose", Visible: true, Handler: func() {
		a.app.SetFocus(a.composer)
	}})
	a.keys.AddView(pageChat, &keys.Action{Key: tcell.KeyRune, Rune: 'a', Description: "Add member", Visible: true, Handler: func() {
		a.showPrompt(ui.PromptCommand, CmdAdd+" ")
	}})
	a.keys.AddView(pageChat, &keys.Action{Key: tcell.KeyRune, Rune: 'x', Description: "Remove member", Visible: true, Handler: func() {
		a.showPrompt(ui.PromptCommand, CmdRemove+" ")
	}})
}

func (a *App) setupCallbacks() {
	a.chatList.SetOnSelect(a.openChat)

	a.login.SetOnSubmit(func(identifier, secret string) {
		a.login.SetBusy(true)
		go func() {
			_, err := a.svc.Coordinator.Login(a.ctx, identifier, secret)
			a.app.QueueUpdateDraw(func() {
				a.login.SetBusy(false)
				if err != nil {
					a.login.SetError(gateway.UserMessage(err))
					return
				}
				a.login.Reset()
				a.render()
			})
		}()
	})

	a.composer.SetOnSend(func(text string) {
		chatID := a.svc.Engine.Snapshot().SelectedChatID
		if chatID == "" {
			return
		}
		go func() {
			// Failures surface as notice events.
			_, _ = a.svc.Engine.Send(a.ctx, chatID, text, domain.MessageText)
		}()
	})
	a.composer.SetOnTyping(func(typing bool) {
		snap := a.svc.Engine.Snapshot()
		if snap.CurrentChat == nil {
			return
		}
		if err := a.svc.Push.SendTyping(snap.CurrentChat.ID, snap.CurrentChat.Type, typing); err != nil && !errors.Is(err, push.ErrNotConnected) {
			a.logger.Debug("typing signal failed", zap.Error(err))
		}
	})
	a.composer.SetOnLeave(func() {
		a.app.SetFocus(a.messageView)
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		switch mode {
		case ui.PromptFilter:
			a.chatList.SetFilter(text)
		case ui.PromptCommand:
			a.runCommand(ParseCommand(text))
		}
	})
	a.prompt.SetOnCancel(a.hidePrompt)
}

func (a *App) setupLayout() {
	chat := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.messageView, 0, 1, false).
		AddItem(a.composer, 1, 0, true)

	a.pages = tview.NewPages().
		AddPage(pageLogin, a.login, true, false).
		AddPage(pageChats, a.chatList, true, false).
		AddPage(pageChat, chat, true, false)

	a.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.statusBar, 1, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.noticeBar, 1, 0, false).
		AddItem(a.menu, 1, 0, false)

	a.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if a.promptActive || a.page == pageLogin || a.composer.HasFocus() {
			return ev
		}
		if a.keys.HandleEvent(a.page, ev) {
			return nil
		}
		return ev
	})
}

// Run blocks until the user quits. ctx bounds every request the UI issues.
func (a *App) Run(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)
	defer a.cancel()

	sub := a.svc.Bus.Subscribe(nil, 256)
	defer sub.Close()
	go a.watch(sub)
	go a.tick()

	if a.svc.Coordinator.State().IsAuthenticated {
		a.showChats()
	} else {
		a.showLogin()
	}
	a.render()

	return a.app.SetRoot(a.root, true).EnableMouse(true).Run()
}

// watch turns bus events into redraws until Run returns.
func (a *App) watch(sub *bus.Subscription) {
	forward(a.ctx, sub.C, func(evt bus.Event) {
		a.app.QueueUpdateDraw(func() {
			a.handleEvent(evt)
			a.render()
		})
	})
}

// forward passes events to apply until ctx ends or events is closed.
func forward(ctx context.Context, events <-chan bus.Event, apply func(bus.Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok || ctx.Err() != nil {
				return
			}
			apply(evt)
		}
	}
}

func (a *App) tick() {
	t := time.NewTicker(15 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-t.C:
			a.app.QueueUpdateDraw(a.render)
		}
	}
}

func (a *App) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindNoticeError:
		if n, ok := evt.Payload.(bus.Notice); ok {
			a.notices.Error(noticeText(n))
		}
	case bus.KindNoticeInfo:
		if n, ok := evt.Payload.(bus.Notice); ok {
			a.notices.Info(noticeText(n))
		}
	case bus.KindPushError:
		if cerr, ok := evt.Payload.(*push.ChannelError); ok {
			a.notices.Error(cerr.Message)
		}
	case bus.KindPushGaveUp:
		a.notices.Warn("Live updates are offline. Press r to reconnect.")
	case bus.KindSessionLoggedIn:
		a.showChats()
	case bus.KindSessionLogout:
		a.showLogin()
	}
}

func noticeText(n bus.Notice) string {
	if n.Title == "" {
		return n.Text
	}
	return n.Title + ": " + n.Text
}

// render projects the current state onto every view. Must run on the UI goroutine.
func (a *App) render() {
	now := time.Now()
	state := a.svc.Coordinator.State()
	snap := a.svc.Engine.Snapshot()

	if !state.IsAuthenticated && a.page != pageLogin {
		a.showLogin()
	}

	a.chatList.Update(model.ChatRows(snap, now))
	if h, ok := model.ChatHeader(snap); ok {
		a.messageView.SetHeader(h)
	}
	a.messageView.Update(model.MessageLines(snap, now), snap.MessagesLoading)

	a.statusBar.SetUser(state.Identity.Username)
	a.statusBar.SetChannel(a.svc.Push.State())
	a.statusBar.SetLoading(state.Loading || snap.Loading || snap.MessagesLoading)
	a.noticeBar.Update(a.notices.Current())
	a.menu.Update(a.keys.Hints(a.page))
}

func (a *App) showLogin() {
	a.page = pageLogin
	a.pages.SwitchToPage(pageLogin)
	a.app.SetFocus(a.login.Form())
}

func (a *App) showChats() {
	a.page = pageChats
	a.pages.SwitchToPage(pageChats)
	a.app.SetFocus(a.chatList)
	a.menu.Update(a.keys.Hints(a.page))
}

func (a *App) openChat(id string) {
	var chat *domain.Chat
	for _, c := range a.svc.Engine.Snapshot().Chats {
		if c.ID == id {
			chat = &c
			break
		}
	}
	if chat == nil {
		return
	}
	a.page = pageChat
	a.pages.SwitchToPage(pageChat)
	a.app.SetFocus(a.composer)
	go func() {
		_ = a.svc.Engine.SelectChat(a.ctx, *chat)
	}()
	a.render()
}

func (a *App) showPrompt(mode ui.PromptMode, text string) {
	a.prompt.Activate(mode)
	a.prompt.SetText(text)
	a.promptActive = true
	a.root.AddItem(a.prompt, 3, 0, true)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	if !a.promptActive {
		return
	}
	a.promptActive = false
	a.root.RemoveItem(a.prompt)
	switch a.page {
	case pageChat:
		a.app.SetFocus(a.composer)
	case pageChats:
		a.app.SetFocus(a.chatList)
	}
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "":
		return
	case CmdQuit:
		a.app.Stop()
		return
	case CmdLogout:
		go a.svc.Coordinator.Logout()
		return
	}

	currentID := ""
	if a.page == pageChat {
		currentID = a.svc.Engine.Snapshot().SelectedChatID
	}
	go func() {
		msg, err := runChatCommand(a.ctx, a.svc.Engine, cmd, currentID)
		a.app.QueueUpdateDraw(func() {
			switch {
			case err == nil:
				a.notices.Info(msg)
				if cmd.Name == CmdPrivate || cmd.Name == CmdGroup {
					a.page = pageChat
					a.pages.SwitchToPage(pageChat)
					a.app.SetFocus(a.composer)
				}
			case errors.Is(err, errUsage), errors.Is(err, errNoChat), errors.Is(err, errUnknownOp):
				a.notices.Warn(err.Error())
			}
			a.render()
		})
	}()
}

// refresh reloads the chat list and reopens the push channel when it gave up.
func (a *App) refresh() {
	state := a.svc.Coordinator.State()
	if !state.IsAuthenticated {
		return
	}
	go func() {
		_ = a.svc.Engine.RefreshChats(a.ctx)
		if a.svc.Push.State() == status.Disconnected {
			if err := a.svc.Push.Connect(a.ctx, state.Credential); err != nil {
				a.logger.Warn("reconnect failed", zap.Error(err))
			}
		}
	}()
	a.notices.Info(fmt.Sprintf("Refreshing %s", a.svc.Profile))
}
