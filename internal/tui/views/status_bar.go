package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatwire/internal/status"
	"github.com/matheus3301/chatwire/internal/tui/ui"
)

// StatusBar displays the profile, signed-in user and push channel state.
type StatusBar struct {
	*tview.TextView
	theme   *ui.Theme
	profile string
	user    string
	channel status.State
	loading bool
	now     func() time.Time
}

// NewStatusBar creates a status bar for profile.
func NewStatusBar(theme *ui.Theme, profile string) *StatusBar {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	sb := &StatusBar{
		TextView: tv,
		theme:    theme,
		profile:  profile,
		channel:  status.Disconnected,
		now:      time.Now,
	}
	sb.render()
	return sb
}

// SetUser updates the signed-in username. Empty means signed out.
func (sb *StatusBar) SetUser(name string) {
	sb.user = name
	sb.render()
}

// SetChannel updates the push channel state.
func (sb *StatusBar) SetChannel(s status.State) {
	sb.channel = s
	sb.render()
}

// SetLoading toggles the busy indicator.
func (sb *StatusBar) SetLoading(v bool) {
	sb.loading = v
	sb.render()
}

// Refresh redraws the clock.
func (sb *StatusBar) Refresh() {
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()
	user := sb.user
	if user == "" {
		user = "signed out"
	}
	color := sb.theme.OfflineColor
	switch sb.channel {
	case status.Connected:
		color = sb.theme.OnlineColor
	case status.Connecting, status.Reconnecting:
		color = sb.theme.NoticeWarnColor
	}
	busy := " "
	if sb.loading {
		busy = "[yellow]~[-]"
	}
	_, _ = fmt.Fprintf(sb, " [::b]%s[-:-:-] | %s | [%s]%s[-] %s | %s",
		tview.Escape(sb.profile), sanitize(user), ui.Tag(color), sb.channel, busy, sb.now().Format("15:04"))
}
