package ui

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatwire/internal/tui/model"
)

// NoticeBar shows the current transient notice.
type NoticeBar struct {
	*tview.TextView
	theme *Theme
}

// NewNoticeBar creates an empty notice bar.
func NewNoticeBar(theme *Theme) *NoticeBar {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &NoticeBar{TextView: tv, theme: theme}
}

// Update renders n, clearing the bar when n is nil.
func (nb *NoticeBar) Update(n *model.Notice) {
	nb.Clear()
	if n == nil {
		return
	}
	color := nb.theme.NoticeInfoColor
	switch n.Level {
	case model.LevelWarn:
		color = nb.theme.NoticeWarnColor
	case model.LevelError:
		color = nb.theme.NoticeErrColor
	}
	_, _ = fmt.Fprintf(nb, " [%s]%s[-]", Tag(color), tview.Escape(n.Text))
}
