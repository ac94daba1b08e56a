package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatwire/internal/tui/model"
	"github.com/matheus3301/chatwire/internal/tui/ui"
)

// MessageView displays the messages of the open chat, oldest first.
type MessageView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewMessageView creates an empty message view.
func NewMessageView(theme *ui.Theme) *MessageView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTitleColor(theme.TitleColor)
	return &MessageView{TextView: tv, theme: theme}
}

// SetHeader shows the chat title and its subtitle in the border.
func (mv *MessageView) SetHeader(h model.Header) {
	mv.SetTitle(fmt.Sprintf(" %s [::d](%s)[-:-:-] ", sanitize(h.Title), h.Subtitle))
}

// Update replaces the rendered messages. loading shows a placeholder while
// the first page is fetched.
func (mv *MessageView) Update(lines []model.MessageLine, loading bool) {
	mv.Clear()
	switch {
	case loading && len(lines) == 0:
		_, _ = fmt.Fprint(mv, "\n  [::d]Loading messages...[-:-:-]")
		return
	case len(lines) == 0:
		_, _ = fmt.Fprint(mv, "\n  [::d]No messages yet. Say hello![-:-:-]")
		return
	}

	for _, l := range lines {
		color := mv.theme.PeerMessageColor
		if l.Own {
			color = mv.theme.OwnMessageColor
		}
		tick := ""
		if l.Own {
			tick = " ✓"
			if l.Seen {
				tick = fmt.Sprintf(" [%s]✓✓[-]", ui.Tag(mv.theme.SeenColor))
			}
		}
		_, _ = fmt.Fprintf(mv, "[%s::b]%s[-:-:-] [::d]%s[-:-:-]%s\n%s\n\n",
			ui.Tag(color), sanitize(l.Sender), l.Time, tick, sanitize(l.Content))
	}
	mv.ScrollToEnd()
}
