package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatwire/internal/tui/ui"
)

// Composer is the text input for sending messages.
type Composer struct {
	*tview.InputField
	typing   bool
	onSend   func(text string)
	onTyping func(typing bool)
	onLeave  func()
}

// NewComposer creates a new message composer.
func NewComposer(theme *ui.Theme) *Composer {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	c := &Composer{InputField: input}
	input.SetChangedFunc(func(text string) {
		c.setTyping(text != "")
	})
	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			text := c.GetText()
			if text == "" || c.onSend == nil {
				return
			}
			c.SetText("")
			c.onSend(text)
		case tcell.KeyEscape:
			if c.onLeave != nil {
				c.onLeave()
			}
		}
	})
	return c
}

// SetOnSend sets the callback for Enter on a non-empty line.
func (c *Composer) SetOnSend(fn func(text string)) {
	c.onSend = fn
}

// SetOnTyping sets the callback fired when the line goes from empty to
// non-empty and back.
func (c *Composer) SetOnTyping(fn func(typing bool)) {
	c.onTyping = fn
}

// SetOnLeave sets the callback for Esc.
func (c *Composer) SetOnLeave(fn func()) {
	c.onLeave = fn
}

func (c *Composer) setTyping(v bool) {
	if v == c.typing {
		return
	}
	c.typing = v
	if c.onTyping != nil {
		c.onTyping(v)
	}
}
