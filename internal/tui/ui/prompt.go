package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode selects what a submitted prompt line means.
type PromptMode int

const (
	PromptCommand PromptMode = iota
	PromptFilter
)

const historyLimit = 50

// Prompt is the ':' command and '/' filter line. Submitted commands are
// kept in a history recalled with Up and Down.
type Prompt struct {
	*tview.InputField
	mode     PromptMode
	history  []string
	cursor   int
	onSubmit func(mode PromptMode, text string)
	onCancel func()
}

// NewPrompt creates a prompt line.
func NewPrompt(theme *Theme) *Prompt {
	p := &Prompt{InputField: tview.NewInputField()}
	p.SetBorder(true)
	p.SetBorderColor(theme.BorderColor)
	p.SetBackgroundColor(theme.BgColor)
	p.SetFieldBackgroundColor(theme.BgColor)
	p.SetFieldTextColor(theme.FgColor)
	p.SetLabelColor(theme.MenuKeyColor)

	p.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if p.mode != PromptCommand {
			return ev
		}
		switch ev.Key() {
		case tcell.KeyUp:
			p.recall(-1)
			return nil
		case tcell.KeyDown:
			p.recall(1)
			return nil
		}
		return ev
	})
	p.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			p.Submit(p.GetText())
		case tcell.KeyEscape:
			p.SetText("")
			if p.onCancel != nil {
				p.onCancel()
			}
		}
	})
	return p
}

// SetOnSubmit sets the callback for Enter.
func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) {
	p.onSubmit = fn
}

// SetOnCancel sets the callback for Esc.
func (p *Prompt) SetOnCancel(fn func()) {
	p.onCancel = fn
}

// Activate resets the prompt into mode.
func (p *Prompt) Activate(mode PromptMode) {
	p.mode = mode
	p.cursor = len(p.history)
	p.SetText("")
	switch mode {
	case PromptCommand:
		p.SetLabel(":")
		p.SetTitle(" Command ")
	case PromptFilter:
		p.SetLabel("/")
		p.SetTitle(" Filter ")
	}
}

// Submit records text in the command history and fires the submit callback.
func (p *Prompt) Submit(text string) {
	p.SetText("")
	if p.mode == PromptCommand && text != "" {
		if n := len(p.history); n == 0 || p.history[n-1] != text {
			p.history = append(p.history, text)
		}
		if len(p.history) > historyLimit {
			p.history = p.history[len(p.history)-historyLimit:]
		}
		p.cursor = len(p.history)
	}
	if p.onSubmit != nil {
		p.onSubmit(p.mode, text)
	}
}

// History returns the submitted commands, oldest first.
func (p *Prompt) History() []string {
	return append([]string(nil), p.history...)
}

func (p *Prompt) recall(step int) {
	next := p.cursor + step
	if next < 0 || next > len(p.history) {
		return
	}
	p.cursor = next
	if next == len(p.history) {
		p.SetText("")
		return
	}
	p.SetText(p.history[next])
}
