package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatwire/internal/tui/model"
	"github.com/matheus3301/chatwire/internal/tui/ui"
)

// ChatList is the conversation table, most recent activity first.
type ChatList struct {
	*tview.Table
	theme    *ui.Theme
	rows     []model.ChatRow
	visible  []model.ChatRow
	filter   string
	onSelect func(id string)
}

// NewChatList creates an empty chat list.
func NewChatList(theme *ui.Theme) *ChatList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)

	cl := &ChatList{Table: table, theme: theme}
	table.SetSelectedFunc(func(row, _ int) {
		if id := cl.idAt(row); id != "" && cl.onSelect != nil {
			cl.onSelect(id)
		}
	})
	cl.render()
	return cl
}

// SetOnSelect sets the callback for Enter on a row.
func (cl *ChatList) SetOnSelect(fn func(id string)) {
	cl.onSelect = fn
}

// Update replaces the rows, keeping the cursor on the same chat when it is
// still listed.
func (cl *ChatList) Update(rows []model.ChatRow) {
	keep := cl.SelectedID()
	cl.rows = rows
	cl.render()
	cl.focus(keep)
}

// SetFilter narrows the list to titles or previews containing text.
func (cl *ChatList) SetFilter(text string) {
	cl.filter = strings.ToLower(strings.TrimSpace(text))
	cl.render()
}

// SelectedID returns the chat under the cursor.
func (cl *ChatList) SelectedID() string {
	row, _ := cl.GetSelection()
	return cl.idAt(row)
}

func (cl *ChatList) idAt(row int) string {
	idx := row - 1
	if idx < 0 || idx >= len(cl.visible) {
		return ""
	}
	return cl.visible[idx].ID
}

func (cl *ChatList) focus(id string) {
	for i, r := range cl.visible {
		if r.ID == id {
			cl.Select(i+1, 0)
			return
		}
	}
}

func (cl *ChatList) render() {
	cl.Clear()
	for col, h := range []struct {
		text string
		exp  int
	}{{" CHAT", 1}, {" LAST MESSAGE", 2}, {" TIME", 0}, {" TYPE", 0}} {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	cl.visible = cl.visible[:0]
	for _, r := range cl.rows {
		if cl.filter != "" &&
			!strings.Contains(strings.ToLower(r.Title), cl.filter) &&
			!strings.Contains(strings.ToLower(r.Preview), cl.filter) {
			continue
		}
		cl.visible = append(cl.visible, r)
	}

	for i, r := range cl.visible {
		row := i + 1
		title := " " + sanitize(r.Title)
		if r.Selected {
			title = " *" + sanitize(r.Title)
		}
		kind := "DM"
		if r.Group {
			kind = "GROUP"
		}
		cl.SetCell(row, 0, tview.NewTableCell(title).SetExpansion(1).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 1, tview.NewTableCell(" "+sanitize(r.Preview)).SetExpansion(2).SetMaxWidth(48).SetTextColor(cl.theme.MutedColor))
		cl.SetCell(row, 2, tview.NewTableCell(r.Time+" ").SetAlign(tview.AlignRight).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 3, tview.NewTableCell(kind+" ").SetAlign(tview.AlignRight).SetTextColor(cl.theme.MutedColor))
	}

	switch {
	case len(cl.rows) == 0:
		cl.SetTitle(" No conversations yet: press p or g to start one ")
	case cl.filter != "":
		cl.SetTitle(fmt.Sprintf(" Chats (%d/%d) /%s ", len(cl.visible), len(cl.rows), cl.filter))
	default:
		cl.SetTitle(fmt.Sprintf(" Chats (%d) ", len(cl.rows)))
	}
}
