package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatwire/internal/tui/keys"
)

// Menu renders key hints on a single line.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates an empty hint line.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &Menu{TextView: tv, theme: theme}
}

// Update replaces the hints.
func (m *Menu) Update(hints []keys.Hint) {
	m.Clear()
	_, _ = fmt.Fprint(m, FormatHints(hints, Tag(m.theme.MenuKeyColor)))
}

// FormatHints renders hints as "<key> description" pairs using color for keys.
func FormatHints(hints []keys.Hint, color string) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, fmt.Sprintf("[%s::b]<%s>[-:-:-] %s", color, tview.Escape(h.Key), h.Description))
	}
	return " " + strings.Join(parts, "  ")
}
