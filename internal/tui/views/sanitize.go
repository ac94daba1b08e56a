package views

import (
	"strings"

	"github.com/rivo/tview"
)

// sanitize strips codepoints tcell renders at the wrong width and escapes
// tview color tags so message text cannot restyle the screen.
func sanitize(s string) string {
	return tview.Escape(strings.Map(func(r rune) rune {
		if combining(r) {
			return -1
		}
		return r
	}, s))
}

// combining reports emoji modifiers, joiners and variation selectors.
func combining(r rune) bool {
	switch {
	case r >= 0x1F3FB && r <= 0x1F3FF: // skin tones
		return true
	case r == 0x200D: // zero width joiner
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	}
	return false
}
