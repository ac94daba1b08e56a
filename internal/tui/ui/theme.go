package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Theme holds the palette shared by every view.
type Theme struct {
	BgColor          tcell.Color
	FgColor          tcell.Color
	MutedColor       tcell.Color
	BorderColor      tcell.Color
	TitleColor       tcell.Color
	TableHeaderFg    tcell.Color
	TableCursorFg    tcell.Color
	TableCursorBg    tcell.Color
	OwnMessageColor  tcell.Color
	PeerMessageColor tcell.Color
	SeenColor        tcell.Color
	MenuKeyColor     tcell.Color
	NoticeInfoColor  tcell.Color
	NoticeWarnColor  tcell.Color
	NoticeErrColor   tcell.Color
	OnlineColor      tcell.Color
	OfflineColor     tcell.Color
}

// DefaultTheme returns the dark palette.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:          tcell.ColorBlack,
		FgColor:          tcell.ColorCadetBlue,
		MutedColor:       tcell.ColorGray,
		BorderColor:      tcell.ColorDodgerBlue,
		TitleColor:       tcell.ColorFuchsia,
		TableHeaderFg:    tcell.ColorWhite,
		TableCursorFg:    tcell.ColorBlack,
		TableCursorBg:    tcell.ColorAqua,
		OwnMessageColor:  tcell.ColorLightSkyBlue,
		PeerMessageColor: tcell.ColorPapayaWhip,
		SeenColor:        tcell.ColorDodgerBlue,
		MenuKeyColor:     tcell.ColorDodgerBlue,
		NoticeInfoColor:  tcell.ColorNavajoWhite,
		NoticeWarnColor:  tcell.ColorOrange,
		NoticeErrColor:   tcell.ColorOrangeRed,
		OnlineColor:      tcell.ColorGreen,
		OfflineColor:     tcell.ColorOrangeRed,
	}
}

// Tag returns c as a tview color tag name.
func Tag(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
