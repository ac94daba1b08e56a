package model

import (
	"fmt"
	"math"
	"time"
)

// FormatMessageTime renders a message timestamp: the clock time for today,
// otherwise a relative distance such as "3 days ago".
func FormatMessageTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if sameDay(t, now) {
		return t.Format("15:04")
	}
	return distance(now.Sub(t))
}

// FormatChatTime renders the last-activity column of the chat list: the
// clock time for today, the weekday within a week, the date after that.
func FormatChatTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if sameDay(t, now) {
		return t.Format("15:04")
	}
	if now.Sub(t) < 7*24*time.Hour {
		return t.Format("Monday")
	}
	return t.Format("Jan 2")
}

func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// distance approximates a human relative duration with an "ago" or "in"
// suffix depending on the sign of d.
func distance(d time.Duration) string {
	future := d < 0
	if future {
		d = -d
	}
	minutes := int(math.Round(d.Minutes()))

	var s string
	switch {
	case minutes < 1:
		s = "less than a minute"
	case minutes == 1:
		s = "1 minute"
	case minutes < 45:
		s = fmt.Sprintf("%d minutes", minutes)
	case minutes < 90:
		s = "about 1 hour"
	case minutes < 24*60:
		s = fmt.Sprintf("about %d hours", int(math.Round(float64(minutes)/60)))
	case minutes < 42*60:
		s = "1 day"
	case minutes < 30*24*60:
		s = fmt.Sprintf("%d days", int(math.Round(float64(minutes)/(24*60))))
	case minutes < 60*24*60:
		s = "about 1 month"
	case minutes < 365*24*60:
		s = fmt.Sprintf("%d months", int(math.Round(float64(minutes)/(30*24*60))))
	default:
		years := minutes / (365 * 24 * 60)
		if years == 1 {
			s = "about 1 year"
		} else {
			s = fmt.Sprintf("about %d years", years)
		}
	}
	if future {
		return "in " + s
	}
	return s + " ago"
}
