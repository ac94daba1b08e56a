package model

import (
	"testing"
	"time"

	"github.com/matheus3301/chatwire/internal/domain"
	intsync "github.com/matheus3301/chatwire/internal/sync"
)

var now = time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC) // a Friday

func TestFormatChatTime(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"zero", time.Time{}, ""},
		{"today", time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC), "09:05"},
		{"this week", time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC), "Tuesday"},
		{"older", time.Date(2025, 2, 2, 9, 0, 0, 0, time.UTC), "Feb 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatChatTime(tt.at, now); got != tt.want {
				t.Errorf("FormatChatTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatMessageTime(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"today", time.Date(2025, 3, 14, 14, 59, 0, 0, time.UTC), "14:59"},
		{"yesterday evening", now.Add(-20 * time.Hour), "about 20 hours ago"},
		{"days", now.Add(-3 * 24 * time.Hour), "3 days ago"},
		{"months", now.Add(-90 * 24 * time.Hour), "3 months ago"},
		{"years", now.Add(-800 * 24 * time.Hour), "about 2 years ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMessageTime(tt.at, now); got != tt.want {
				t.Errorf("FormatMessageTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNoticesExpire(t *testing.T) {
	clock := now
	n := NewNotices()
	n.now = func() time.Time { return clock }

	if n.Current() != nil {
		t.Fatal("new Notices should be empty")
	}
	n.Error("boom")
	got := n.Current()
	if got == nil || got.Text != "boom" || got.Level != LevelError {
		t.Fatalf("Current() = %+v", got)
	}
	clock = clock.Add(11 * time.Second)
	if n.Current() != nil {
		t.Error("notice should have expired")
	}
}

func snapshot() intsync.Snapshot {
	self := domain.Identity{ID: "me"}
	group := domain.Chat{
		ID: "g1", Type: domain.ChatGroup, Name: "team", Participants: []string{"me", "a", "b"},
		LastMessage: &domain.LastMessage{Content: "hi all", SenderID: "me", Timestamp: now.Add(-time.Hour)},
	}
	private := domain.Chat{ID: "p1", Type: domain.ChatPrivate, Participants: []string{"me", "bob"}}
	return intsync.Snapshot{
		Self:           self,
		Authenticated:  true,
		Chats:          []domain.Chat{group, private},
		SelectedChatID: "g1",
		CurrentChat:    &group,
		Visible: []domain.Message{
			{ID: "m1", SenderID: "a", Content: "hello", Timestamp: now.Add(-2 * time.Hour), Status: domain.StatusSent},
			{ID: "m2", SenderID: "me", Content: "hi all", Timestamp: now.Add(-time.Hour), Status: domain.StatusRead, ReadBy: []string{"me", "a"}},
		},
	}
}

func TestChatRows(t *testing.T) {
	rows := ChatRows(snapshot(), now)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	g := rows[0]
	if g.Title != "team" || !g.Group || !g.Selected {
		t.Errorf("group row = %+v", g)
	}
	if g.Preview != "You: hi all" || g.Time != "14:00" {
		t.Errorf("group preview/time = %q/%q", g.Preview, g.Time)
	}
	p := rows[1]
	if p.Title != "Chat with bob" || p.Preview != "" || p.Time != "" || p.Selected {
		t.Errorf("private row = %+v", p)
	}
}

func TestMessageLines(t *testing.T) {
	lines := MessageLines(snapshot(), now)
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d", len(lines))
	}
	if lines[0].Sender != "a" || lines[0].Own || lines[0].Seen {
		t.Errorf("incoming line = %+v", lines[0])
	}
	if lines[1].Sender != "You" || !lines[1].Own || !lines[1].Seen {
		t.Errorf("own line = %+v", lines[1])
	}
}

func TestChatHeader(t *testing.T) {
	s := snapshot()
	h, ok := ChatHeader(s)
	if !ok || h.Title != "team" || h.Subtitle != "3 participants" {
		t.Errorf("ChatHeader() = %+v, %v", h, ok)
	}
	s.CurrentChat = nil
	if _, ok := ChatHeader(s); ok {
		t.Error("ChatHeader() with no chat should report false")
	}
}
