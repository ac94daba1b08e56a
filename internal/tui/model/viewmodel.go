package model

import (
	"fmt"
	"time"

	"github.com/matheus3301/chatwire/internal/domain"
	intsync "github.com/matheus3301/chatwire/internal/sync"
)

// ChatRow is one rendered line of the chat list.
type ChatRow struct {
	ID       string
	Title    string
	Preview  string
	Time     string
	Group    bool
	Selected bool
}

// MessageLine is one rendered message of the open chat.
type MessageLine struct {
	ID      string
	Sender  string
	Content string
	Time    string
	Own     bool
	// Seen is set on own messages that were read by someone other than the sender.
	Seen bool
}

// Header describes the open chat above the message view.
type Header struct {
	Title    string
	Subtitle string
}

// ChatRows projects the chat list of a snapshot, keeping its order.
func ChatRows(s intsync.Snapshot, now time.Time) []ChatRow {
	rows := make([]ChatRow, 0, len(s.Chats))
	for _, c := range s.Chats {
		row := ChatRow{
			ID:       c.ID,
			Title:    c.Title(s.Self.ID),
			Group:    c.Type == domain.ChatGroup,
			Selected: c.ID == s.SelectedChatID,
		}
		if lm := c.LastMessage; lm != nil {
			row.Time = FormatChatTime(lm.Timestamp, now)
			row.Preview = lm.Content
			if lm.SenderID == s.Self.ID {
				row.Preview = "You: " + lm.Content
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// MessageLines projects the visible messages of a snapshot.
func MessageLines(s intsync.Snapshot, now time.Time) []MessageLine {
	lines := make([]MessageLine, 0, len(s.Visible))
	for _, m := range s.Visible {
		own := m.SenderID == s.Self.ID
		sender := m.SenderID
		if own {
			sender = "You"
		}
		lines = append(lines, MessageLine{
			ID:      m.ID,
			Sender:  sender,
			Content: m.Content,
			Time:    FormatMessageTime(m.Timestamp, now),
			Own:     own,
			Seen:    own && m.Status == domain.StatusRead && len(m.ReadBy) > 1,
		})
	}
	return lines
}

// ChatHeader describes the current chat, or returns false when none is open.
func ChatHeader(s intsync.Snapshot) (Header, bool) {
	c := s.CurrentChat
	if c == nil {
		return Header{}, false
	}
	h := Header{Title: c.Title(s.Self.ID), Subtitle: "Private conversation"}
	if c.Type == domain.ChatGroup {
		h.Subtitle = fmt.Sprintf("%d participants", len(c.Participants))
	}
	return h, true
}
