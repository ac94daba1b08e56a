package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func runeEvent(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestHandleEventPrefersViewBinding(t *testing.T) {
	r := NewRegistry()
	var got string
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'n', Handler: func() { got = "global" }})
	r.AddView("chats", &Action{Key: tcell.KeyRune, Rune: 'n', Handler: func() { got = "view" }})

	if !r.HandleEvent("chats", runeEvent('n')) || got != "view" {
		t.Errorf("chats view: got %q, want view", got)
	}
	if !r.HandleEvent("chat", runeEvent('n')) || got != "global" {
		t.Errorf("chat view: got %q, want global", got)
	}
	if r.HandleEvent("chats", runeEvent('x')) {
		t.Error("unbound rune should not be handled")
	}
}

func TestHandleEventSpecialKey(t *testing.T) {
	r := NewRegistry()
	hit := false
	r.AddView("chat", &Action{Key: tcell.KeyEscape, Handler: func() { hit = true }})
	if !r.HandleEvent("chat", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) || !hit {
		t.Error("Esc binding did not fire")
	}
}

func TestHintsOrderAndVisibility(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'q', Description: "Quit", Visible: true, Handler: func() {}})
	r.AddView("chats", &Action{Key: tcell.KeyEnter, Label: "Enter", Description: "Open", Visible: true, Handler: func() {}})
	r.AddView("chats", &Action{Key: tcell.KeyRune, Rune: 'g', Description: "Group", Visible: true, Handler: func() {}})
	r.AddView("chats", &Action{Key: tcell.KeyRune, Rune: 'z', Description: "hidden", Handler: func() {}})

	want := []Hint{{"Enter", "Open"}, {"g", "Group"}, {"q", "Quit"}}
	got := r.Hints("chats")
	if len(got) != len(want) {
		t.Fatalf("Hints() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Hints()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
