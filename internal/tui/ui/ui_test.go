package ui

import (
	"strings"
	"testing"

	"github.com/matheus3301/chatwire/internal/tui/keys"
	"github.com/matheus3301/chatwire/internal/tui/model"
)

func TestPromptHistory(t *testing.T) {
	p := NewPrompt(DefaultTheme())
	var got []string
	p.SetOnSubmit(func(_ PromptMode, text string) { got = append(got, text) })

	p.Activate(PromptCommand)
	p.Submit("refresh")
	p.Submit("refresh")
	p.Submit("private bob")
	if h := p.History(); len(h) != 2 || h[0] != "refresh" || h[1] != "private bob" {
		t.Fatalf("History() = %v", h)
	}
	if len(got) != 3 {
		t.Errorf("submitted %d lines, want 3", len(got))
	}

	p.Activate(PromptCommand)
	p.recall(-1)
	if p.GetText() != "private bob" {
		t.Errorf("first recall = %q", p.GetText())
	}
	p.recall(-1)
	p.recall(-1) // stays on the oldest entry
	if p.GetText() != "refresh" {
		t.Errorf("second recall = %q", p.GetText())
	}
	p.recall(1)
	p.recall(1)
	if p.GetText() != "" {
		t.Errorf("past newest = %q, want empty", p.GetText())
	}
}

func TestFilterIsNotRecorded(t *testing.T) {
	p := NewPrompt(DefaultTheme())
	p.Activate(PromptFilter)
	p.Submit("bob")
	if len(p.History()) != 0 {
		t.Errorf("filter text leaked into history: %v", p.History())
	}
}

func TestFormatHints(t *testing.T) {
	got := FormatHints([]keys.Hint{{Key: "Enter", Description: "Open"}, {Key: "q", Description: "Quit"}}, "blue")
	for _, want := range []string{"[blue::b]<Enter>[-:-:-] Open", "<q>[-:-:-] Quit"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatHints() = %q, missing %q", got, want)
		}
	}
}

func TestNoticeBar(t *testing.T) {
	nb := NewNoticeBar(DefaultTheme())
	nb.Update(&model.Notice{Text: "Login failed: bad password", Level: model.LevelError})
	if got := nb.GetText(true); !strings.Contains(got, "Login failed: bad password") {
		t.Errorf("notice text = %q", got)
	}
	nb.Update(nil)
	if got := nb.GetText(true); got != "" {
		t.Errorf("cleared text = %q", got)
	}
}
