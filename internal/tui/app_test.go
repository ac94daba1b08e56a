package tui

import (
	"context"
	"testing"
	"time"

	"github.com/matheus3301/chatwire/internal/bus"
)

func TestForwardStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan bus.Event, 4)
	applied := make(chan string, 4)
	done := make(chan struct{})
	go func() {
		forward(ctx, events, func(evt bus.Event) { applied <- evt.Kind })
		close(done)
	}()

	events <- bus.Event{Kind: bus.KindChatsLoaded}
	select {
	case k := <-applied:
		if k != bus.KindChatsLoaded {
			t.Errorf("applied %q", k)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not forwarded")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("forward still running after cancel")
	}

	events <- bus.Event{Kind: bus.KindNoticeInfo}
	select {
	case k := <-applied:
		t.Errorf("applied %q after cancel", k)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestForwardStopsWhenEventsClose(t *testing.T) {
	events := make(chan bus.Event)
	done := make(chan struct{})
	go func() {
		forward(context.Background(), events, func(bus.Event) {})
		close(done)
	}()
	close(events)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("forward did not return on closed channel")
	}
}
