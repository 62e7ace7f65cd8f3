package sse

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPublishReachesSubscribers(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "ping", Data: map[string]string{"k": "v"}})

	select {
	case msg := <-ch:
		got := string(msg)
		if !strings.Contains(got, "event: ping") || !strings.Contains(got, `"k":"v"`) {
			t.Errorf("message = %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestNodeEventThrottlesTreeChanged(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishNodeEvent("created", "n1")
	b.PublishNodeEvent("updated", "n1")

	var msgs []string
	timeout := time.After(2 * time.Second)
	for len(msgs) < 3 {
		select {
		case msg := <-ch:
			msgs = append(msgs, string(msg))
		case <-timeout:
			t.Fatalf("only got %d messages: %v", len(msgs), msgs)
		}
	}

	joined := strings.Join(msgs, "")
	if !strings.Contains(joined, "event: node.created") {
		t.Errorf("missing node.created: %v", msgs)
	}
	if !strings.Contains(joined, "event: node.updated") {
		t.Errorf("missing node.updated: %v", msgs)
	}
	if n := strings.Count(joined, "event: tree.changed"); n != 1 {
		t.Errorf("tree.changed count = %d, want 1 (throttled)", n)
	}

	// Nothing further should arrive.
	select {
	case msg := <-ch:
		t.Errorf("unexpected extra message %q", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()

	ch := b.Subscribe()
	for b.ClientCount() != 1 {
		time.Sleep(time.Millisecond)
	}
	b.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}

	if n := b.ClientCount(); n != 0 {
		t.Errorf("client count = %d, want 0", n)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b := NewBroker(0)
	ch := b.Subscribe()
	b.Close()
	b.Close()

	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed after Close")
	}
	if n := b.ClientCount(); n != 0 {
		t.Errorf("client count after close = %d", n)
	}
}

func TestServeHTTPStreamsEvents(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	req := httptest.NewRequest("GET", "/api/events", nil)
	ctx, cancel := context.WithTimeout(req.Context(), time.Second)
	defer cancel()
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(rec, req)
		close(done)
	}()

	// Wait for the subscription before publishing.
	for b.ClientCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	b.PublishNodeEvent("deleted", "gone")

	<-done
	body := rec.Body.String()
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type = %q", got)
	}
	if !strings.Contains(body, "event: node.deleted") || !strings.Contains(body, `"id":"gone"`) {
		t.Errorf("body = %q", body)
	}
}
