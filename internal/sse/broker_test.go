package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "post.created", Data: map[string]string{"path": "a.md"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: post.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"path":"a.md"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishPostEvent(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishPostEvent("created", "a.md")
	b.PublishPostEvent("updated", "b.md")
	b.PublishPostEvent("deleted", "c.md")

	want := []string{"post.created", "post.updated", "post.deleted"}
	for _, ev := range want {
		select {
		case msg := <-ch:
			if !strings.Contains(string(msg), "event: "+ev) {
				t.Errorf("got %q, want event %s", msg, ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %s", ev)
		}
	}
}

func TestPublishGenerationLifecycle(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishGenerationStarted("dQw4w9WgXcQ")
	b.PublishGenerationCompleted("dQw4w9WgXcQ", "2026-03-14-post.md")
	b.PublishGenerationFailed("dQw4w9WgXcQ", "no transcript available")

	checks := []struct {
		event string
		data  string
	}{
		{"generation.started", `"video_id":"dQw4w9WgXcQ"`},
		{"generation.completed", `"path":"2026-03-14-post.md"`},
		{"generation.failed", `"error":"no transcript available"`},
	}
	for _, c := range checks {
		select {
		case msg := <-ch:
			s := string(msg)
			if !strings.Contains(s, "event: "+c.event) {
				t.Errorf("got %q, want event %s", s, c.event)
			}
			if !strings.Contains(s, c.data) {
				t.Errorf("got %q, want data %s", s, c.data)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %s", c.event)
		}
	}
}

func TestCloseIdempotent(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	b.Close()
	b.Close()

	if _, ok := <-ch; ok {
		t.Error("client channel should be closed")
	}
	if b.ClientCount() != 0 {
		t.Errorf("ClientCount after close = %d", b.ClientCount())
	}
	// Publishing after close must not block.
	b.Publish(Event{Type: "post.created"})
	b.PublishPostEvent("created", "a.md")
}

func TestServeHTTPStreams(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(rec, req)
		close(done)
	}()

	// Wait for the handler to register its subscription.
	deadline := time.Now().Add(time.Second)
	for b.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	b.PublishPostEvent("created", "a.md")
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: post.created") {
		t.Errorf("body missing event: %q", body)
	}
}
