package gamefeed

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/veldt-labs/gamehost/plugin"
)

type capturingDispatcher struct {
	mu      sync.Mutex
	events  []plugin.Event
	ctxErrs []error
	gotOne  chan struct{}
}

func newCapturingDispatcher() *capturingDispatcher {
	return &capturingDispatcher{gotOne: make(chan struct{}, 16)}
}

func (d *capturingDispatcher) Dispatch(ctx context.Context, ev plugin.Event) {
	d.mu.Lock()
	d.events = append(d.events, ev)
	d.ctxErrs = append(d.ctxErrs, ctx.Err())
	d.mu.Unlock()
	d.gotOne <- struct{}{}
}

func (d *capturingDispatcher) snapshot() []plugin.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]plugin.Event(nil), d.events...)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestFeedDeliversEventsInOrder(t *testing.T) {
	d := newCapturingDispatcher()
	srv := httptest.NewServer(New(d).Handler())
	defer srv.Close()
	conn := dial(t, srv)

	frames := []string{
		`{"event":"login","args":["alice"]}`,
		`{"event":"tick"}`,
		`{"event":"chat","args":["hello there"]}`,
	}
	for _, f := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < len(frames); i++ {
		select {
		case <-d.gotOne:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d events arrived", i)
		}
	}

	events := d.snapshot()
	want := []string{"login", "tick", "chat"}
	for i, name := range want {
		if events[i].Name != name {
			t.Errorf("events[%d] = %q, want %q", i, events[i].Name, name)
		}
	}
	if events[0].Args[0] != "alice" {
		t.Errorf("login args = %v", events[0].Args)
	}
}

func TestFeedContextStaysLive(t *testing.T) {
	d := newCapturingDispatcher()
	srv := httptest.NewServer(New(d).Handler())
	defer srv.Close()
	conn := dial(t, srv)

	// Leave the connection idle first; if the handler had returned, the
	// request context would already be canceled by the time a frame arrives.
	time.Sleep(100 * time.Millisecond)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"login","args":["alice"]}`)); err != nil {
		t.Fatal(err)
	}
	select {
	case <-d.gotOne:
	case <-time.After(2 * time.Second):
		t.Fatal("event never arrived")
	}

	d.mu.Lock()
	ctxErr := d.ctxErrs[0]
	d.mu.Unlock()
	if ctxErr != nil {
		t.Errorf("dispatch context error = %v, want nil", ctxErr)
	}
}

func TestFeedIgnoresUnnamedFrames(t *testing.T) {
	d := newCapturingDispatcher()
	srv := httptest.NewServer(New(d).Handler())
	defer srv.Close()
	conn := dial(t, srv)

	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"args":[1]}`))
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"real"}`))

	select {
	case <-d.gotOne:
	case <-time.After(2 * time.Second):
		t.Fatal("named event never arrived")
	}
	events := d.snapshot()
	if len(events) != 1 || events[0].Name != "real" {
		t.Errorf("events = %v", events)
	}
}
