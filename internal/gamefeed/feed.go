// Package gamefeed bridges the injected game page to the host: the page
// opens a local websocket and forwards session and game events as JSON
// frames, which the feed decodes and hands to the event dispatcher in
// arrival order.
package gamefeed

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/veldt-labs/gamehost/internal/logging"
	"github.com/veldt-labs/gamehost/plugin"
)

// Dispatcher receives decoded game events. *gamehost.Host implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev plugin.Event)
}

const (
	readLimit  = 1 << 20
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// Feed accepts one or more page connections and pumps their events into the
// dispatcher.
type Feed struct {
	upgrader   websocket.Upgrader
	dispatcher Dispatcher
}

// New creates a feed delivering into d.
func New(d Dispatcher) *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		dispatcher: d,
	}
}

// frame is the wire shape the page shim sends: an event name plus its
// arguments, forwarded verbatim from the game's own event emitter.
type frame struct {
	Event string `json:"event"`
	Args  []any  `json:"args,omitempty"`
}

// Handler upgrades the connection and runs the read loop until the page
// disconnects. Malformed frames close the connection; the page reconnects
// with fresh state.
func (f *Feed) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := f.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.FromContext(r.Context()).Warn("game feed upgrade failed", "error", err)
			return
		}
		// The upgrade hijacked the connection, so the handler blocks here
		// for the life of the socket. Returning instead would cancel
		// r.Context() and every event would reach plugins already canceled.
		f.readLoop(r.Context(), conn)
	}
}

func (f *Feed) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()
	log := logging.FromContext(ctx)

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stopPings := f.keepAlive(conn)
	defer stopPings()

	for {
		var fr frame
		if err := conn.ReadJSON(&fr); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("game feed closed", "error", err)
			}
			return
		}
		if fr.Event == "" {
			continue
		}
		f.dispatcher.Dispatch(ctx, plugin.Event{Name: fr.Event, Args: fr.Args})
	}
}

func (f *Feed) keepAlive(conn *websocket.Conn) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}
