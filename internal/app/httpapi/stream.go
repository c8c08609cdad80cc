package httpapi

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The widget is embedded cross-origin by design.
	CheckOrigin: func(*http.Request) bool { return true },
}

const streamWriteTimeout = 10 * time.Second

// streamGrid pushes the shared document snapshot to the UI over a websocket:
// the current snapshot on connect, then every change. Slow consumers only
// ever miss intermediate snapshots, never the latest.
func (h *handler) streamGrid(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("grid stream upgrade failed")
		return
	}
	defer conn.Close()

	snapshots, cancel := h.app.Store.Subscribe()
	defer cancel()

	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := conn.WriteJSON(h.app.Store.Current()); err != nil {
		return
	}

	// Drain the read side so close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		}
	}
}

// Hijack lets the websocket upgrade work through the metrics wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return r.ResponseWriter.(http.Hijacker).Hijack()
}
