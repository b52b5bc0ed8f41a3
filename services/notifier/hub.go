package notifsvc

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/ratiba/core"
)

// subscriberBuffer bounds how many undelivered events a subscriber may queue
// before newer events are dropped for it.
const subscriberBuffer = 16

// Hub pushes attendance events to websocket subscribers. Delivery is
// best-effort: a slow subscriber loses events, a broken one is dropped,
// and publishing never blocks on either.
type Hub struct {
	logger   core.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*hubClient]struct{}
}

// hubClient owns its connection's writes: a single goroutine drains send,
// so the connection never sees concurrent writers.
type hubClient struct {
	conn *websocket.Conn
	send chan *core.AttendanceEvent
}

var _ core.EventService = (*Hub)(nil)

func NewHub(logger core.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*hubClient]struct{}),
	}
}

// Handler upgrades the connection and keeps it subscribed until the client
// goes away.
func (h *Hub) Handler(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &hubClient{conn: conn, send: make(chan *core.AttendanceEvent, subscriberBuffer)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	go h.writeLoop(cl)
	defer h.remove(cl)

	// drain control/client messages; exit on error
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

func (h *Hub) writeLoop(cl *hubClient) {
	for evt := range cl.send {
		if err := cl.conn.WriteJSON(evt); err != nil {
			h.logger.Warn("dropping live attendance subscriber", err)
			h.remove(cl)
			return
		}
	}
}

// remove is idempotent; the read and write loops both call it.
func (h *Hub) remove(cl *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	h.mu.Unlock()
	_ = cl.conn.Close()
}

func (h *Hub) Publish(events ...*core.AttendanceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, evt := range events {
		for cl := range h.clients {
			select {
			case cl.send <- evt:
			default: // subscriber too far behind, drop the event
			}
		}
	}
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	for cl := range h.clients {
		delete(h.clients, cl)
		close(cl.send)
		_ = cl.conn.Close()
	}
	h.mu.Unlock()
}
