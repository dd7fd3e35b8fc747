package remote

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dloss/deckview/internal/nav"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// localOrigin matches the hosts the CORS policy allows by default.
func localOrigin(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients), the follower page served by this host, and local origins.
// allowAll accepts everything.
func checkOrigin(allowAll bool) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if allowAll || origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		host := u.Host
		if h, _, err := net.SplitHostPort(u.Host); err == nil {
			host = h
		}
		return localOrigin(strings.Trim(host, "[]"))
	}
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans navigation snapshots out to websocket clients. It is a
// nav.Surface: Render never blocks the caller, and a client that falls
// behind is dropped.
type Hub struct {
	logger   *log.Logger
	dispatch Dispatcher
	total    int
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	current nav.Snapshot
	closed  bool
}

// NewHub accepts websocket connections from local origins only, unless
// allowAll is set.
func NewHub(total int, allowAll bool, dispatch Dispatcher, logger *log.Logger) *Hub {
	if dispatch == nil {
		dispatch = func(Command) {}
	}
	return &Hub{
		logger:   logger,
		dispatch: dispatch,
		total:    total,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin(allowAll)},
		clients:  make(map[*client]struct{}),
	}
}

// Render implements nav.Surface.
func (h *Hub) Render(s nav.Snapshot) {
	data, err := json.Marshal(s)
	if err != nil {
		h.logger.Error("encoding snapshot", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = s
	h.last = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("remote client too slow, dropping", "client", c.id)
			h.removeLocked(c)
		}
	}
}

// Snapshot returns the most recent state and whether one was rendered yet.
func (h *Hub) Snapshot() (nav.Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current, h.last != nil
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "err", err)
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		conn.Close()
		return
	}
	h.logger.Info("remote client connected", "client", c.id, "addr", r.RemoteAddr)

	go h.writePump(c)
	h.readPump(c)
}

// readPump accepts commands from the client until the connection closes.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		h.logger.Info("remote client disconnected", "client", c.id)
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read", "client", c.id, "err", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(msg, &cmd); err != nil {
			h.logger.Warn("bad remote message", "client", c.id, "err", err)
			continue
		}
		if err := cmd.Validate(h.total); err != nil {
			h.logger.Warn("rejected remote command", "client", c.id, "err", err)
			continue
		}
		cmd.Client = c.id
		h.logger.Debug("remote command", "client", c.id, "command", cmd.String())
		h.dispatch(cmd)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
