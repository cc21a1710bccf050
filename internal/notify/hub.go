package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const hubWriteTimeout = 5 * time.Second

type wsMessage struct {
	Type         string       `json:"type"`
	Notification Notification `json:"notification"`
}

// Hub pushes new notifications to the parents connected over websocket.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*websocket.Conn]struct{})}
}

// ServeHTTP upgrades the request and keeps the connection registered for
// the parent named by the parent_id query parameter until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parentID := r.URL.Query().Get("parent_id")
	if parentID == "" {
		http.Error(w, "parent_id is required", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		slog.Warn("websocket accept failed", "parent_id", parentID, "error", err)
		return
	}

	h.add(parentID, conn)
	slog.Debug("notification client connected", "parent_id", parentID)
	defer func() {
		h.remove(parentID, conn)
		conn.CloseNow()
		slog.Debug("notification client disconnected", "parent_id", parentID)
	}()

	// Clients only listen; CloseRead handles control frames and ends the
	// context when the peer goes away.
	ctx := conn.CloseRead(r.Context())
	<-ctx.Done()
}

func (h *Hub) add(parentID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[parentID]
	if !ok {
		set = make(map[*websocket.Conn]struct{})
		h.clients[parentID] = set
	}
	set[conn] = struct{}{}
}

func (h *Hub) remove(parentID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[parentID]
	delete(set, conn)
	if len(set) == 0 {
		delete(h.clients, parentID)
	}
}

// Connections returns the number of live connections for a parent.
func (h *Hub) Connections(parentID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[parentID])
}

// Publish sends n to every connection of its parent and returns how many
// received it. Write failures drop that connection.
func (h *Hub) Publish(ctx context.Context, n Notification) int {
	data, err := json.Marshal(wsMessage{Type: "notification", Notification: n})
	if err != nil {
		slog.Error("marshal notification", "error", err)
		return 0
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients[n.ParentID]))
	for c := range h.clients[n.ParentID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range conns {
		wctx, cancel := context.WithTimeout(ctx, hubWriteTimeout)
		err := c.Write(wctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			slog.Warn("push notification failed", "parent_id", n.ParentID, "error", err)
			h.remove(n.ParentID, c)
			c.CloseNow()
			continue
		}
		sent++
	}
	return sent
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for parentID, set := range h.clients {
		for c := range set {
			c.Close(websocket.StatusGoingAway, "server shutting down")
		}
		delete(h.clients, parentID)
	}
}
