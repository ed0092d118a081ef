package ws

import (
	"sync"

	"github.com/kiliankoe/undercover/internal/game"
)

// Conn is one live client connection, whatever the transport.
// Emit must not block.
type Conn interface {
	ID() string
	Emit(msg game.Message)
}

type member struct {
	conn     Conn
	roomID   string
	playerID string
}

// Hub is the process-wide connection directory. It knows every open
// connection and which room and player each one is bound to.
type Hub struct {
	mu      sync.RWMutex
	conns   map[string]*member
	members map[string]map[string]struct{} // roomID -> connIDs
}

func NewHub() *Hub {
	return &Hub{
		conns:   make(map[string]*member),
		members: make(map[string]map[string]struct{}),
	}
}

func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID()] = &member{conn: c}
}

// Unregister forgets a closed connection and its binding.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unbind(connID)
	delete(h.conns, connID)
}

func (h *Hub) Attach(connID, roomID, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := h.conns[connID]
	if m == nil {
		return
	}
	h.unbind(connID)
	m.roomID, m.playerID = roomID, playerID
	if h.members[roomID] == nil {
		h.members[roomID] = make(map[string]struct{})
	}
	h.members[roomID][connID] = struct{}{}
}

func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unbind(connID)
}

func (h *Hub) Lookup(connID string) (string, string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m := h.conns[connID]
	if m == nil || m.roomID == "" {
		return "", "", false
	}
	return m.roomID, m.playerID, true
}

func (h *Hub) Send(connID string, msg game.Message) {
	h.mu.RLock()
	m := h.conns[connID]
	h.mu.RUnlock()
	if m != nil {
		m.conn.Emit(msg)
	}
}

// Broadcast emits msg to every connection bound to roomID except those
// speaking for excludePlayerID.
func (h *Hub) Broadcast(roomID string, msg game.Message, excludePlayerID string) {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.members[roomID]))
	for id := range h.members[roomID] {
		m := h.conns[id]
		if m == nil || (excludePlayerID != "" && m.playerID == excludePlayerID) {
			continue
		}
		targets = append(targets, m.conn)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.Emit(msg)
	}
}

// RoomSize is the number of connections bound to roomID.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members[roomID])
}

func (h *Hub) unbind(connID string) {
	m := h.conns[connID]
	if m == nil || m.roomID == "" {
		return
	}
	if set := h.members[m.roomID]; set != nil {
		delete(set, connID)
		if len(set) == 0 {
			delete(h.members, m.roomID)
		}
	}
	m.roomID, m.playerID = "", ""
}
