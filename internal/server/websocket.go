package server

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// wsHub pushes per-viewer snapshots to connected clients after every
// mutation. Polling GET /api/sessions/{id} remains equivalent; the hub is
// only a latency optimization.
type wsHub struct {
	mu    sync.Mutex
	conns map[string]map[*wsClient]struct{}
}

type wsClient struct {
	conn     *websocket.Conn
	viewerID string
	send     chan map[string]any
}

func newWSHub() *wsHub {
	return &wsHub{
		conns: make(map[string]map[*wsClient]struct{}),
	}
}

func (h *wsHub) add(sessionID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.conns[sessionID]
	if !ok {
		group = make(map[*wsClient]struct{})
		h.conns[sessionID] = group
	}
	group[client] = struct{}{}
}

func (h *wsHub) remove(sessionID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if group, ok := h.conns[sessionID]; ok {
		delete(group, client)
		if len(group) == 0 {
			delete(h.conns, sessionID)
		}
	}
	close(client.send)
}

func (h *wsHub) clients(sessionID string) []*wsClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.conns[sessionID]
	list := make([]*wsClient, 0, len(group))
	for client := range group {
		list = append(list, client)
	}
	return list
}

// deliver hands a payload to a client if it is still registered. Holding the
// hub mutex here pairs with remove(), which closes the channel under the
// same mutex, so a send can never hit a closed channel.
func (h *wsHub) deliver(sessionID string, client *wsClient, payload map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, still := h.conns[sessionID][client]; !still {
		return
	}
	select {
	case client.send <- payload:
	default:
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if _, ok := s.store.GetSession(sessionID); !ok {
		http.NotFound(w, r)
		return
	}
	userID := viewerID(w, r)
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed session_id=%s err=%v", sessionID, err)
		return
	}
	client := &wsClient{
		conn:     conn,
		viewerID: userID,
		send:     make(chan map[string]any, 8),
	}
	s.ws.add(sessionID, client)

	if snapshot, ok := s.SnapshotForViewer(sessionID, userID); ok {
		client.send <- snapshot
	}

	go func() {
		defer conn.Close()
		for payload := range client.send {
			if err := conn.WriteJSON(payload); err != nil {
				return
			}
		}
	}()
	go func() {
		defer s.ws.remove(sessionID, client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// broadcastSession sends each connected viewer their own redacted snapshot.
func (s *Server) broadcastSession(sessionID string) {
	for _, client := range s.ws.clients(sessionID) {
		snapshot, ok := s.SnapshotForViewer(sessionID, client.viewerID)
		if !ok {
			return
		}
		s.ws.deliver(sessionID, client, snapshot)
	}
}
