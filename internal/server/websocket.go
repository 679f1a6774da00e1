package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"top-ten/internal/game"
	"top-ten/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsWriteWait = 2 * time.Second

// wsHub fans round snapshots out to the boards watching each round.
// Writes go through writeMu since a connection allows one writer at a time.
// Each write is bounded by writeWait; a board that stops reading is dropped.
type wsHub struct {
	mu        sync.Mutex
	writeMu   sync.Mutex
	writeWait time.Duration
	rounds    map[string]map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		writeWait: wsWriteWait,
		rounds:    make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (h *wsHub) write(conn *websocket.Conn, data []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(h.writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *wsHub) Add(roundID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	watchers := h.rounds[roundID]
	if watchers == nil {
		watchers = make(map[*websocket.Conn]struct{})
		h.rounds[roundID] = watchers
	}
	watchers[conn] = struct{}{}
	metrics.WebsocketClients.Inc()
}

func (h *wsHub) Remove(roundID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	watchers := h.rounds[roundID]
	if watchers == nil {
		return
	}
	if _, ok := watchers[conn]; !ok {
		return
	}
	delete(watchers, conn)
	_ = conn.Close()
	metrics.WebsocketClients.Dec()
	if len(watchers) == 0 {
		delete(h.rounds, roundID)
	}
}

func (h *wsHub) Send(conn *websocket.Conn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	_ = h.write(conn, data)
}

func (h *wsHub) Broadcast(roundID string, payload any) {
	h.mu.Lock()
	watchers := h.rounds[roundID]
	conns := make([]*websocket.Conn, 0, len(watchers))
	for conn := range watchers {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	failed := make([]*websocket.Conn, 0)
	h.writeMu.Lock()
	for _, conn := range conns {
		if err := h.write(conn, data); err != nil {
			failed = append(failed, conn)
		}
	}
	h.writeMu.Unlock()
	for _, conn := range failed {
		h.Remove(roundID, conn)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleWebsocket(c *gin.Context) {
	var uri roundURI
	if !bindURI(c, &uri) {
		return
	}
	round, err := s.loadRound(c.Request.Context(), uri.RoundID)
	if err != nil {
		writeError(c, http.StatusNotFound, "round not found")
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected round_id=%s remote=%s", round.ID, c.Request.RemoteAddr)
	s.ws.Add(round.ID, conn)
	s.ws.Send(conn, roundSnapshot(round, false))
	go s.readWS(round.ID, conn)
}

func (s *Server) readWS(roundID string, conn *websocket.Conn) {
	defer s.ws.Remove(roundID, conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected round_id=%s error=%v", roundID, err)
			return
		}
	}
}

func (s *Server) broadcastRound(round game.Round) {
	if s.ws == nil {
		return
	}
	s.ws.Broadcast(round.ID, roundSnapshot(round, false))
}
