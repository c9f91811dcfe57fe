// Package gateway terminates client websocket connections: one per session,
// matching the teacher's read-pump/write-pump layout but carrying JSON text
// frames (spec.md §6) instead of protobuf, and validating a real auth token
// on connect (spec.md §4.8) instead of assigning an identity from the
// connection id.
package gateway

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"holdemlite/holdem"
	"holdemlite/internal/auth"
	"holdemlite/internal/codec"
	"holdemlite/internal/lobby"
	"holdemlite/internal/table"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict once an allowed-origin list exists
	},
}

// Connection is one client's websocket session.
type Connection struct {
	ID      string
	UserID  uint64
	Conn    *websocket.Conn
	Send    chan *codec.ServerEnvelope
	Gateway *Gateway

	TableID string
	Runtime *table.Runtime
}

// Gateway upgrades HTTP connections to websockets and ties each one to a
// table runtime session.
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	nextConnID  uint64

	lobby *lobby.Lobby
	auth  auth.Service
}

// New creates a Gateway backed by the given lobby and auth service.
func New(lby *lobby.Lobby, authService auth.Service) *Gateway {
	return &Gateway{
		connections: make(map[string]*Connection),
		lobby:       lby,
		auth:        authService,
	}
}

// HandleWebSocket upgrades the request and, once a valid token and table id
// are presented, attaches the connection to that table's session registry.
// The table id is read from the `table_id` query parameter; the token from
// the `token` query parameter, or else from an `Authorization: Bearer`
// header, per spec_full.md §6. Missing/invalid either is rejected before upgrade
// completes its handshake with the client.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r.Header.Get("Authorization"))
	}
	if token == "" {
		http.Error(w, codec.ErrMissingToken, http.StatusUnauthorized)
		return
	}
	userID, _, ok := g.auth.ResolveSession(token)
	if !ok {
		http.Error(w, codec.ErrInvalidToken, http.StatusUnauthorized)
		return
	}

	tableID := r.URL.Query().Get("table_id")
	if tableID == "" {
		http.Error(w, codec.ErrInvalidTableID, http.StatusBadRequest)
		return
	}
	rt, ok := g.lobby.GetTable(tableID)
	if !ok {
		http.Error(w, codec.ErrTableNotFound, http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] upgrade error: %v", err)
		return
	}

	g.mu.Lock()
	g.nextConnID++
	connID := fmt.Sprintf("conn_%d", g.nextConnID)
	c := &Connection{
		ID:      connID,
		UserID:  userID,
		Conn:    conn,
		Send:    make(chan *codec.ServerEnvelope, 256),
		Gateway: g,
		TableID: tableID,
		Runtime: rt,
	}
	g.connections[connID] = c
	g.mu.Unlock()

	if err := rt.RegisterSession(connID, userID, c.deliver); err != nil {
		log.Printf("[Gateway] register session %s failed: %v", connID, err)
	}

	log.Printf("[Gateway] client connected: %s (userID=%d) table=%s, total=%d", connID, userID, tableID, len(g.connections))

	go c.readPump()
	go c.writePump()
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

// deliver is the table runtime's Sender for this connection: it queues an
// envelope for writePump, dropping it (and reporting failure) if the send
// buffer is full, which causes notify_changed to evict this session.
func (c *Connection) deliver(env *codec.ServerEnvelope) error {
	select {
	case c.Send <- env:
		return nil
	default:
		return fmt.Errorf("gateway: send buffer full for %s", c.ID)
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(65536)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] read error on %s: %v", c.ID, err)
			}
			break
		}
		if messageType == websocket.TextMessage {
			c.handleMessage(message)
		}
	}
}

func (c *Connection) handleMessage(raw []byte) {
	env, err := codec.ParseClientEnvelope(raw)
	if err != nil {
		c.sendError(codec.ErrInvalidJSON, err.Error())
		return
	}

	switch env.Type {
	case codec.TypePlayerAction:
		c.handlePlayerAction(env)
	case codec.TypeToggleShowAll:
		c.handleToggleShowAll(env)
	default:
		c.sendError(codec.ErrUnknownMessageType, fmt.Sprintf("unknown message type %q", env.Type))
	}
}

func (c *Connection) handlePlayerAction(env *codec.ClientEnvelope) {
	payload, err := env.DecodePlayerAction()
	if err != nil {
		c.sendError(codec.ErrMissingAction, err.Error())
		return
	}
	action, ok := holdem.ParseAction(payload.Action)
	if !ok {
		c.sendError(codec.ErrInvalidAction, fmt.Sprintf("unknown action %q", payload.Action))
		return
	}
	if err := c.Runtime.HandlePlayerAction(c.UserID, action, payload.Amount); err != nil {
		c.sendActionErr(err)
	}
}

func (c *Connection) handleToggleShowAll(env *codec.ClientEnvelope) {
	payload, err := env.DecodeToggleShowAll()
	if err != nil {
		c.sendError(codec.ErrInvalidJSON, err.Error())
		return
	}
	if err := c.Runtime.HandleToggleShowAll(c.ID, payload.Show); err != nil {
		c.sendActionErr(err)
	}
}

func (c *Connection) sendActionErr(err error) {
	if actionErr, ok := err.(*table.ActionError); ok {
		c.sendError(actionErr.Code, actionErr.Msg)
		return
	}
	c.sendError(codec.ErrActionFailed, err.Error())
}

func (c *Connection) sendError(code, msg string) {
	select {
	case c.Send <- codec.ErrorEnvelope(code, msg):
	default:
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	delete(g.connections, c.ID)
	g.mu.Unlock()
	c.Runtime.UnregisterSession(c.ID)
	log.Printf("[Gateway] client disconnected: %s", c.ID)
}
