package gateway

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionManager manages the WebSocket connections of the session
type ConnectionManager struct {
	connections map[*Connection]struct{}
	mu          sync.RWMutex

	// Upgrader for WebSocket connections
	upgrader websocket.Upgrader

	config  ConnectionConfig
	metrics Metrics
}

// Inbound receives the frames read from a connection, in the order they were read
type Inbound interface {
	Submit(c *Connection, frame []byte) bool
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time

	mu       sync.RWMutex
	userUUID string
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// ConnectionStats is the body of /ws/stats
type ConnectionStats struct {
	TotalConnections int `json:"total_connections"`
	BoundUsers       int `json:"bound_users"`
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  256 * 1024, // category batches carry every nominee
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		CheckOrigin: func(r *http.Request) bool {
			// Voters join from phones on the local network
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig, metrics Metrics) *ConnectionManager {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = DefaultConnectionConfig().SendBufferSize
	}

	return &ConnectionManager{
		connections: make(map[*Connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:  config,
		metrics: metrics,
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and starts its
// pumps. Frames read from the client are handed to inbound.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, inbound Inbound) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := cm.newConnection(conn)
	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump(inbound)

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")

	return connection, nil
}

func (cm *ConnectionManager) newConnection(conn *websocket.Conn) *Connection {
	return &Connection{
		ID:          uuid.NewString(),
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}
}

// registerConnection adds a connection to the manager
func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	cm.connections[conn] = struct{}{}
	total := len(cm.connections)
	cm.mu.Unlock()

	cm.metrics.ConnectionOpened()

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", total).
		Msg("connection registered")
}

// unregisterConnection removes a connection from the manager. The session
// binding goes with it; users and buzzes are untouched.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	if _, exists := cm.connections[conn]; !exists {
		cm.mu.Unlock()
		return
	}
	delete(cm.connections, conn)
	close(conn.Send)
	cm.mu.Unlock()

	cm.metrics.ConnectionClosed()

	log.Info().
		Str("connection_id", conn.ID).
		Str("user_uuid", conn.UserUUID()).
		Msg("connection unregistered")
}

// Broadcast queues data on every selected connection and returns how many
// connections it was queued on. DeliverOthers skips origin.
func (cm *ConnectionManager) Broadcast(origin *Connection, delivery Delivery, data []byte) int {
	var slow []*Connection
	sent := 0

	cm.mu.RLock()
	for conn := range cm.connections {
		if delivery == DeliverOthers && conn == origin {
			continue
		}
		select {
		case conn.Send <- data:
			sent++
		default:
			slow = append(slow, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range slow {
		cm.drop(conn)
	}
	return sent
}

// SendTo queues data on a single connection. It reports false when the
// connection is gone or had to be dropped.
func (cm *ConnectionManager) SendTo(conn *Connection, data []byte) bool {
	cm.mu.RLock()
	if _, exists := cm.connections[conn]; !exists {
		cm.mu.RUnlock()
		return false
	}
	select {
	case conn.Send <- data:
		cm.mu.RUnlock()
		return true
	default:
	}
	cm.mu.RUnlock()

	cm.drop(conn)
	return false
}

// drop closes a connection whose send buffer is full; the client reconnects
// and reloads state from the read endpoints.
func (cm *ConnectionManager) drop(conn *Connection) {
	log.Warn().
		Str("connection_id", conn.ID).
		Str("user_uuid", conn.UserUUID()).
		Msg("connection send buffer full, closing connection")

	cm.metrics.ConnectionDropped()
	cm.unregisterConnection(conn)
	if conn.Conn != nil {
		conn.Conn.Close()
	}
}

// Count returns the number of registered connections
func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{TotalConnections: len(cm.connections)}
	for conn := range cm.connections {
		if conn.UserUUID() != "" {
			stats.BoundUsers++
		}
	}
	return stats
}

// CloseAll closes every connection; used during shutdown
func (cm *ConnectionManager) CloseAll() {
	cm.mu.RLock()
	conns := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		conns = append(conns, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range conns {
		cm.unregisterConnection(conn)
	}
}

// Bind associates the connection with a user. The first binding sticks; it
// reports whether this call set it.
func (c *Connection) Bind(userUUID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userUUID != "" {
		return false
	}
	c.userUUID = userUUID
	return true
}

// UserUUID returns the bound user, or "" before registration
func (c *Connection) UserUUID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userUUID
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump reads frames until the peer goes away and hands each one to inbound
func (c *Connection) readPump(inbound Inbound) {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		if !inbound.Submit(c, message) {
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
