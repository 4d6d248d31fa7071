package handlers

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/arnold/challenges-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types sent over WebSocket
const (
	EventDayUpdated       = "day_updated"
	EventChallengeUpdated = "challenge_updated"
	EventChallengeDeleted = "challenge_deleted"
)

// WSEvent is the JSON message sent to connected clients
type WSEvent struct {
	Type        string      `json:"type"`
	ChallengeID string      `json:"challengeId"`
	Data        interface{} `json:"data,omitempty"`
}

const (
	// Events queued per connection before new ones are dropped.
	sendBuffer = 16
	writeWait  = 10 * time.Second
)

type connection struct {
	userID uuid.UUID
	send   chan []byte
}

// Hub tracks the open connections of each user so every device signed in
// to the same account sees changes made on another.
type Hub struct {
	mu    sync.RWMutex
	users map[uuid.UUID]map[*connection]bool
}

// Global hub instance
var WS = NewHub()

func NewHub() *Hub {
	return &Hub{users: make(map[uuid.UUID]map[*connection]bool)}
}

// Subscribe registers a listener for userID's events. The returned func
// unregisters it and closes the channel.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan []byte, func()) {
	conn := &connection{userID: userID, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[*connection]bool)
	}
	h.users[userID][conn] = true
	count := len(h.users[userID])
	h.mu.Unlock()

	zap.L().Debug("ws register",
		zap.String("userId", userID.String()),
		zap.Int("connections", count))

	var once sync.Once
	return conn.send, func() {
		once.Do(func() { h.unregister(conn) })
	}
}

func (h *Hub) unregister(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.users[conn.userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.users, conn.userID)
		}
	}
	close(conn.send)
}

// Connections reports how many sockets userID has open.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// Send queues an event for every connection of userID. It never blocks:
// a connection whose queue is full misses the event.
func (h *Hub) Send(userID uuid.UUID, event WSEvent) {
	msg, err := json.Marshal(event)
	if err != nil {
		zap.L().Warn("ws marshal failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.users[userID] {
		select {
		case c.send <- msg:
		default:
			zap.L().Debug("ws queue full, event dropped",
				zap.String("userId", userID.String()),
				zap.String("type", event.Type))
		}
	}
}

// WebSocketUpgrade is the middleware that checks the upgrade request and validates JWT
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// Authenticate via query param: ?token=<jwt>
		tokenString := c.Query("token")
		if tokenString == "" {
			// Also check Authorization header for non-browser clients
			authHeader := c.Get("Authorization")
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				tokenString = ""
			}
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authentication token",
			})
		}

		claims, err := middleware.ParseToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("userId", claims.UserID)
		return c.Next()
	}
}

// HandleWebSocket keeps a user's connection registered until it closes.
func HandleWebSocket(c *websocket.Conn) {
	userID, ok := c.Locals("userId").(uuid.UUID)
	if !ok {
		c.Close()
		return
	}

	events, unsubscribe := WS.Subscribe(userID)
	done := make(chan struct{})
	go func() {
		defer close(done)
		writeEvents(c, events)
	}()
	defer func() {
		unsubscribe()
		<-done
	}()

	// Clients only send keepalives; reading detects the close.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

// writeEvents drains events onto the socket until the channel closes. A
// failed write closes the socket, which ends the read loop.
func writeEvents(c *websocket.Conn, events <-chan []byte) {
	for msg := range events {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			zap.L().Debug("ws write failed", zap.Error(err))
			c.Close()
			for range events {
			}
			return
		}
	}
}
