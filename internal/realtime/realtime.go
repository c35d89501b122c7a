// Package realtime pushes refreshed dashboard data to attached websocket
// clients. Each dashboard type is a topic; a provider subscription feeds the
// hub, and clients receive whichever topics they subscribe to.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dealerpulse/dashboard-engine/internal/provider"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Message is the envelope sent to dashboard clients.
type Message struct {
	Type      string      `json:"type"`
	Topic     string      `json:"topic"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// SubscriptionRequest is the client-to-server topic management message.
type SubscriptionRequest struct {
	Type   string   `json:"type"`
	Topics []string `json:"topics"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub maintains the set of attached dashboard clients and routes refreshed
// dashboard data to topic subscribers.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan broadcastItem
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *zap.Logger
}

type broadcastItem struct {
	topic   string
	payload []byte
}

// Client is one attached websocket dashboard.
type Client struct {
	ID     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	topics map[string]bool
	mu     sync.RWMutex
}

// NewHub creates a dashboard hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan broadcastItem, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run owns the client set. It exits when ctx is cancelled, closing done so
// late registrations are turned away instead of blocking.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("dashboard client attached", zap.String("client_id", client.ID))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.logger.Debug("dashboard client detached", zap.String("client_id", client.ID))

		case item := <-h.broadcast:
			for client := range h.clients {
				if !client.subscribed(item.topic) {
					continue
				}
				select {
				case client.send <- item.payload:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// BroadcastDashboard pushes refreshed dashboard data to every client
// subscribed to that dashboard type.
func (h *Hub) BroadcastDashboard(dashboardType provider.DashboardType, data provider.DashboardData) error {
	message := Message{
		Type:      "dashboard_data",
		Topic:     string(dashboardType),
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard update: %w", err)
	}

	h.broadcast <- broadcastItem{topic: string(dashboardType), payload: payload}
	return nil
}

// HandleWebSocket upgrades a dashboard connection. A dashboard_type query
// parameter pre-subscribes the client to that topic.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to upgrade connection"})
		return
	}

	client := &Client{
		ID:     uuid.New().String(),
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		topics: make(map[string]bool),
	}
	if topic := c.Query("dashboard_type"); topic != "" {
		client.topics[topic] = true
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) subscribed(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics[topic]
}

// readPump consumes subscription messages until the connection drops.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var req SubscriptionRequest
		if err := json.Unmarshal(message, &req); err != nil {
			continue
		}
		c.handleSubscription(&req)
	}
}

// writePump sends queued updates and keepalive pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

func (c *Client) handleSubscription(req *SubscriptionRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch req.Type {
	case "subscribe":
		for _, topic := range req.Topics {
			c.topics[topic] = true
		}
	case "unsubscribe":
		for _, topic := range req.Topics {
			delete(c.topics, topic)
		}
	}
}

// Manager bridges provider subscriptions onto the hub: one long-lived
// subscription per dashboard type, each broadcast to its topic.
type Manager struct {
	hub      *Hub
	provider *provider.Provider
	logger   *zap.Logger

	mu   sync.Mutex
	subs []*provider.Subscription
}

// NewManager creates a realtime manager over a provider.
func NewManager(p *provider.Provider, logger *zap.Logger) *Manager {
	return &Manager{
		hub:      NewHub(logger),
		provider: p,
		logger:   logger,
	}
}

// Start runs the hub and attaches a provider subscription for each
// dashboard type. Everything stops when ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	go m.hub.Run(ctx)

	for _, dashboardType := range []provider.DashboardType{
		provider.DashboardTypeSalesperson,
		provider.DashboardTypeDealership,
		provider.DashboardTypeManager,
	} {
		sub := m.provider.Subscribe(ctx, dashboardType, provider.Options{})

		m.mu.Lock()
		m.subs = append(m.subs, sub)
		m.mu.Unlock()

		go m.forward(ctx, dashboardType, sub)
	}
}

// Stop detaches every provider subscription.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subs {
		sub.Cancel()
	}
	m.subs = nil
}

// HandleWebSocket exposes the hub's websocket endpoint.
func (m *Manager) HandleWebSocket(c *gin.Context) {
	m.hub.HandleWebSocket(c)
}

func (m *Manager) forward(ctx context.Context, dashboardType provider.DashboardType, sub *provider.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-sub.Updates():
			if !ok {
				return
			}
			if err := m.hub.BroadcastDashboard(dashboardType, data); err != nil {
				m.logger.Warn("failed to broadcast dashboard update",
					zap.String("dashboard_type", string(dashboardType)),
					zap.Error(err))
			}
		}
	}
}
