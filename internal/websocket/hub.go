package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/ikkim/shopfront-backend/pkg/logger"
)

// ClientMessage 클라이언트로부터 받은 메시지
type ClientMessage struct {
	Type   string `json:"type"`   // subscribe, unsubscribe
	Prefix string `json:"prefix"` // path prefix, "/" for everything
}

// StaleNotice is pushed to subscribers when a view becomes stale.
type StaleNotice struct {
	Type  string `json:"type"` // always "stale"
	Path  string `json:"path"`
	Scope string `json:"scope"`
}

// Client is one connected render worker.
type Client struct {
	Hub           *Hub
	Conn          *Conn
	ID            string
	Send          chan []byte
	prefixes      map[string]bool
	mu            sync.RWMutex
	MessageCount  int       // 최근 1초간 받은 메시지 수
	LastResetTime time.Time // 마지막 카운터 리셋 시간
	RateMu        sync.Mutex
}

// NewClient creates a client subscribed to every path.
func NewClient(hub *Hub, conn *Conn, id string) *Client {
	return &Client{
		Hub:      hub,
		Conn:     conn,
		ID:       id,
		Send:     make(chan []byte, 256),
		prefixes: map[string]bool{"/": true},
	}
}

// Wants reports whether the client subscribed to a prefix of path.
func (c *Client) Wants(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for prefix := range c.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Hub WebSocket 연결 관리자
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *StaleNotice
	done       chan struct{} // closed when Run returns
	mu         sync.RWMutex
}

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *StaleNotice, 1024),
		done:       make(chan struct{}),
	}
}

// Run Hub 실행. Returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("WebSocket subscriber registered", map[string]interface{}{
				"client_id":   client.ID,
				"subscribers": total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("WebSocket subscriber unregistered", map[string]interface{}{
				"client_id":   client.ID,
				"subscribers": total,
			})

		case notice := <-h.broadcast:
			data, err := json.Marshal(notice)
			if err != nil {
				logger.Error("Failed to marshal stale notice", err, nil)
				continue
			}
			h.mu.RLock()
			for client := range h.clients {
				if !client.Wants(notice.Path) {
					continue
				}
				select {
				case client.Send <- data:
				default:
					// Send 채널이 막혀있음 - 비동기로 정리
					go h.Unregister(client)
					logger.Warn("Subscriber send buffer full, disconnecting", map[string]interface{}{
						"client_id": client.ID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues a stale notice. A full queue drops the notice: the Redis marker still carries it.
func (h *Hub) Broadcast(path, scope string) error {
	select {
	case h.broadcast <- &StaleNotice{Type: "stale", Path: path, Scope: scope}:
	default:
		logger.Warn("Broadcast channel full, stale notice dropped", map[string]interface{}{
			"path": path,
		})
	}
	return nil
}

// Register 클라이언트 등록. 종료된 Hub에서는 Send를 닫아 펌프를 끝낸다.
func (h *Hub) Register(client *Client) {
	select {
	case <-h.done:
		close(client.Send)
		return
	default:
	}
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister 클라이언트 등록 해제. Run이 끝난 뒤에는 즉시 반환한다.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SubscriberCount 연결된 구독자 수
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleClientMessage 클라이언트 메시지 처리
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	// Rate limiting 체크
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"client_id": client.ID,
			"count":     count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"client_id": client.ID,
			"error":     err.Error(),
		})
		return
	}
	if !strings.HasPrefix(msg.Prefix, "/") {
		return
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	switch msg.Type {
	case "subscribe":
		// narrowing: the first explicit subscription replaces the catch-all
		if len(client.prefixes) == 1 && client.prefixes["/"] && msg.Prefix != "/" {
			delete(client.prefixes, "/")
		}
		client.prefixes[msg.Prefix] = true
	case "unsubscribe":
		delete(client.prefixes, msg.Prefix)
	}
}
