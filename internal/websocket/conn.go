package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/shopfront-backend/pkg/logger"
)

const (
	writeWait = 10 * time.Second

	// 구독자가 pong 없이 버틸 수 있는 시간. ping 주기는 이보다 짧아야 한다.
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// subscribe/unsubscribe 제어 메시지만 받는다
	maxMessageSize       = 4 * 1024
	maxMessagesPerSecond = 10
)

// Conn wraps the upgraded connection of a stale-notice subscriber.
type Conn struct {
	*websocket.Conn
}

func (c *Conn) write(messageType int, data []byte) error {
	if err := c.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.WriteMessage(messageType, data)
}

func (c *Conn) extendRead(string) error {
	return c.SetReadDeadline(time.Now().Add(pongWait))
}

// ReadControl applies subscribe/unsubscribe frames until the peer goes away,
// then leaves the hub. Binary frames are ignored.
func (c *Client) ReadControl() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.extendRead("")
	c.Conn.SetPongHandler(c.Conn.extendRead)

	for {
		kind, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Subscriber connection dropped", map[string]interface{}{
					"client_id": c.ID,
					"error":     err.Error(),
				})
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		c.Hub.HandleClientMessage(c, frame)
	}
}

// PushNotices forwards queued stale notices, one frame per notice, and keeps
// the connection alive with pings. A closed Send channel means the hub dropped
// the subscriber or shut down.
func (c *Client) PushNotices() {
	keepalive := time.NewTicker(pingPeriod)
	defer func() {
		keepalive.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case <-keepalive.C:
			if err := c.Conn.write(websocket.PingMessage, nil); err != nil {
				return
			}

		case notice, ok := <-c.Send:
			if !ok {
				_ = c.Conn.write(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "unsubscribed"))
				return
			}
			if err := c.Conn.write(websocket.TextMessage, notice); err != nil {
				logger.Warn("Stale notice not delivered", map[string]interface{}{
					"client_id": c.ID,
					"error":     err.Error(),
				})
				return
			}
		}
	}
}
