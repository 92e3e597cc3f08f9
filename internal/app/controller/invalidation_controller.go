package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ikkim/shopfront-backend/internal/middleware"
	ws "github.com/ikkim/shopfront-backend/internal/websocket"
)

// InvalidationController streams stale-view notices to render workers.
type InvalidationController struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewInvalidationController(hub *ws.Hub, allowedOrigins []string) *InvalidationController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &InvalidationController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// 서버 간 연결은 Origin 헤더가 없음
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

// Subscribe WebSocket 연결 처리
// GET /ws/invalidations
func (ctrl *InvalidationController) Subscribe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, uuid.NewString())
	client.LastResetTime = time.Now()
	ctrl.hub.Register(client)

	go client.PushNotices()
	go client.ReadControl()

	log.Info("Invalidation subscriber connected", map[string]interface{}{
		"client_id": client.ID,
	})
}
