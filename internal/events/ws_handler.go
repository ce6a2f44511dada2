package events

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,

	// Origin checks happen at the CORS layer; dashboards connect from
	// known hosts only.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub *Hub
}

func NewWSHandler(hub *Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

func (h *WSHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/ws/events", h.HandleWebSocket)
}

// HandleWebSocket upgrades the connection and keeps it registered until
// the client goes away. The server only pushes; client frames are read
// and discarded to service control messages.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	clientID := h.hub.Register(conn)

	go func() {
		defer h.hub.Unregister(clientID)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
