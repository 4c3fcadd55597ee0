package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWs upgrades the connection and starts the client's pumps. The
// user_info query parameter is the caller's opaque token; it is carried,
// never verified.
func ServeWs(hub *Hub, handler *Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		client := NewClient(hub, conn, c.Query("user_info"))
		hub.register <- client

		go client.WritePump()
		go client.ReadPump(handler)
	}
}
