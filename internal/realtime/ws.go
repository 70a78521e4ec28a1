package realtime

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope sent to spectators.
type WSMessage struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ServeWs upgrades GET /ws?game_id=N&token=... and streams the game's events
// until the client disconnects. The token is validated with jwtValidate.
func ServeWs(pubsub *RedisPubSub, logger *zap.Logger, jwtValidate func(token string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameIDStr := c.Query("game_id")
		token := c.Query("token")
		if gameIDStr == "" || token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "game_id and token required"})
			return
		}
		gameID, err := strconv.ParseUint(gameIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game_id"})
			return
		}
		if err := jwtValidate(token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		send := make(chan WSMessage, 64)
		cancel, err := pubsub.SubscribeGame(gameID, func(topic string, payload []byte) {
			select {
			case send <- WSMessage{Topic: topic, Data: payload}:
			default:
				// Slow consumer; drop rather than block the subscriber loop.
			}
		})
		if err != nil {
			logger.Warn("game subscription failed", zap.Uint64("game_id", gameID), zap.Error(err))
			_ = conn.Close()
			return
		}

		go writePump(conn, send)
		readPump(conn, cancel)
	}
}

// readPump discards inbound frames; the stream is one-way. It exists to
// answer pings and to notice the disconnect.
func readPump(conn *websocket.Conn, cancel func()) {
	defer func() {
		cancel()
		_ = conn.Close()
	}()
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, send <-chan WSMessage) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case msg, ok := <-send:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
