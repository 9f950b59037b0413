package api

import (
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"go-advisor/internal/auth"
	"go-advisor/internal/dialogue"
)

type WSChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type WSChatReply struct {
	SessionID string `json:"sessionId"`
	Reply     string `json:"reply"`
	Stage     string `json:"stage"`
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocket connection wrapper with mutex for thread-safe writes
type safeWSConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *safeWSConn) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *safeWSConn) ReadJSON(v interface{}) error {
	return s.conn.ReadJSON(v)
}

func (s *safeWSConn) Close() error {
	return s.conn.Close()
}

// WSChatHandler holds one advisory conversation over a websocket. Each inbound
// message is one turn; the reply carries the stage reached after it.
func WSChatHandler(jwtSecret string, engine *dialogue.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing JWT"})
			return
		}
		token = strings.TrimPrefix(token, "Bearer ")
		if _, err := auth.ParseJWT(jwtSecret, token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid JWT"})
			return
		}

		rawConn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("WebSocket upgrade failed:", err)
			return
		}
		conn := &safeWSConn{conn: rawConn}
		defer conn.Close()

		// One session per socket, pinned on the first message.
		sessionID := ""
		for {
			var req WSChatRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if req.Message == "" {
				conn.WriteJSON(map[string]string{"error": "missing message"})
				continue
			}
			if sessionID == "" {
				sessionID = req.SessionID
				if sessionID == "" {
					sessionID = uuid.New().String()
				}
			}

			reply, stage, err := engine.Turn(c.Request.Context(), sessionID, req.Message)
			if err != nil {
				conn.WriteJSON(map[string]string{"error": "advisor unavailable"})
				continue
			}
			conn.WriteJSON(WSChatReply{
				SessionID: sessionID,
				Reply:     reply,
				Stage:     string(stage),
			})
		}
	}
}
