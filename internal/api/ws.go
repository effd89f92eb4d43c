package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser client is served from another origin during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsChatMessage struct {
	Message string `json:"message"`
}

type wsChatResponse struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// handleChatSocket streams chatbot exchanges over a websocket. Each inbound
// JSON message is answered and persisted exactly like a POST /chat call.
func (s *Server) handleChatSocket(c *gin.Context) {
	conn, err := chatUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		var inbound wsChatMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.WithError(err).Debug("Websocket read failed")
			}
			return
		}

		msg, err := s.chatbot.Ask(c.Request.Context(), inbound.Message)
		if err != nil {
			if writeErr := conn.WriteJSON(gin.H{"error": err.Error()}); writeErr != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(wsChatResponse{
			ID:        msg.ID,
			Message:   msg.Message,
			Response:  msg.Response,
			Timestamp: msg.CreatedAt,
		}); err != nil {
			return
		}
	}
}
