package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/softtechniques/softbot/internal/chat"
	"github.com/softtechniques/softbot/pkg/logger"
)

type WebSocketHandler struct {
	engine *chat.Engine
}

func NewWebSocketHandler(engine *chat.Engine) *WebSocketHandler {
	return &WebSocketHandler{engine: engine}
}

// HandleConnection runs one widget connection. Each inbound message is
// answered as a stream of word chunks followed by a complete frame with
// the full response payload.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	sessionID := ""

	for {
		var msg struct {
			Type      string `json:"type"`
			Message   string `json:"message"`
			SessionID string `json:"session_id"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			return
		}

		if msg.Type != "chat" || strings.TrimSpace(msg.Message) == "" {
			continue
		}

		if msg.SessionID != "" {
			sessionID = msg.SessionID
		}

		response := h.engine.Chat(context.Background(), sessionID, msg.Message)
		sessionID = response.SessionID

		if err := h.stream(c, response); err != nil {
			logger.Error("WebSocket stream failed", zap.Error(err))
			return
		}
	}
}

func (h *WebSocketHandler) stream(c *websocket.Conn, response *chat.Response) error {
	words := strings.Fields(response.Response)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}
		if err := c.WriteJSON(map[string]interface{}{
			"type":  "chunk",
			"chunk": chunk,
		}); err != nil {
			return err
		}
	}

	return c.WriteJSON(map[string]interface{}{
		"type":     "complete",
		"response": response,
	})
}
